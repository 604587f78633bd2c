package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/integration/common"
	pkghttp "github.com/azmilabs/tutor-agent/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector integrates the external speech service: speech-to-text for
// dictation and text-to-speech for reading tutor replies aloud.
type Connector struct {
	config    config.SpeechConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.SpeechConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// TranscribeBytes sends an audio clip for transcription.
func (c *Connector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("empty audio data provided")
	}

	hash := sha256.Sum256(audioData)
	checksum := hex.EncodeToString(hash[:])

	ctxzap.Info(ctx, "transcribing audio via speech service",
		zap.String("filename", filename),
		zap.String("checksum", checksum),
		zap.Int("size", len(audioData)),
	)

	prepareBody := func(writer *multipart.Writer) error {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}

		if _, err := part.Write(audioData); err != nil {
			return fmt.Errorf("write file content: %w", err)
		}

		if err := writer.WriteField("checksum", checksum); err != nil {
			return fmt.Errorf("write checksum field: %w", err)
		}

		return nil
	}

	var resp entity.SpeechTranscribeResponse
	err := retry.Do(func() error {
		return c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.TranscribeEndpoint, prepareBody, &resp)
	}, c.config.Retry.ToRetryOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	ctxzap.Info(ctx, "audio transcribed successfully", zap.Int("transcription_length", len(resp.Transcription)))

	return resp.Transcription, nil
}

// SynthesizeText renders text as audio and returns the raw bytes
// (audio/mpeg) from the speech service.
func (c *Connector) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text provided")
	}

	ctxzap.Info(ctx, "synthesizing speech via speech service",
		zap.Int("text_length", len(text)),
		zap.String("voice", c.config.Voice),
	)

	reqBody := map[string]string{
		"text":  text,
		"voice": c.config.Voice,
	}

	audio, err := retry.DoWithData(func() ([]byte, error) {
		return c.connector.DoBinaryRequest(ctx, http.MethodPost, c.config.SynthesizeEndpoint, reqBody)
	}, c.config.Retry.ToRetryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	ctxzap.Info(ctx, "speech synthesized successfully", zap.Int("audio_bytes", len(audio)))

	return audio, nil
}
