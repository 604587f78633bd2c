package speech

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a stand-in for the external speech service.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// TranscribeBytes returns a fixed transcription.
func (m *MockConnector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("empty audio data provided")
	}

	ctxzap.Info(ctx, "[MOCK] transcribing audio",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
	)

	return "Can you explain how photosynthesis works and then give me a quiz about it?", nil
}

// SynthesizeText returns a tiny placeholder payload instead of audio.
func (m *MockConnector) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text provided")
	}

	ctxzap.Info(ctx, "[MOCK] synthesizing speech", zap.Int("text_length", len(text)))

	return []byte("MOCK-AUDIO:" + text), nil
}
