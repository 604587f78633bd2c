package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
)

type Validator struct {
	cfg config.AttachmentConfig
}

func NewValidator(cfg config.AttachmentConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateSendMessage validates the message request shape. Per-file
// size limits are enforced later by the attachment pipeline, which
// reports them as notices instead of failing the request.
func (v *Validator) ValidateSendMessage(req *entity.SendMessageRequest) error {
	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		return fmt.Errorf("%w: text or attachments", entity.ErrMissingField)
	}

	if len(req.Attachments) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: got %d (max %d)", entity.ErrTooManyFiles, len(req.Attachments), v.cfg.MaxFileCount)
	}

	for i, att := range req.Attachments {
		if att.Name == "" {
			return fmt.Errorf("%w: attachments[%d].name", entity.ErrMissingField, i)
		}
		if att.Data == "" {
			return fmt.Errorf("%w: attachments[%d].data", entity.ErrMissingField, i)
		}
	}

	return nil
}

// ValidateSpeakRequest validates a text-to-speech request
func (v *Validator) ValidateSpeakRequest(req *entity.SpeakRequest) error {
	if req.MessageID == "" {
		return fmt.Errorf("%w: message_id", entity.ErrMissingField)
	}
	return nil
}

// ValidateAudioClip validates dictation clip uploads (WAV format only)
func (v *Validator) ValidateAudioClip(file *multipart.FileHeader) error {
	if file == nil {
		return entity.ErrMissingField
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".wav" {
		return fmt.Errorf("%w: %s (only .wav files are allowed)", entity.ErrInvalidFormat, ext)
	}

	if file.Size > v.cfg.MaxAudioSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, file.Filename, file.Size, v.cfg.MaxAudioSize)
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" &&
		contentType != "audio/wav" &&
		contentType != "audio/x-wav" &&
		contentType != "application/octet-stream" {
		return fmt.Errorf("%w: content type '%s' (expected audio/wav, audio/x-wav or application/octet-stream)", entity.ErrInvalidFormat, contentType)
	}

	return nil
}
