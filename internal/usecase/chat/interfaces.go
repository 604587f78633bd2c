package chat

import (
	"context"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

type TutorConnector interface {
	StartConversation(ctx context.Context, systemFraming string) (string, error)
	SendTurn(ctx context.Context, conversationID, text string) (string, error)
	GenerateOnce(ctx context.Context, text string, attachments []entity.AttachmentRef) (string, error)
	EndConversation(conversationID string)
}

type SpeechBridge interface {
	Transcribe(ctx context.Context, audioData []byte, filename string) (string, error)
	Speak(ctx context.Context, text string) ([]byte, error)
}
