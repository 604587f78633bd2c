package chat

import (
	"context"

	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/entity"
)

type ChatUsecase interface {
	StartSession(ctx context.Context) (*entity.SessionDTO, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionDTO, error)
	SendMessage(ctx context.Context, sessionID, text string, files []attachment.File) (*entity.Message, []attachment.Notice, error)
	GetTranscript(ctx context.Context, sessionID string) ([]entity.Message, error)
	ClearTranscript(ctx context.Context, sessionID string) error
	SelectQuizOption(ctx context.Context, sessionID string, option int) (*entity.QuizProgressDTO, error)
	AdvanceQuiz(ctx context.Context, sessionID string) (*entity.QuizProgressDTO, error)
	AbandonQuiz(ctx context.Context, sessionID string) (*entity.QuizProgressDTO, error)
	GetSessionResult(ctx context.Context, sessionID string) (string, error)
	TranscribeClip(ctx context.Context, sessionID string, audio []byte, filename string) (string, error)
	SpeakMessage(ctx context.Context, sessionID, messageID string) ([]byte, error)
}
