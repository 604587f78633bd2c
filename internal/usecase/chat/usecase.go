package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/extractor"
	"github.com/azmilabs/tutor-agent/internal/quiz"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ChatUsecase implements the tutoring session business logic.
type ChatUsecase struct {
	connector TutorConnector
	voice     SpeechBridge
	pipeline  *attachment.Pipeline
	sessions  *gocache.Cache
	framing   string
	logger    *zap.Logger
}

// NewUsecase creates a new chat use case. Sessions live in an
// in-memory registry and expire after the configured idle TTL.
func NewUsecase(
	connector TutorConnector,
	voice SpeechBridge,
	pipeline *attachment.Pipeline,
	sessionCfg config.SessionConfig,
	framing string,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		connector: connector,
		voice:     voice,
		pipeline:  pipeline,
		sessions:  gocache.New(sessionCfg.TTL, sessionCfg.CleanupInterval),
		framing:   framing,
		logger:    logger,
	}
}

// Pipeline exposes the attachment pipeline for frontends that read
// files from disk themselves.
func (uc *ChatUsecase) Pipeline() *attachment.Pipeline {
	return uc.pipeline
}

// StartSession registers a fresh session. The remote conversation is
// not opened yet; that happens on the first send.
func (uc *ChatUsecase) StartSession(ctx context.Context) (*entity.SessionDTO, error) {
	session := newSession()
	uc.sessions.Set(session.ID, session, gocache.DefaultExpiration)

	ctxzap.Info(ctx, "session started", zap.String("session_id", session.ID))
	return session.toDTO(), nil
}

// GetSession returns the session snapshot.
func (uc *ChatUsecase) GetSession(ctx context.Context, sessionID string) (*entity.SessionDTO, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return session.toDTO(), nil
}

// SendMessage runs one full turn: prepare attachments, append the user
// message, call the model, append the reply (or a failure notice) as a
// bot message. Attachment rejections are reported as notices alongside
// a successful send.
func (uc *ChatUsecase) SendMessage(ctx context.Context, sessionID, text string, files []attachment.File) (*entity.Message, []attachment.Notice, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return nil, nil, err
	}

	refs, notices := uc.pipeline.PrepareBatch(files)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" && len(refs) == 0 {
		return nil, notices, entity.ErrEmptyTurn
	}

	if err := session.beginSend(); err != nil {
		return nil, notices, err
	}
	defer session.endSend()

	session.Transcript.Append(entity.Message{
		ID:          uuid.New().String(),
		Origin:      entity.MessageOriginUser,
		Text:        trimmed,
		Attachments: refs,
		CreatedAt:   time.Now().UTC(),
	})

	reply, err := uc.requestReply(ctx, session, trimmed, refs)
	if err != nil {
		botMsg, reportErr := uc.reportFailure(ctx, session, err)
		if reportErr != nil {
			return nil, notices, reportErr
		}
		return botMsg, notices, nil
	}

	botMsg := uc.composeBotMessage(ctx, session, reply)
	session.Transcript.Append(*botMsg)

	return botMsg, notices, nil
}

// requestReply routes the turn: attachments go through a stateless
// multimodal call, plain text continues the conversation, which is
// opened lazily with the system framing on first use.
func (uc *ChatUsecase) requestReply(ctx context.Context, session *Session, text string, refs []entity.AttachmentRef) (string, error) {
	if len(refs) > 0 {
		prompt := text
		if prompt == "" {
			prompt = defaultAttachmentPrompt
		}
		return uc.connector.GenerateOnce(ctx, prompt, refs)
	}

	conversationID := session.conversationHandle()
	if conversationID == "" {
		id, err := uc.connector.StartConversation(ctx, uc.framing)
		if err != nil {
			return "", fmt.Errorf("start conversation: %w", err)
		}
		session.setConversationHandle(id)
		conversationID = id
	}

	return uc.connector.SendTurn(ctx, conversationID, text)
}

// reportFailure converts a connector error into a bot message so the
// transcript never carries a raw error. Missing credentials are
// surfaced exactly once per session; after that the error goes back to
// the caller without touching the transcript.
func (uc *ChatUsecase) reportFailure(ctx context.Context, session *Session, err error) (*entity.Message, error) {
	if errors.Is(err, entity.ErrConfigMissing) {
		if !session.markConfigReported() {
			return nil, entity.ErrConfigMissing
		}
		ctxzap.Warn(ctx, "tutor credentials missing, reporting once", zap.Error(err))
		msg := botMessage(configMissingText)
		session.Transcript.Append(msg)
		return &msg, nil
	}

	ctxzap.Error(ctx, "tutor request failed", zap.Error(err))
	msg := botMessage(transportFailureText)
	session.Transcript.Append(msg)
	return &msg, nil
}

// composeBotMessage scans the reply for a structured payload and, for
// quizzes, starts a run. A quiz that cannot start (no questions, or
// another run is already active) degrades to a plain text message.
func (uc *ChatUsecase) composeBotMessage(ctx context.Context, session *Session, reply string) *entity.Message {
	msg := botMessage(reply)

	content := extractor.Extract(reply)
	if content == nil {
		return &msg
	}

	switch content.Kind {
	case entity.ContentKindQuiz:
		run, err := quiz.NewRun(content.Quiz)
		if err != nil {
			ctxzap.Warn(ctx, "quiz payload not startable", zap.Error(err))
			return &msg
		}
		if !session.startQuizRun(run) {
			ctxzap.Warn(ctx, "quiz already active, ignoring new quiz payload")
			return &msg
		}
		msg.Widget = content
		ctxzap.Info(ctx, "quiz started",
			zap.String("title", run.Title()),
			zap.Int("question_count", run.QuestionCount()),
		)
	case entity.ContentKindFlashcards, entity.ContentKindRoadmap:
		msg.Widget = content
		session.setExportable(renderMarkdown(content))
		ctxzap.Info(ctx, "widget extracted", zap.String("kind", string(content.Kind)))
	}

	return &msg
}

// GetTranscript returns the message history.
func (uc *ChatUsecase) GetTranscript(ctx context.Context, sessionID string) ([]entity.Message, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Transcript.All(), nil
}

// ClearTranscript wipes the history, silently discards any quiz run
// and drops the remote conversation handle: the next send starts a
// fresh conversation.
func (uc *ChatUsecase) ClearTranscript(ctx context.Context, sessionID string) error {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return err
	}

	session.Transcript.Clear()
	session.dropQuizRun()
	if conversationID := session.dropConversation(); conversationID != "" {
		uc.connector.EndConversation(conversationID)
	}

	ctxzap.Info(ctx, "transcript cleared", zap.String("session_id", sessionID))
	return nil
}

// GetSessionResult returns the last exportable content (flashcards,
// roadmap or a finished quiz summary) as plain markdown text.
func (uc *ChatUsecase) GetSessionResult(ctx context.Context, sessionID string) (string, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return "", err
	}

	result := session.exportableText()
	if result == "" {
		return "", entity.ErrNoResult
	}
	return result, nil
}

// TranscribeClip converts a recorded clip to text for the input field.
func (uc *ChatUsecase) TranscribeClip(ctx context.Context, sessionID string, audio []byte, filename string) (string, error) {
	if _, err := uc.getSession(sessionID); err != nil {
		return "", err
	}
	return uc.voice.Transcribe(ctx, audio, filename)
}

// SpeakMessage reads a bot message aloud and returns the audio.
func (uc *ChatUsecase) SpeakMessage(ctx context.Context, sessionID, messageID string) ([]byte, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	msg, ok := session.Transcript.Find(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: message %s", entity.ErrInvalidParameter, messageID)
	}
	if msg.Origin != entity.MessageOriginBot {
		return nil, fmt.Errorf("%w: only bot messages can be spoken", entity.ErrInvalidParameter)
	}
	if msg.Text == "" {
		return nil, fmt.Errorf("%w: message has no text", entity.ErrInvalidParameter)
	}

	return uc.voice.Speak(ctx, msg.Text)
}

func (uc *ChatUsecase) getSession(sessionID string) (*Session, error) {
	value, ok := uc.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, sessionID)
	}
	// Refresh the idle TTL on every access.
	uc.sessions.Set(sessionID, value, gocache.DefaultExpiration)
	return value.(*Session), nil
}

func botMessage(text string) entity.Message {
	return entity.Message{
		ID:        uuid.New().String(),
		Origin:    entity.MessageOriginBot,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
