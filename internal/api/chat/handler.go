package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/pkg/formatter"
	"github.com/azmilabs/tutor-agent/internal/pkg/logger"
	"github.com/azmilabs/tutor-agent/internal/pkg/response"
	"github.com/azmilabs/tutor-agent/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ChatUsecase
	validator *validator.Validator
}

func NewHandler(usecase ChatUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// StartSession handles POST /tutor-session - Start a new tutoring session
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	session, err := h.usecase.StartSession(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session started", zap.String("session_id", session.ID))
	response.Created(w, session)
}

// GetSession handles GET /tutor-session/{id} - Get session snapshot
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "GetSession")

	session, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, session)
}

// SendMessage handles POST /tutor-session/{id}/message - Send a chat turn
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "SendMessage")

	var req entity.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		ctxzap.Error(ctx, "failed to validate request", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	files, err := toFiles(req.Attachments)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid attachment encoding", err)
		return
	}

	ctxzap.Info(ctx, "sending message",
		zap.Int("text_length", len(req.Text)),
		zap.Int("attachment_count", len(files)),
	)

	msg, notices, err := h.usecase.SendMessage(ctx, sessionID, req.Text, files)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.SendMessageResponse{
		Message: msg,
		Dropped: toDroppedDTO(notices),
	})
}

// GetTranscript handles GET /tutor-session/{id}/transcript
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "GetTranscript")

	messages, err := h.usecase.GetTranscript(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.TranscriptDTO{
		SessionID: sessionID,
		Messages:  messages,
	})
}

// ClearTranscript handles DELETE /tutor-session/{id}/transcript
func (h *Handler) ClearTranscript(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "ClearTranscript")

	if err := h.usecase.ClearTranscript(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "transcript cleared")
	response.NoContent(w)
}

// SelectQuizOption handles POST /tutor-session/{id}/quiz/select
func (h *Handler) SelectQuizOption(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "SelectQuizOption")

	var req entity.QuizSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	progress, err := h.usecase.SelectQuizOption(ctx, sessionID, req.Option)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

// AdvanceQuiz handles POST /tutor-session/{id}/quiz/advance
func (h *Handler) AdvanceQuiz(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "AdvanceQuiz")

	progress, err := h.usecase.AdvanceQuiz(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, progress)
}

// AbandonQuiz handles POST /tutor-session/{id}/quiz/abandon
func (h *Handler) AbandonQuiz(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "AbandonQuiz")

	progress, err := h.usecase.AbandonQuiz(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "quiz abandoned", zap.String("summary", progress.Summary))
	response.Success(w, progress)
}

// ExportResult handles GET /tutor-session/{id}/export - Download the last
// exportable content in the requested format
func (h *Handler) ExportResult(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "ExportResult")

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = "markdown"
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		ctxzap.Warn(ctx, "invalid format parameter", zap.String("format", formatParam))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("format must be one of: markdown, pdf, docx"))
		return
	}

	result, err := h.usecase.GetSessionResult(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	factory := formatter.NewFactory()
	fmtr, err := factory.Create(format)
	if err != nil {
		ctxzap.Error(ctx, "format not implemented", zap.Error(err))
		h.respondError(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	formattedResult, err := fmtr.Format(result)
	if err != nil {
		ctxzap.Error(ctx, "failed to format result", zap.Error(err))
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to format result", err)
		return
	}

	ctxzap.Info(ctx, "result exported", zap.String("format", string(format)))
	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"study-notes-%s%s\"", sessionID, fmtr.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(formattedResult)
}

// TranscribeClip handles POST /tutor-session/{id}/voice/transcribe -
// Speech-to-text for one recorded clip
func (h *Handler) TranscribeClip(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "TranscribeClip")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "failed to parse form", err)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		ctxzap.Error(ctx, "missing audio file", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "audio file is required", err)
		return
	}
	defer file.Close()

	if err := h.validator.ValidateAudioClip(header); err != nil {
		ctxzap.Error(ctx, "failed to validate audio clip", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid audio clip", err)
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read audio", err)
		return
	}

	ctxzap.Info(ctx, "transcribing clip",
		zap.String("filename", header.Filename),
		zap.Int64("size_bytes", header.Size),
	)

	text, err := h.usecase.TranscribeClip(ctx, sessionID, audio, header.Filename)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.TranscribeResponse{Text: text})
}

// SpeakMessage handles POST /tutor-session/{id}/voice/speak -
// Text-to-speech for a bot message
func (h *Handler) SpeakMessage(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := h.sessionContext(r, "SpeakMessage")

	var req entity.SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSpeakRequest(&req); err != nil {
		ctxzap.Error(ctx, "failed to validate request", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	audio, err := h.usecase.SpeakMessage(ctx, sessionID, req.MessageID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "message spoken", zap.String("message_id", req.MessageID))
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// Helper methods

func (h *Handler) sessionContext(r *http.Request, action string) (context.Context, string) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)
	return ctx, sessionID
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrNoResult):
		h.respondError(ctx, w, http.StatusNotFound, "no exportable content", err)
	case errors.Is(err, entity.ErrSendInFlight):
		h.respondError(ctx, w, http.StatusConflict, "a send is already in flight", err)
	case errors.Is(err, entity.ErrNoActiveQuiz), errors.Is(err, entity.ErrQuizCompleted), errors.Is(err, entity.ErrQuestionUnanswered):
		h.respondError(ctx, w, http.StatusConflict, "invalid quiz state", err)
	case errors.Is(err, entity.ErrEmptyTurn), errors.Is(err, entity.ErrOptionOutOfRange),
		errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrInvalidFormat), errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrFileTooLarge), errors.Is(err, entity.ErrTooManyFiles), errors.Is(err, entity.ErrEmptyFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrConfigMissing):
		h.respondError(ctx, w, http.StatusServiceUnavailable, "tutor service is not configured", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
