package chat

import (
	"context"
	"fmt"

	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/quiz"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// SelectQuizOption grades an option against the current question.
func (uc *ChatUsecase) SelectQuizOption(ctx context.Context, sessionID string, option int) (*entity.QuizProgressDTO, error) {
	_, run, err := uc.activeQuiz(sessionID)
	if err != nil {
		return nil, err
	}

	if err := run.Select(option); err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "quiz option selected",
		zap.Int("question_index", run.QuestionIndex()),
		zap.Int("option", option),
		zap.Int("score", run.Score()),
	)

	progress := run.Progress()
	return &progress, nil
}

// AdvanceQuiz moves to the next question; finishing the last one
// completes the run and appends the summary to the transcript.
func (uc *ChatUsecase) AdvanceQuiz(ctx context.Context, sessionID string) (*entity.QuizProgressDTO, error) {
	session, run, err := uc.activeQuiz(sessionID)
	if err != nil {
		return nil, err
	}

	done, err := run.Advance()
	if err != nil {
		return nil, err
	}

	if done {
		uc.finishQuiz(ctx, session, run, fmt.Sprintf("Quiz %q complete! Your score: %s.", run.Title(), run.Summary()))
	}

	progress := run.Progress()
	return &progress, nil
}

// AbandonQuiz ends the run early. The summary covers only the
// questions that were actually answered.
func (uc *ChatUsecase) AbandonQuiz(ctx context.Context, sessionID string) (*entity.QuizProgressDTO, error) {
	session, run, err := uc.activeQuiz(sessionID)
	if err != nil {
		return nil, err
	}

	run.Abandon()
	uc.finishQuiz(ctx, session, run, fmt.Sprintf("Quiz %q ended early. Score so far: %s.", run.Title(), run.Summary()))

	progress := run.Progress()
	return &progress, nil
}

func (uc *ChatUsecase) activeQuiz(sessionID string) (*Session, *quiz.Run, error) {
	session, err := uc.getSession(sessionID)
	if err != nil {
		return nil, nil, err
	}

	run := session.quizRun()
	if run == nil {
		return nil, nil, entity.ErrNoActiveQuiz
	}
	return session, run, nil
}

// finishQuiz appends the summary bot message, records it as the
// exportable result and releases the run slot.
func (uc *ChatUsecase) finishQuiz(ctx context.Context, session *Session, run *quiz.Run, summaryText string) {
	msg := botMessage(summaryText)
	session.Transcript.Append(msg)
	session.setExportable(summaryText)
	session.dropQuizRun()

	ctxzap.Info(ctx, "quiz finished",
		zap.String("title", run.Title()),
		zap.String("summary", run.Summary()),
	)
}
