package chat

import (
	"sync"
	"time"

	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/quiz"
	"github.com/azmilabs/tutor-agent/internal/transcript"
	"github.com/google/uuid"
)

// Session is one tutoring conversation. The remote conversation handle
// is created lazily on the first send and dropped on clear; at most
// one send is in flight at a time.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Transcript *transcript.Log

	mu             sync.Mutex
	conversationID string
	run            *quiz.Run
	inFlight       bool
	configReported bool
	exportable     string
}

func newSession() *Session {
	return &Session{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Transcript: transcript.NewLog(),
	}
}

// beginSend claims the single send slot.
func (s *Session) beginSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return entity.ErrSendInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Session) endSend() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) conversationHandle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Session) setConversationHandle(id string) {
	s.mu.Lock()
	s.conversationID = id
	s.mu.Unlock()
}

// dropConversation forgets the remote handle and returns it so the
// caller can release connector-side state.
func (s *Session) dropConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.conversationID
	s.conversationID = ""
	return id
}

func (s *Session) quizRun() *quiz.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// startQuizRun installs a run unless one is already active.
func (s *Session) startQuizRun(run *quiz.Run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return false
	}
	s.run = run
	return true
}

func (s *Session) dropQuizRun() {
	s.mu.Lock()
	s.run = nil
	s.mu.Unlock()
}

// markConfigReported reports whether this is the first time the
// missing-credentials condition is surfaced for this session.
func (s *Session) markConfigReported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configReported {
		return false
	}
	s.configReported = true
	return true
}

func (s *Session) setExportable(text string) {
	s.mu.Lock()
	s.exportable = text
	s.mu.Unlock()
}

func (s *Session) exportableText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportable
}

func (s *Session) toDTO() *entity.SessionDTO {
	s.mu.Lock()
	quizActive := s.run != nil
	s.mu.Unlock()
	return &entity.SessionDTO{
		ID:           s.ID,
		MessageCount: s.Transcript.Len(),
		QuizActive:   quizActive,
		CreatedAt:    s.CreatedAt,
	}
}
