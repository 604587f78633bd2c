package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a stand-in for the Gemini API used when
// ENABLE_MOCKS is set. It answers from a small set of canned replies,
// including fenced widget payloads, so the whole flow can be exercised
// offline.
type MockConnector struct {
	logger *zap.Logger

	mu    sync.Mutex
	chats map[string]int
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
		chats:  make(map[string]int),
	}
}

func (m *MockConnector) StartConversation(ctx context.Context, systemFraming string) (string, error) {
	id := uuid.New().String()
	m.mu.Lock()
	m.chats[id] = 0
	m.mu.Unlock()

	ctxzap.Info(ctx, "[MOCK] conversation started",
		zap.String("conversation_id", id),
		zap.Int("framing_length", len(systemFraming)),
	)
	return id, nil
}

func (m *MockConnector) SendTurn(ctx context.Context, conversationID, text string) (string, error) {
	m.mu.Lock()
	m.chats[conversationID]++
	turn := m.chats[conversationID]
	m.mu.Unlock()

	ctxzap.Info(ctx, "[MOCK] turn received",
		zap.String("conversation_id", conversationID),
		zap.Int("turn", turn),
	)

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "quiz"):
		return mockQuizReply, nil
	case strings.Contains(lower, "flashcard"):
		return mockFlashcardsReply, nil
	case strings.Contains(lower, "roadmap") || strings.Contains(lower, "study plan"):
		return mockRoadmapReply, nil
	default:
		return "Good question! Let's break it down step by step. " +
			"Ask me for a quiz, flashcards or a roadmap whenever you want to practice.", nil
	}
}

func (m *MockConnector) GenerateOnce(ctx context.Context, text string, attachments []entity.AttachmentRef) (string, error) {
	ctxzap.Info(ctx, "[MOCK] stateless generate",
		zap.Int("attachment_count", len(attachments)),
	)

	names := make([]string, 0, len(attachments))
	for _, att := range attachments {
		names = append(names, att.Name)
	}
	return "I looked at " + strings.Join(names, ", ") +
		". The material covers the topic well; tell me which part to explain.", nil
}

func (m *MockConnector) EndConversation(conversationID string) {
	m.mu.Lock()
	delete(m.chats, conversationID)
	m.mu.Unlock()
}

func (m *MockConnector) Close() error { return nil }

const mockQuizReply = "Here is a quick check.\n\n```json\n" +
	`{"title":"Practice Quiz","questions":[` +
	`{"question":"Which option is correct?","type":"multiple_choice","options":["A","B","C","D"],"correctIndex":1,"explanation":"B is the canned answer."},` +
	`{"question":"Mocks talk to the real API.","type":"true_false","options":["True","False"],"correctIndex":1,"explanation":"They never leave the process."}` +
	`]}` + "\n```\n"

const mockFlashcardsReply = "```json\n" +
	`{"topic":"Practice Cards","cards":[` +
	`{"title":"Term A","content":"Definition of A","icon":"book"},` +
	`{"title":"Term B","content":"Definition of B"}` +
	`]}` + "\n```\n"

const mockRoadmapReply = "```json\n" +
	`{"goal":"Master the topic","steps":[` +
	`{"step":"Foundations","details":"Cover the core ideas","duration":"1 week"},` +
	`{"step":"Practice","details":"Solve exercises daily","duration":"2 weeks"}` +
	`]}` + "\n```\n"
