package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"go.uber.org/zap"
)

// fakeConnector is a scripted TutorConnector. SendTurn pops replies in
// order and keeps returning the last one.
type fakeConnector struct {
	mu       sync.Mutex
	replies  []string
	turnErr  error
	startErr error

	starts    int
	turns     []string
	onceCalls int
	onceAtts  []entity.AttachmentRef
	ended     []string

	entered chan struct{} // signaled when SendTurn is entered
	release chan struct{} // if set, SendTurn blocks until closed
}

func (f *fakeConnector) StartConversation(ctx context.Context, framing string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.starts++
	return "conv-1", nil
}

func (f *fakeConnector) SendTurn(ctx context.Context, conversationID, text string) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.turnErr != nil {
		return "", f.turnErr
	}
	f.turns = append(f.turns, text)

	reply := "ok"
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return reply, nil
}

func (f *fakeConnector) GenerateOnce(ctx context.Context, text string, attachments []entity.AttachmentRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onceCalls++
	f.onceAtts = attachments
	return "I looked at your file.", nil
}

func (f *fakeConnector) EndConversation(conversationID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, conversationID)
}

func (f *fakeConnector) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type fakeBridge struct {
	spoken []string
}

func (f *fakeBridge) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	return "transcript of " + filename, nil
}

func (f *fakeBridge) Speak(ctx context.Context, text string) ([]byte, error) {
	f.spoken = append(f.spoken, text)
	return []byte("audio"), nil
}

const quizReply = "Let's check your knowledge.\n```json\n" +
	`{"title":"Check","questions":[` +
	`{"question":"q1","type":"multiple_choice","options":["a","b"],"correctIndex":0,"explanation":"e1"},` +
	`{"question":"q2","type":"true_false","options":["True","False"],"correctIndex":1,"explanation":"e2"}` +
	`]}` + "\n```"

func newTestUsecase(conn TutorConnector, bridge SpeechBridge) *ChatUsecase {
	pipeline := attachment.NewPipeline(config.AttachmentConfig{
		MaxFileSize:  64,
		MaxFileCount: 4,
	}, zap.NewNop())

	return NewUsecase(conn, bridge, pipeline, config.SessionConfig{
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	}, "test framing", zap.NewNop())
}

func startSession(t *testing.T, uc *ChatUsecase) string {
	t.Helper()
	dto, err := uc.StartSession(context.Background())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return dto.ID
}

func TestSendMessageAppendsUserThenBot(t *testing.T) {
	conn := &fakeConnector{replies: []string{"Maps associate keys with values."}}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	msg, notices, err := uc.SendMessage(context.Background(), id, "explain maps", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(notices) != 0 {
		t.Fatalf("unexpected notices: %+v", notices)
	}
	if msg.Origin != entity.MessageOriginBot || msg.Text != "Maps associate keys with values." {
		t.Fatalf("unexpected bot message: %+v", msg)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Origin != entity.MessageOriginUser || transcript[1].Origin != entity.MessageOriginBot {
		t.Fatalf("wrong transcript order: %s then %s", transcript[0].Origin, transcript[1].Origin)
	}

	// The conversation is opened lazily and reused on the next turn.
	if conn.startCount() != 1 {
		t.Fatalf("expected 1 conversation start, got %d", conn.startCount())
	}
	if _, _, err := uc.SendMessage(context.Background(), id, "and slices?", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if conn.startCount() != 1 {
		t.Fatalf("conversation restarted: %d starts", conn.startCount())
	}
}

func TestSendMessageSingleFlight(t *testing.T) {
	conn := &fakeConnector{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	firstDone := make(chan error, 1)
	go func() {
		_, _, err := uc.SendMessage(context.Background(), id, "first", nil)
		firstDone <- err
	}()
	<-conn.entered

	// While the first send is in flight the second one is refused and
	// leaves no trace in the transcript.
	_, _, err := uc.SendMessage(context.Background(), id, "second", nil)
	if !errors.Is(err, entity.ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	if len(transcript) != 1 {
		t.Fatalf("expected only the first user message, got %d messages", len(transcript))
	}

	close(conn.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first send: %v", err)
	}

	transcript, _ = uc.GetTranscript(context.Background(), id)
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages after completion, got %d", len(transcript))
	}
}

func TestSendMessageEmptyTurn(t *testing.T) {
	conn := &fakeConnector{}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	_, _, err := uc.SendMessage(context.Background(), id, "   \n\t", nil)
	if !errors.Is(err, entity.ErrEmptyTurn) {
		t.Fatalf("expected ErrEmptyTurn, got %v", err)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	if len(transcript) != 0 {
		t.Fatalf("empty turn reached the transcript: %d messages", len(transcript))
	}
	if conn.startCount() != 0 {
		t.Fatal("empty turn reached the connector")
	}
}

func TestSendMessageTransportFailure(t *testing.T) {
	conn := &fakeConnector{turnErr: errors.New("upstream 503")}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	msg, _, err := uc.SendMessage(context.Background(), id, "hello", nil)
	if err != nil {
		t.Fatalf("transport failure must not surface as an error, got %v", err)
	}
	if msg.Origin != entity.MessageOriginBot || msg.Text != transportFailureText {
		t.Fatalf("expected fallback bot message, got %+v", msg)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	if len(transcript) != 2 {
		t.Fatalf("expected user + fallback messages, got %d", len(transcript))
	}

	// The session stays usable once the connector recovers.
	conn.mu.Lock()
	conn.turnErr = nil
	conn.mu.Unlock()
	msg, _, err = uc.SendMessage(context.Background(), id, "retry", nil)
	if err != nil || msg.Text != "ok" {
		t.Fatalf("session unusable after failure: msg=%+v err=%v", msg, err)
	}
	if conn.startCount() != 1 {
		t.Fatalf("conversation handle was dropped on transport failure: %d starts", conn.startCount())
	}
}

func TestConfigMissingReportedOnce(t *testing.T) {
	conn := &fakeConnector{startErr: entity.ErrConfigMissing}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	msg, _, err := uc.SendMessage(context.Background(), id, "hello", nil)
	if err != nil {
		t.Fatalf("first config failure must be a bot message, got error %v", err)
	}
	if msg.Text != configMissingText {
		t.Fatalf("unexpected message: %q", msg.Text)
	}

	// The second attempt fails fast without another transcript notice.
	_, _, err = uc.SendMessage(context.Background(), id, "hello again", nil)
	if !errors.Is(err, entity.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	botCount := 0
	for _, m := range transcript {
		if m.Origin == entity.MessageOriginBot {
			botCount++
		}
	}
	if botCount != 1 {
		t.Fatalf("config notice appended %d times", botCount)
	}
}

func TestQuizLifecycle(t *testing.T) {
	conn := &fakeConnector{replies: []string{quizReply}}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)
	ctx := context.Background()

	msg, _, err := uc.SendMessage(ctx, id, "quiz me", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Widget == nil || msg.Widget.Kind != entity.ContentKindQuiz {
		t.Fatalf("expected quiz widget, got %+v", msg.Widget)
	}

	// Correct answer on q1.
	progress, err := uc.SelectQuizOption(ctx, id, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if progress.State != entity.QuizStateAnswered || progress.Score != 1 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if progress.CorrectIndex == nil || *progress.CorrectIndex != 0 || progress.Explanation != "e1" {
		t.Fatalf("missing grading feedback: %+v", progress)
	}

	progress, err = uc.AdvanceQuiz(ctx, id)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if progress.State != entity.QuizStatePresenting || progress.QuestionIndex != 1 {
		t.Fatalf("unexpected progress after advance: %+v", progress)
	}

	// Wrong answer on q2, then finish.
	if _, err := uc.SelectQuizOption(ctx, id, 0); err != nil {
		t.Fatalf("select q2: %v", err)
	}
	progress, err = uc.AdvanceQuiz(ctx, id)
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if progress.State != entity.QuizStateCompleted || progress.Summary != "1 / 2" {
		t.Fatalf("unexpected final progress: %+v", progress)
	}

	transcript, _ := uc.GetTranscript(ctx, id)
	last := transcript[len(transcript)-1]
	if last.Origin != entity.MessageOriginBot || !strings.Contains(last.Text, "1 / 2") {
		t.Fatalf("summary message missing: %+v", last)
	}

	// The run is released: quiz actions now fail.
	if _, err := uc.SelectQuizOption(ctx, id, 0); !errors.Is(err, entity.ErrNoActiveQuiz) {
		t.Fatalf("expected ErrNoActiveQuiz, got %v", err)
	}

	// The summary is exportable.
	result, err := uc.GetSessionResult(ctx, id)
	if err != nil || !strings.Contains(result, "1 / 2") {
		t.Fatalf("expected exportable summary, got %q err=%v", result, err)
	}
}

func TestQuizAbandon(t *testing.T) {
	conn := &fakeConnector{replies: []string{quizReply}}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)
	ctx := context.Background()

	if _, _, err := uc.SendMessage(ctx, id, "quiz me", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := uc.SelectQuizOption(ctx, id, 0); err != nil {
		t.Fatalf("select: %v", err)
	}

	progress, err := uc.AbandonQuiz(ctx, id)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if progress.Summary != "1 / 1" {
		t.Fatalf("expected summary over answered questions, got %q", progress.Summary)
	}

	transcript, _ := uc.GetTranscript(ctx, id)
	last := transcript[len(transcript)-1]
	if !strings.Contains(last.Text, "1 / 1") {
		t.Fatalf("abandon summary missing from transcript: %q", last.Text)
	}
}

func TestClearTranscript(t *testing.T) {
	conn := &fakeConnector{replies: []string{quizReply}}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)
	ctx := context.Background()

	if _, _, err := uc.SendMessage(ctx, id, "quiz me", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := uc.SelectQuizOption(ctx, id, 0); err != nil {
		t.Fatalf("select: %v", err)
	}

	if err := uc.ClearTranscript(ctx, id); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// History gone, quiz discarded without a summary, conversation
	// handle released.
	transcript, _ := uc.GetTranscript(ctx, id)
	if len(transcript) != 0 {
		t.Fatalf("expected empty transcript, got %d messages", len(transcript))
	}
	if _, err := uc.SelectQuizOption(ctx, id, 0); !errors.Is(err, entity.ErrNoActiveQuiz) {
		t.Fatalf("quiz survived clear: %v", err)
	}
	if len(conn.ended) != 1 || conn.ended[0] != "conv-1" {
		t.Fatalf("conversation not ended on clear: %+v", conn.ended)
	}

	// The next send opens a fresh conversation.
	if _, _, err := uc.SendMessage(ctx, id, "hello again", nil); err != nil {
		t.Fatalf("send after clear: %v", err)
	}
	if conn.startCount() != 2 {
		t.Fatalf("expected a fresh conversation after clear, got %d starts", conn.startCount())
	}
}

func TestSendMessageWithAttachments(t *testing.T) {
	conn := &fakeConnector{}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	files := []attachment.File{
		{Name: "small.txt", MimeType: "text/plain", Data: []byte("fits")},
		{Name: "big.bin", Data: make([]byte, 128)}, // over the 64-byte test cap
	}

	msg, notices, err := uc.SendMessage(context.Background(), id, "", files)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(notices) != 1 || notices[0].Name != "big.bin" {
		t.Fatalf("expected one notice for big.bin, got %+v", notices)
	}
	if msg.Text != "I looked at your file." {
		t.Fatalf("unexpected reply: %q", msg.Text)
	}

	// Attachment turns are stateless: no conversation is opened.
	if conn.onceCalls != 1 || conn.startCount() != 0 {
		t.Fatalf("wrong routing: once=%d starts=%d", conn.onceCalls, conn.startCount())
	}
	if len(conn.onceAtts) != 1 || conn.onceAtts[0].Name != "small.txt" {
		t.Fatalf("surviving attachment not forwarded: %+v", conn.onceAtts)
	}

	transcript, _ := uc.GetTranscript(context.Background(), id)
	if len(transcript[0].Attachments) != 1 {
		t.Fatalf("user message lost its attachment: %+v", transcript[0])
	}
}

func TestAllAttachmentsRejectedAndNoText(t *testing.T) {
	conn := &fakeConnector{}
	uc := newTestUsecase(conn, &fakeBridge{})
	id := startSession(t, uc)

	files := []attachment.File{{Name: "big.bin", Data: make([]byte, 128)}}
	_, notices, err := uc.SendMessage(context.Background(), id, "", files)
	if !errors.Is(err, entity.ErrEmptyTurn) {
		t.Fatalf("expected ErrEmptyTurn when nothing survives, got %v", err)
	}
	if len(notices) != 1 {
		t.Fatalf("expected the rejection notice, got %+v", notices)
	}
}

func TestGetSessionResultEmpty(t *testing.T) {
	uc := newTestUsecase(&fakeConnector{}, &fakeBridge{})
	id := startSession(t, uc)

	if _, err := uc.GetSessionResult(context.Background(), id); !errors.Is(err, entity.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestSpeakMessage(t *testing.T) {
	conn := &fakeConnector{replies: []string{"Photosynthesis converts light into energy."}}
	bridge := &fakeBridge{}
	uc := newTestUsecase(conn, bridge)
	id := startSession(t, uc)
	ctx := context.Background()

	msg, _, err := uc.SendMessage(ctx, id, "explain photosynthesis", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	audio, err := uc.SpeakMessage(ctx, id, msg.ID)
	if err != nil || string(audio) != "audio" {
		t.Fatalf("speak: audio=%q err=%v", audio, err)
	}
	if len(bridge.spoken) != 1 || bridge.spoken[0] != msg.Text {
		t.Fatalf("wrong text spoken: %+v", bridge.spoken)
	}

	// User messages cannot be spoken.
	transcript, _ := uc.GetTranscript(ctx, id)
	if _, err := uc.SpeakMessage(ctx, id, transcript[0].ID); !errors.Is(err, entity.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for user message, got %v", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	uc := newTestUsecase(&fakeConnector{}, &fakeBridge{})

	if _, _, err := uc.SendMessage(context.Background(), "missing", "hi", nil); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := uc.GetTranscript(context.Background(), "missing"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
