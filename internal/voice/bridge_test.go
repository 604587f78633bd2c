package voice

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTranscriber struct {
	prefix string
}

func (f *fakeTranscriber) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.prefix + filename, nil
}

// blockingSynthesizer blocks until its context is cancelled or release
// is closed.
type blockingSynthesizer struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSynthesizer) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
		return []byte("audio:" + text), nil
	}
}

func TestSpeakCancelsPriorUtterance(t *testing.T) {
	synth := &blockingSynthesizer{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	bridge := NewBridge(&fakeTranscriber{}, synth, zap.NewNop())

	firstDone := make(chan error, 1)
	go func() {
		_, err := bridge.Speak(context.Background(), "first")
		firstDone <- err
	}()
	<-synth.started

	// The second utterance must kick the first one out.
	go func() {
		<-synth.started
		close(synth.release)
	}()
	audio, err := bridge.Speak(context.Background(), "second")
	if err != nil {
		t.Fatalf("second speak: %v", err)
	}
	if string(audio) != "audio:second" {
		t.Fatalf("unexpected audio: %q", audio)
	}

	select {
	case err := <-firstDone:
		if err == nil || !strings.Contains(err.Error(), "cancelled") {
			t.Fatalf("expected cancellation of first utterance, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance never finished")
	}
}

func TestStopSpeaking(t *testing.T) {
	synth := &blockingSynthesizer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	bridge := NewBridge(&fakeTranscriber{}, synth, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := bridge.Speak(context.Background(), "text")
		done <- err
	}()
	<-synth.started

	bridge.StopSpeaking()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after StopSpeaking")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Speak did not return after StopSpeaking")
	}
}

func TestDictationStream(t *testing.T) {
	bridge := NewBridge(&fakeTranscriber{prefix: "text of "}, &blockingSynthesizer{release: make(chan struct{})}, zap.NewNop())

	dictation := bridge.StartDictation(context.Background())

	text, err := dictation.Submit([]byte("clip-bytes"), "clip1.wav")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if text != "text of clip1.wav" {
		t.Fatalf("unexpected transcript: %q", text)
	}

	select {
	case streamed := <-dictation.Transcripts():
		if streamed != text {
			t.Fatalf("stream delivered %q, want %q", streamed, text)
		}
	case <-time.After(time.Second):
		t.Fatal("transcript never reached the stream")
	}

	dictation.Stop()

	if _, err := dictation.Submit([]byte("more"), "clip2.wav"); err == nil {
		t.Fatal("expected error submitting to a stopped dictation")
	}

	// The stream must be closed after Stop.
	if _, open := <-dictation.Transcripts(); open {
		t.Fatal("transcript channel still open after Stop")
	}

	dictation.Stop() // second stop is a no-op
}
