package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Transcriber interface {
	TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error)
}

type Synthesizer interface {
	SynthesizeText(ctx context.Context, text string) ([]byte, error)
}

// Bridge adapts the speech service to the session: dictation is a
// cancelable transcript stream, playback allows at most one utterance
// at a time. A new Speak cancels whatever is still being synthesized.
type Bridge struct {
	transcriber Transcriber
	synthesizer Synthesizer
	logger      *zap.Logger

	mu          sync.Mutex
	generation  uint64
	cancelSpeak context.CancelFunc
}

func NewBridge(transcriber Transcriber, synthesizer Synthesizer, logger *zap.Logger) *Bridge {
	return &Bridge{
		transcriber: transcriber,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Transcribe handles a one-shot clip outside a dictation stream.
func (b *Bridge) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	return b.transcriber.TranscribeBytes(ctx, audioData, filename)
}

// Speak synthesizes the text, cancelling any utterance still in
// flight first.
func (b *Bridge) Speak(ctx context.Context, text string) ([]byte, error) {
	sctx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	if b.cancelSpeak != nil {
		b.cancelSpeak()
	}
	b.generation++
	gen := b.generation
	b.cancelSpeak = cancel
	b.mu.Unlock()

	audio, err := b.synthesizer.SynthesizeText(sctx, text)

	b.mu.Lock()
	if b.generation == gen {
		b.cancelSpeak = nil
	}
	b.mu.Unlock()
	cancel()

	if err != nil {
		if sctx.Err() != nil {
			return nil, fmt.Errorf("utterance cancelled: %w", sctx.Err())
		}
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	ctxzap.Debug(ctx, "utterance synthesized", zap.Int("audio_bytes", len(audio)))
	return audio, nil
}

// StopSpeaking cancels the active utterance, if any.
func (b *Bridge) StopSpeaking() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelSpeak != nil {
		b.cancelSpeak()
		b.cancelSpeak = nil
	}
}

// Dictation is a running speech-to-text stream. Clips are submitted as
// they are recorded and final transcripts come out of Transcripts().
type Dictation struct {
	bridge *Bridge
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	stopped     bool
	transcripts chan string
}

// StartDictation opens a transcript stream. Stop releases it.
func (b *Bridge) StartDictation(ctx context.Context) *Dictation {
	dctx, cancel := context.WithCancel(ctx)
	return &Dictation{
		bridge:      b,
		ctx:         dctx,
		cancel:      cancel,
		transcripts: make(chan string, 8),
	}
}

// Transcripts streams final transcripts. The channel closes when the
// dictation is stopped.
func (d *Dictation) Transcripts() <-chan string {
	return d.transcripts
}

// Submit transcribes one clip and pushes the result onto the stream.
// The transcript is also returned directly for callers that consume it
// synchronously.
func (d *Dictation) Submit(clip []byte, filename string) (string, error) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return "", fmt.Errorf("dictation is stopped")
	}

	text, err := d.bridge.transcriber.TranscribeBytes(d.ctx, clip, filename)
	if err != nil {
		return "", fmt.Errorf("transcribe clip: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return text, nil
	}
	select {
	case d.transcripts <- text:
	default:
		return text, fmt.Errorf("transcript stream is full")
	}
	return text, nil
}

// Stop cancels in-flight transcription and closes the stream. It is
// safe to call more than once.
func (d *Dictation) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	d.cancel()
	close(d.transcripts)
}
