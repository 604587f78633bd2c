package transcript

import (
	"sync"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

// Log is the append-only message history of one session. Existing
// entries are never edited; the only other mutation is a full reset.
type Log struct {
	mu       sync.Mutex
	messages []entity.Message
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(msg entity.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// All returns a copy so callers can't mutate history behind the lock.
func (l *Log) All() []entity.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Find returns the message with the given id, if present.
func (l *Log) Find(id string) (entity.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return entity.Message{}, false
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}
