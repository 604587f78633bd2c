package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

// The model is instructed to emit structured payloads inside a ```json
// fence, but replies are not always well-formed: the fence tag can be
// missing, or the JSON can sit bare inside prose. Extraction therefore
// prefers a fenced block and falls back to the widest brace span.
var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	anyFenceRe  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// Extract scans a raw model reply for an embedded structured payload
// and classifies it by shape. It never fails: any reply that does not
// contain a recognizable payload yields nil and the caller treats the
// reply as plain text.
func Extract(raw string) *entity.StructuredContent {
	candidate, ok := candidateSpan(raw)
	if !ok {
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil
	}

	// Shape discrimination by field presence, checked in a fixed order.
	switch {
	case hasField(probe, "questions"):
		var quiz entity.Quiz
		if err := json.Unmarshal([]byte(candidate), &quiz); err != nil {
			return nil
		}
		return &entity.StructuredContent{Kind: entity.ContentKindQuiz, Quiz: &quiz}
	case hasField(probe, "cards"):
		var cards entity.Flashcards
		if err := json.Unmarshal([]byte(candidate), &cards); err != nil {
			return nil
		}
		return &entity.StructuredContent{Kind: entity.ContentKindFlashcards, Flashcards: &cards}
	case hasField(probe, "steps"):
		var roadmap entity.Roadmap
		if err := json.Unmarshal([]byte(candidate), &roadmap); err != nil {
			return nil
		}
		return &entity.StructuredContent{Kind: entity.ContentKindRoadmap, Roadmap: &roadmap}
	default:
		return nil
	}
}

// candidateSpan picks the substring that will be parsed as JSON.
// A fenced block wins over the bare brace span.
func candidateSpan(raw string) (string, bool) {
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := anyFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	open := strings.Index(raw, "{")
	close := strings.LastIndex(raw, "}")
	if open == -1 || close == -1 || close < open {
		return "", false
	}
	return raw[open : close+1], true
}

func hasField(probe map[string]json.RawMessage, name string) bool {
	_, ok := probe[name]
	return ok
}
