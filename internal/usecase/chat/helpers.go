package chat

import (
	"fmt"
	"strings"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

const (
	// defaultAttachmentPrompt is used when a turn carries files but no
	// text.
	defaultAttachmentPrompt = "Please analyze the attached material and explain it."

	configMissingText = "The tutor is not available: the AI service credentials are not configured. " +
		"Please contact the administrator."

	transportFailureText = "Sorry, something went wrong while contacting the tutor. Please try again."
)

// renderMarkdown flattens a widget into plain markdown for export.
func renderMarkdown(content *entity.StructuredContent) string {
	var b strings.Builder

	switch content.Kind {
	case entity.ContentKindFlashcards:
		fmt.Fprintf(&b, "# Flashcards: %s\n\n", content.Flashcards.Topic)
		for _, card := range content.Flashcards.Cards {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", card.Title, card.Content)
		}
	case entity.ContentKindRoadmap:
		fmt.Fprintf(&b, "# Roadmap: %s\n\n", content.Roadmap.Goal)
		for i, step := range content.Roadmap.Steps {
			fmt.Fprintf(&b, "%d. **%s**", i+1, step.Step)
			if step.Duration != "" {
				fmt.Fprintf(&b, " (%s)", step.Duration)
			}
			fmt.Fprintf(&b, "\n   %s\n", step.Details)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
