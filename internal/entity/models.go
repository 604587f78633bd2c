package entity

import (
	"fmt"
	"time"
)

type MessageOrigin string

const (
	MessageOriginUser MessageOrigin = "USER"
	MessageOriginBot  MessageOrigin = "BOT"
)

type AttachmentKind string

const (
	AttachmentKindImage AttachmentKind = "IMAGE"
	AttachmentKindFile  AttachmentKind = "FILE"
)

// AttachmentRef is a prepared attachment ready for a model turn.
// EncodedPayload carries the transport form and never leaves the process.
type AttachmentRef struct {
	Kind           AttachmentKind `json:"kind"`
	Name           string         `json:"name"`
	MimeType       string         `json:"mime_type"`
	Size           int64          `json:"size"`
	PreviewHandle  string         `json:"preview_handle,omitempty"`
	EncodedPayload string         `json:"-"`
}

func (a *AttachmentRef) IsImage() bool {
	return a.Kind == AttachmentKindImage
}

type Message struct {
	ID          string             `json:"id"`
	Origin      MessageOrigin      `json:"origin"`
	Text        string             `json:"text"`
	Attachments []AttachmentRef    `json:"attachments,omitempty"`
	Widget      *StructuredContent `json:"widget,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

func (rf ResultFormat) IsValid() bool {
	switch rf {
	case FormatMarkdown, FormatPDF, FormatDOCX:
		return true
	default:
		return false
	}
}

type QuizState string

const (
	QuizStatePresenting QuizState = "PRESENTING"
	QuizStateAnswered   QuizState = "ANSWERED"
	QuizStateCompleted  QuizState = "COMPLETED"
)

func (qs QuizState) Validate() error {
	switch qs {
	case QuizStatePresenting, QuizStateAnswered, QuizStateCompleted:
		return nil
	default:
		return fmt.Errorf("unknown quiz state: %s", qs)
	}
}
