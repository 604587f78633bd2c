package entity

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SessionDTO struct {
	ID           string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	QuizActive   bool      `json:"quiz_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttachmentUpload is the JSON form of a file sent with a message,
// data is base64-encoded.
type AttachmentUpload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data"`
}

type SendMessageRequest struct {
	Text        string             `json:"text"`
	Attachments []AttachmentUpload `json:"attachments,omitempty"`
}

// DroppedAttachment reports a file that was rejected while the rest
// of the batch went through.
type DroppedAttachment struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type SendMessageResponse struct {
	Message *Message            `json:"message"`
	Dropped []DroppedAttachment `json:"dropped,omitempty"`
}

type TranscriptDTO struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

type QuizSelectRequest struct {
	Option int `json:"option"`
}

// QuizProgressDTO is returned from every quiz action so the client can
// render feedback without re-fetching the transcript.
type QuizProgressDTO struct {
	State          QuizState `json:"state"`
	QuestionIndex  int       `json:"question_index"`
	QuestionCount  int       `json:"question_count"`
	Score          int       `json:"score"`
	SelectedOption *int      `json:"selected_option,omitempty"`
	CorrectIndex   *int      `json:"correct_index,omitempty"`
	Explanation    string    `json:"explanation,omitempty"`
	Summary        string    `json:"summary,omitempty"`
}

type SpeakRequest struct {
	MessageID string `json:"message_id"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

// SpeechTranscribeResponse is the wire response of the external speech
// service transcription endpoint.
type SpeechTranscribeResponse struct {
	Transcription string `json:"transcription"`
}
