package entity

import "errors"

// Domain errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSendInFlight    = errors.New("a send is already in flight")
	ErrEmptyTurn       = errors.New("message has no text and no attachments")
	ErrConfigMissing   = errors.New("tutor credentials are not configured")

	// Attachment errors
	ErrFileTooLarge = errors.New("file too large")
	ErrTooManyFiles = errors.New("too many files")
	ErrEmptyFile    = errors.New("file is empty")

	// Quiz errors
	ErrEmptyQuiz          = errors.New("quiz has no questions")
	ErrNoActiveQuiz       = errors.New("no quiz in progress")
	ErrQuizCompleted      = errors.New("quiz is already completed")
	ErrQuestionUnanswered = errors.New("current question is not answered yet")
	ErrOptionOutOfRange   = errors.New("option index out of range")

	// Export errors
	ErrNoResult = errors.New("no exportable content in session")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
