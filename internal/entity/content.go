package entity

// Structured widgets the tutor can embed into a reply as JSON.
// Field names match the wire contract the model is instructed to emit,
// so these types double as the parse targets for extracted payloads.

type ContentKind string

const (
	ContentKindQuiz       ContentKind = "QUIZ"
	ContentKindFlashcards ContentKind = "FLASHCARDS"
	ContentKindRoadmap    ContentKind = "ROADMAP"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

type QuizQuestion struct {
	Question     string       `json:"question"`
	Type         QuestionType `json:"type"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correctIndex"`
	Explanation  string       `json:"explanation"`
}

type Quiz struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

type Flashcard struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Icon    string `json:"icon,omitempty"`
}

type Flashcards struct {
	Topic string      `json:"topic"`
	Cards []Flashcard `json:"cards"`
}

type RoadmapStep struct {
	Step     string `json:"step"`
	Details  string `json:"details"`
	Duration string `json:"duration,omitempty"`
}

type Roadmap struct {
	Goal  string        `json:"goal"`
	Steps []RoadmapStep `json:"steps"`
}

// StructuredContent is a tagged union: exactly one payload is set,
// matching Kind.
type StructuredContent struct {
	Kind       ContentKind `json:"kind"`
	Quiz       *Quiz       `json:"quiz,omitempty"`
	Flashcards *Flashcards `json:"flashcards,omitempty"`
	Roadmap    *Roadmap    `json:"roadmap,omitempty"`
}
