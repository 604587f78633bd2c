package quiz

import (
	"errors"
	"testing"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

func sampleQuiz() *entity.Quiz {
	return &entity.Quiz{
		Title: "Go Basics",
		Questions: []entity.QuizQuestion{
			{
				Question:     "Which keyword declares a variable?",
				Type:         entity.QuestionTypeMultipleChoice,
				Options:      []string{"let", "var", "def", "dim"},
				CorrectIndex: 1,
				Explanation:  "Go uses var (or :=).",
			},
			{
				Question:     "Goroutines are OS threads.",
				Type:         entity.QuestionTypeTrueFalse,
				Options:      []string{"True", "False"},
				CorrectIndex: 1,
				Explanation:  "They are multiplexed onto OS threads.",
			},
			{
				Question:     "Which builtin appends to a slice?",
				Type:         entity.QuestionTypeMultipleChoice,
				Options:      []string{"push", "add", "append", "insert"},
				CorrectIndex: 2,
				Explanation:  "append returns the extended slice.",
			},
		},
	}
}

func TestNewRunEmptyQuiz(t *testing.T) {
	if _, err := NewRun(&entity.Quiz{Title: "empty"}); !errors.Is(err, entity.ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
	if _, err := NewRun(nil); !errors.Is(err, entity.ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz for nil quiz, got %v", err)
	}
}

func TestFullRunScore(t *testing.T) {
	run, err := NewRun(sampleQuiz())
	if err != nil {
		t.Fatalf("new run: %v", err)
	}

	answers := []int{1, 0, 2} // correct, wrong, correct

	for i, answer := range answers {
		if run.State() != entity.QuizStatePresenting {
			t.Fatalf("question %d: expected PRESENTING, got %s", i, run.State())
		}
		if err := run.Select(answer); err != nil {
			t.Fatalf("question %d: select: %v", i, err)
		}
		if run.State() != entity.QuizStateAnswered {
			t.Fatalf("question %d: expected ANSWERED, got %s", i, run.State())
		}
		done, err := run.Advance()
		if err != nil {
			t.Fatalf("question %d: advance: %v", i, err)
		}
		if wantDone := i == len(answers)-1; done != wantDone {
			t.Fatalf("question %d: done=%v, want %v", i, done, wantDone)
		}
	}

	if run.Score() != 2 {
		t.Fatalf("expected score 2, got %d", run.Score())
	}
	if run.Summary() != "2 / 3" {
		t.Fatalf("unexpected summary: %q", run.Summary())
	}
	if run.State() != entity.QuizStateCompleted {
		t.Fatalf("expected COMPLETED, got %s", run.State())
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	run, _ := NewRun(sampleQuiz())

	if err := run.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	// A second tap must not regrade or change the recorded choice.
	if err := run.Select(0); err != nil {
		t.Fatalf("repeated select: %v", err)
	}
	if run.Score() != 1 {
		t.Fatalf("expected score 1 after double select, got %d", run.Score())
	}
	progress := run.Progress()
	if progress.SelectedOption == nil || *progress.SelectedOption != 1 {
		t.Fatalf("expected recorded option 1, got %+v", progress.SelectedOption)
	}
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	run, _ := NewRun(sampleQuiz())

	if _, err := run.Advance(); !errors.Is(err, entity.ErrQuestionUnanswered) {
		t.Fatalf("expected ErrQuestionUnanswered, got %v", err)
	}
	if run.QuestionIndex() != 0 {
		t.Fatalf("index moved without an answer: %d", run.QuestionIndex())
	}
}

func TestSelectOutOfRange(t *testing.T) {
	run, _ := NewRun(sampleQuiz())

	if err := run.Select(7); !errors.Is(err, entity.ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	if run.State() != entity.QuizStatePresenting {
		t.Fatalf("state changed on rejected select: %s", run.State())
	}
	if run.AnsweredCount() != 0 {
		t.Fatalf("answered count changed on rejected select: %d", run.AnsweredCount())
	}
}

func TestAbandonKeepsAccruedScore(t *testing.T) {
	run, _ := NewRun(sampleQuiz())

	// Answer one of three correctly, then walk away.
	if err := run.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := run.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	run.Abandon()

	if run.State() != entity.QuizStateCompleted {
		t.Fatalf("expected COMPLETED after abandon, got %s", run.State())
	}
	if run.Summary() != "1 / 1" {
		t.Fatalf("expected summary over answered questions only, got %q", run.Summary())
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	run, _ := NewRun(&entity.Quiz{
		Title: "one",
		Questions: []entity.QuizQuestion{
			{Question: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	})

	if err := run.Select(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if done, err := run.Advance(); err != nil || !done {
		t.Fatalf("advance: done=%v err=%v", done, err)
	}

	if err := run.Select(1); !errors.Is(err, entity.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted on select, got %v", err)
	}
	if _, err := run.Advance(); !errors.Is(err, entity.ErrQuizCompleted) {
		t.Fatalf("expected ErrQuizCompleted on advance, got %v", err)
	}
	run.Abandon() // no-op
	if run.Score() != 1 {
		t.Fatalf("score changed after completion: %d", run.Score())
	}
}

func TestProgressHidesFeedbackBeforeAnswer(t *testing.T) {
	run, _ := NewRun(sampleQuiz())

	progress := run.Progress()
	if progress.CorrectIndex != nil || progress.Explanation != "" {
		t.Fatalf("feedback leaked before answering: %+v", progress)
	}

	_ = run.Select(2)
	progress = run.Progress()
	if progress.CorrectIndex == nil || *progress.CorrectIndex != 1 {
		t.Fatalf("expected correct index 1 after answering, got %+v", progress.CorrectIndex)
	}
	if progress.Explanation == "" {
		t.Fatal("expected explanation after answering")
	}
}
