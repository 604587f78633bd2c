package quiz

import (
	"fmt"

	"github.com/azmilabs/tutor-agent/internal/entity"
)

// Run is a single pass over one quiz. It is a plain state machine:
// PRESENTING -> ANSWERED (Select) -> PRESENTING or COMPLETED (Advance),
// with Abandon short-circuiting to COMPLETED from anywhere.
type Run struct {
	quiz     entity.Quiz
	state    entity.QuizState
	index    int
	selected int
	score    int
	answered int
}

// NewRun validates the quiz and positions it on the first question.
func NewRun(q *entity.Quiz) (*Run, error) {
	if q == nil || len(q.Questions) == 0 {
		return nil, entity.ErrEmptyQuiz
	}
	return &Run{
		quiz:     *q,
		state:    entity.QuizStatePresenting,
		selected: -1,
	}, nil
}

func (r *Run) State() entity.QuizState { return r.state }

func (r *Run) Title() string { return r.quiz.Title }

func (r *Run) QuestionIndex() int { return r.index }

func (r *Run) QuestionCount() int { return len(r.quiz.Questions) }

func (r *Run) Current() entity.QuizQuestion { return r.quiz.Questions[r.index] }

func (r *Run) Score() int { return r.score }

// AnsweredCount is the number of questions that received a graded
// selection, which can be fewer than QuestionCount after an abandon.
func (r *Run) AnsweredCount() int { return r.answered }

// Select grades the given option against the current question. A
// repeated selection on an already answered question is a no-op, so a
// double tap cannot change the score or the recorded choice.
func (r *Run) Select(option int) error {
	switch r.state {
	case entity.QuizStateCompleted:
		return entity.ErrQuizCompleted
	case entity.QuizStateAnswered:
		return nil
	}

	question := r.quiz.Questions[r.index]
	if option < 0 || option >= len(question.Options) {
		return fmt.Errorf("%w: %d (question has %d options)", entity.ErrOptionOutOfRange, option, len(question.Options))
	}

	r.selected = option
	r.answered++
	if option == question.CorrectIndex {
		r.score++
	}
	r.state = entity.QuizStateAnswered
	return nil
}

// Advance moves past an answered question. It reports whether the run
// just completed. Advancing an unanswered question is refused: the
// learner has to commit a choice and see the feedback first.
func (r *Run) Advance() (bool, error) {
	switch r.state {
	case entity.QuizStateCompleted:
		return false, entity.ErrQuizCompleted
	case entity.QuizStatePresenting:
		return false, fmt.Errorf("wrong action on state '%s': %w", r.state, entity.ErrQuestionUnanswered)
	}

	if r.index == len(r.quiz.Questions)-1 {
		r.state = entity.QuizStateCompleted
		return true, nil
	}

	r.index++
	r.selected = -1
	r.state = entity.QuizStatePresenting
	return false, nil
}

// Abandon completes the run immediately, keeping the score accrued so
// far. Abandoning a completed run changes nothing.
func (r *Run) Abandon() {
	r.state = entity.QuizStateCompleted
}

// Summary reports the score over the questions that were actually
// answered, e.g. "3 / 5".
func (r *Run) Summary() string {
	return fmt.Sprintf("%d / %d", r.score, r.answered)
}

// Progress snapshots the run for clients. Grading feedback (correct
// index, explanation) is exposed only once the question is answered.
func (r *Run) Progress() entity.QuizProgressDTO {
	dto := entity.QuizProgressDTO{
		State:         r.state,
		QuestionIndex: r.index,
		QuestionCount: len(r.quiz.Questions),
		Score:         r.score,
	}

	switch r.state {
	case entity.QuizStateAnswered:
		selected := r.selected
		correct := r.quiz.Questions[r.index].CorrectIndex
		dto.SelectedOption = &selected
		dto.CorrectIndex = &correct
		dto.Explanation = r.quiz.Questions[r.index].Explanation
	case entity.QuizStateCompleted:
		dto.Summary = r.Summary()
	}

	return dto
}
