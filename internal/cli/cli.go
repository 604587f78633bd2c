package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/azmilabs/tutor-agent/internal/usecase/chat"
	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

// CLI is an interactive terminal client for a single tutoring session.
// It drives the same use case as the HTTP server, so transcripts, quiz
// runs and exports behave identically in both frontends.
type CLI struct {
	usecase   *chat.ChatUsecase
	connector io.Closer
	logger    *zap.Logger

	sessionID string
	pending   []attachment.File
	quiz      *entity.Quiz
	quizIndex int
	answered  bool
}

func New(usecase *chat.ChatUsecase, connector io.Closer, logger *zap.Logger) *CLI {
	return &CLI{
		usecase:   usecase,
		connector: connector,
		logger:    logger,
	}
}

// Run starts the read-eval loop. It returns when the user quits or the
// input stream is closed.
func (c *CLI) Run(ctx context.Context) error {
	defer func() {
		if err := c.connector.Close(); err != nil {
			c.logger.Warn("close model connector", zap.Error(err))
		}
	}()

	session, err := c.usecase.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	c.sessionID = session.ID

	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Tutor session started. Type a question, or /help for commands.")

	for {
		line, err := rl.Readline()
		if err != nil {
			// Ctrl-C clears the current line, Ctrl-D / EOF ends the session.
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if c.quizActive() && c.answered {
				c.advanceQuiz(ctx)
			}
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := c.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		if c.quizActive() && !c.answered {
			if option, convErr := strconv.Atoi(line); convErr == nil {
				c.selectQuizOption(ctx, option-1)
				continue
			}
		}

		c.sendMessage(ctx, line)
	}
}

// handleCommand dispatches a /-prefixed line. Returns true to quit.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	parts := strings.SplitN(line, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit":
		fmt.Println("Bye.")
		return true
	case "/help":
		c.printHelp()
	case "/attach":
		c.attachFile(arg)
	case "/clear":
		c.clearTranscript(ctx)
	case "/export":
		c.exportResult(ctx, arg)
	case "/dictate":
		c.dictate(ctx, arg)
	case "/abandon":
		if !c.quizActive() {
			fmt.Println("No quiz is running.")
			break
		}
		progress, err := c.usecase.AbandonQuiz(ctx, c.sessionID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		fmt.Printf("Quiz abandoned: %s\n", progress.Summary)
		c.dropQuiz()
	default:
		fmt.Printf("Unknown command %q, see /help.\n", cmd)
	}
	return false
}

func (c *CLI) printHelp() {
	fmt.Println(`Commands:
  /attach <path>   queue a file to send with the next message
  /clear           wipe the transcript and start over
  /export [path]   save the latest study notes (default notes.md)
  /dictate <wav>   transcribe an audio clip and send it as a message
  /abandon         end the current quiz early
  /quit            leave

During a quiz, answer with the option number (1, 2, ...) and press
Enter on an empty line to move to the next question.`)
}

func (c *CLI) attachFile(path string) {
	if path == "" {
		fmt.Println("Usage: /attach <path>")
		return
	}
	file, err := c.usecase.Pipeline().ReadLocal(path)
	if err != nil {
		fmt.Printf("Cannot read %s: %v\n", path, err)
		return
	}
	c.pending = append(c.pending, file)
	fmt.Printf("Queued %s (%d bytes), will be sent with your next message.\n", file.Name, len(file.Data))
}

func (c *CLI) sendMessage(ctx context.Context, text string) {
	files := c.pending
	c.pending = nil

	msg, notices, err := c.usecase.SendMessage(ctx, c.sessionID, text, files)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	for _, notice := range notices {
		fmt.Printf("(dropped %s: %v)\n", notice.Name, notice.Err)
	}

	c.renderMessage(msg)
}

func (c *CLI) renderMessage(msg *entity.Message) {
	if msg.Text != "" {
		fmt.Printf("tutor> %s\n", msg.Text)
	}

	if msg.Widget == nil {
		return
	}

	switch msg.Widget.Kind {
	case entity.ContentKindQuiz:
		c.quiz = msg.Widget.Quiz
		c.quizIndex = 0
		c.answered = false
		fmt.Printf("\n=== Quiz: %s ===\n", c.quiz.Title)
		c.renderQuestion()
	case entity.ContentKindFlashcards:
		cards := msg.Widget.Flashcards
		fmt.Printf("\n=== Flashcards: %s ===\n", cards.Topic)
		for i, card := range cards.Cards {
			fmt.Printf("%d. %s\n   %s\n", i+1, card.Title, card.Content)
		}
	case entity.ContentKindRoadmap:
		roadmap := msg.Widget.Roadmap
		fmt.Printf("\n=== Roadmap: %s ===\n", roadmap.Goal)
		for i, step := range roadmap.Steps {
			fmt.Printf("%d. %s", i+1, step.Step)
			if step.Duration != "" {
				fmt.Printf(" (%s)", step.Duration)
			}
			fmt.Printf("\n   %s\n", step.Details)
		}
	}
}

func (c *CLI) quizActive() bool { return c.quiz != nil }

func (c *CLI) dropQuiz() {
	c.quiz = nil
	c.quizIndex = 0
	c.answered = false
}

func (c *CLI) renderQuestion() {
	q := c.quiz.Questions[c.quizIndex]
	fmt.Printf("\nQuestion %d/%d: %s\n", c.quizIndex+1, len(c.quiz.Questions), q.Question)
	for i, option := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, option)
	}
	fmt.Println("Answer with the option number.")
}

func (c *CLI) selectQuizOption(ctx context.Context, option int) {
	progress, err := c.usecase.SelectQuizOption(ctx, c.sessionID, option)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	c.answered = true
	if progress.CorrectIndex != nil && progress.SelectedOption != nil {
		if *progress.SelectedOption == *progress.CorrectIndex {
			fmt.Println("Correct!")
		} else {
			fmt.Printf("Not quite, the right answer was option %d.\n", *progress.CorrectIndex+1)
		}
	}
	if progress.Explanation != "" {
		fmt.Printf("Explanation: %s\n", progress.Explanation)
	}
	fmt.Println("Press Enter to continue.")
}

func (c *CLI) advanceQuiz(ctx context.Context) {
	progress, err := c.usecase.AdvanceQuiz(ctx, c.sessionID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if progress.State == entity.QuizStateCompleted {
		fmt.Printf("Quiz complete! Score: %s\n", progress.Summary)
		c.dropQuiz()
		return
	}

	c.quizIndex = progress.QuestionIndex
	c.answered = false
	c.renderQuestion()
}

func (c *CLI) clearTranscript(ctx context.Context) {
	if err := c.usecase.ClearTranscript(ctx, c.sessionID); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	c.dropQuiz()
	c.pending = nil
	fmt.Println("Transcript cleared.")
}

func (c *CLI) exportResult(ctx context.Context, path string) {
	text, err := c.usecase.GetSessionResult(ctx, c.sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrNoResult) {
			fmt.Println("Nothing to export yet, ask for flashcards, a roadmap or finish a quiz first.")
			return
		}
		fmt.Printf("Error: %v\n", err)
		return
	}

	if path == "" {
		path = "notes.md"
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		fmt.Printf("Cannot write %s: %v\n", path, err)
		return
	}
	fmt.Printf("Saved study notes to %s.\n", filepath.Clean(path))
}

func (c *CLI) dictate(ctx context.Context, path string) {
	if path == "" {
		fmt.Println("Usage: /dictate <wav>")
		return
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Cannot read %s: %v\n", path, err)
		return
	}

	text, err := c.usecase.TranscribeClip(ctx, c.sessionID, audio, filepath.Base(path))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("you (voice)> %s\n", text)
	c.sendMessage(ctx, text)
}
