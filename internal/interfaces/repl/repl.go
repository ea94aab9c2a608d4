package repl

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application/usecase"
	"github.com/heartline/heartline/internal/interfaces/cli"
)

// REPL is the line-based play surface: pick a contact, type to text them,
// answer quizzes inline.
type REPL struct {
	conversations *usecase.ConversationUseCase
	sender        *usecase.SendMessageUseCase
	quizzes       *usecase.QuizFlowUseCase
	renderer      *cli.Renderer
	logger        *zap.Logger

	currentID   string
	currentName string
}

// New creates a REPL instance.
func New(
	conversations *usecase.ConversationUseCase,
	sender *usecase.SendMessageUseCase,
	quizzes *usecase.QuizFlowUseCase,
	logger *zap.Logger,
) *REPL {
	return &REPL{
		conversations: conversations,
		sender:        sender,
		quizzes:       quizzes,
		renderer:      cli.NewRenderer(80),
		logger:        logger,
	}
}

// Run starts the play loop.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Println(r.renderer.Banner())
	r.showRoster(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		prompt := "heartline"
		if r.currentName != "" {
			prompt = r.currentName
		}
		fmt.Printf("%s> ", prompt)

		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if handled, exit := r.handleCommand(ctx, input); handled {
			if exit {
				return nil
			}
			continue
		}

		if r.currentID == "" {
			fmt.Println("Pick a contact first: /pick <name>")
			continue
		}

		if n, err := strconv.Atoi(input); err == nil {
			if _, quizErr := r.quizzes.Current(r.currentID); quizErr == nil {
				r.answerQuiz(ctx, []int{n - 1})
				continue
			}
		}

		r.sendMessage(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	fmt.Println("\nGoodbye!")
	return nil
}

// handleCommand processes built-in commands. Returns (handled, shouldExit).
func (r *REPL) handleCommand(ctx context.Context, input string) (bool, bool) {
	if !strings.HasPrefix(input, "/") {
		return false, false
	}
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "/exit", "/quit", "/q":
		fmt.Println("Goodbye!")
		return true, true

	case "/chats":
		r.showRoster(ctx)

	case "/pick":
		r.pick(ctx, arg)

	case "/new":
		if arg == "" {
			fmt.Println("Usage: /new <name>")
			break
		}
		view, created, err := r.conversations.Create(ctx, arg, "", "")
		if err != nil {
			r.fail(err)
			break
		}
		if created {
			fmt.Printf("Added %s to your contacts.\n", view.Name)
		} else {
			fmt.Printf("%s is already in your contacts.\n", view.Name)
		}

	case "/reset":
		if r.currentID == "" {
			fmt.Println("Pick a contact first: /pick <name>")
			break
		}
		view, err := r.conversations.Reset(ctx, r.currentID)
		if err != nil {
			r.fail(err)
			break
		}
		fmt.Printf("Chat with %s wiped. Fresh start.\n%s %s\n",
			view.Name, r.renderer.Hearts(view.Lives), r.renderer.ProgressBar(view.Progress))

	case "/quiz":
		if r.currentID == "" {
			fmt.Println("Pick a contact first: /pick <name>")
			break
		}
		quiz, err := r.quizzes.Current(r.currentID)
		if err != nil {
			fmt.Println("No quiz pending.")
			break
		}
		fmt.Println(r.renderer.Quiz(quiz))

	case "/next":
		if r.currentID == "" {
			fmt.Println("Pick a contact first: /pick <name>")
			break
		}
		next, err := r.conversations.NextUnlocked(ctx, r.currentID)
		if err != nil {
			fmt.Println("Nobody new yet. Keep this conversation going.")
			break
		}
		r.currentID = next.ID
		r.currentName = next.Name
		fmt.Printf("Now texting %s.\n", next.Name)
		r.showHistory(ctx)

	case "/help":
		fmt.Println("\n  /chats         list contacts")
		fmt.Println("  /pick <name>   start texting someone")
		fmt.Println("  /new <name>    add a contact")
		fmt.Println("  /quiz          show the pending quiz")
		fmt.Println("  /reset         wipe the chat and start over")
		fmt.Println("  /next          move on after a completed chat")
		fmt.Println("  /exit          quit")
		fmt.Println("\n  Type anything else to send it. Answer quizzes with the option number.")

	default:
		fmt.Println("Unknown command. /help lists commands.")
	}
	return true, false
}

func (r *REPL) pick(ctx context.Context, query string) {
	if query == "" {
		fmt.Println("Usage: /pick <name>")
		return
	}
	views, err := r.conversations.Search(ctx, query)
	if err != nil || len(views) == 0 {
		fmt.Printf("No contact matching %q.\n", query)
		return
	}
	v := views[0]
	if !v.Unlocked {
		fmt.Printf("%s is still locked. Win over the earlier contacts first.\n", v.Name)
		return
	}
	r.currentID = v.ID
	r.currentName = v.Name
	fmt.Printf("Now texting %s. %s %s\n", v.Name, r.renderer.Hearts(v.Lives), r.renderer.ProgressBar(v.Progress))
	r.showHistory(ctx)
}

func (r *REPL) showRoster(ctx context.Context) {
	views, err := r.conversations.List(ctx)
	if err != nil {
		r.fail(err)
		return
	}
	fmt.Println(r.renderer.Roster(views))
}

func (r *REPL) showHistory(ctx context.Context) {
	msgs, err := r.conversations.Messages(ctx, r.currentID)
	if err != nil {
		return
	}
	for _, m := range msgs {
		fmt.Println(r.renderer.Bubble(r.currentName, m.Text, m.Author == "me"))
	}
}

func (r *REPL) sendMessage(ctx context.Context, text string) {
	result, err := r.sender.Execute(ctx, r.currentID, text)
	if err != nil {
		r.fail(err)
		return
	}

	if result.Blocked {
		fmt.Println(r.renderer.Narrator(result.Warning.Text, false))
		return
	}

	fmt.Println(r.renderer.Bubble(r.currentName, text, true))

	if result.Reply != nil {
		fmt.Println(r.renderer.Bubble(r.currentName, result.Reply.Text, false))
	}

	if tr := result.Transition; tr != nil {
		fmt.Printf("%s %s\n", r.renderer.Hearts(tr.Lives), r.renderer.ProgressBar(tr.Displayed))
		if tr.LostLife {
			fmt.Println(r.renderer.Narrator("You lost a life. The chat starts over.", true))
		}
		if tr.UnlockedNextID != "" {
			fmt.Println("🔓 A new contact is interested in you! See /chats.")
		}
		if tr.Completed {
			fmt.Println("🎉 You won them over! Use /next to move on.")
		}
	}

	if result.Warning != nil && !result.Blocked {
		fmt.Println(r.renderer.Narrator(result.Warning.Text, result.Warning.Critical))
	}

	if result.Quiz != nil {
		fmt.Println(r.renderer.Quiz(result.Quiz))
	}
}

func (r *REPL) answerQuiz(ctx context.Context, answers []int) {
	outcome, err := r.quizzes.Submit(ctx, r.currentID, answers)
	if err != nil {
		r.fail(err)
		return
	}

	if outcome.Passed {
		fmt.Println("✅ Passed! The cap is lifted.")
	} else if outcome.LostLife {
		fmt.Println(r.renderer.Narrator("Wrong, and it cost you a life.", true))
	} else {
		fmt.Println("❌ Not quite. The meter takes a hit.")
	}
	fmt.Printf("%s %s\n", r.renderer.Hearts(outcome.Lives), r.renderer.ProgressBar(outcome.Displayed))
}

func (r *REPL) fail(err error) {
	fmt.Printf("Error: %v\n", err)
	r.logger.Debug("REPL command failed", zap.Error(err))
}
