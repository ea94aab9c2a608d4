package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application/usecase"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

// Config Telegram 适配器配置
type Config struct {
	BotToken       string
	AllowedUserIDs []int64
	Debug          bool
}

// Adapter 把一个 Telegram 私聊映射成一局游戏：/pick 选会话，
// 普通文本走完整的计分发送流程，测验用数字作答。
type Adapter struct {
	bot           *tgbotapi.BotAPI
	config        *Config
	conversations *usecase.ConversationUseCase
	sender        *usecase.SendMessageUseCase
	quizzes       *usecase.QuizFlowUseCase
	logger        *zap.Logger

	mu     sync.RWMutex
	picked map[int64]string // chatID -> conversationID
	cancel context.CancelFunc
}

// NewAdapter 创建 Telegram 适配器
func NewAdapter(
	config *Config,
	conversations *usecase.ConversationUseCase,
	sender *usecase.SendMessageUseCase,
	quizzes *usecase.QuizFlowUseCase,
	logger *zap.Logger,
) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = config.Debug

	logger.Info("Telegram bot authorized",
		zap.String("username", bot.Self.UserName),
	)

	return &Adapter{
		bot:           bot,
		config:        config,
		conversations: conversations,
		sender:        sender,
		quizzes:       quizzes,
		logger:        logger,
		picked:        make(map[int64]string),
	}, nil
}

// Start 启动 polling
func (a *Adapter) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	innerCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.setupBotCommands(); err != nil {
		a.logger.Warn("Failed to setup bot commands", zap.Error(err))
	}

	updates := a.bot.GetUpdatesChan(u)

	a.logger.Info("Starting Telegram polling")

	go func() {
		for {
			select {
			case <-innerCtx.Done():
				a.bot.StopReceivingUpdates()
				a.logger.Info("Telegram adapter stopped")
				return
			case update := <-updates:
				go a.handleUpdate(innerCtx, update)
			}
		}
	}()

	return nil
}

// Stop 停止适配器
func (a *Adapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *Adapter) setupBotCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "chats", Description: "📇 联系人列表"},
		{Command: "pick", Description: "💬 选择聊天对象"},
		{Command: "quiz", Description: "📝 查看当前测验"},
		{Command: "reset", Description: "🔄 重置当前会话"},
		{Command: "next", Description: "➡️ 下一位联系人"},
		{Command: "help", Description: "❓ 帮助"},
	}
	_, err := a.bot.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	if !a.isAllowedUser(msg.From.ID) {
		a.logger.Warn("Unauthorized access",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}
	a.handleText(ctx, msg)
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		a.reply(msg.Chat.ID, helpText)
	case "chats":
		a.cmdChats(ctx, msg.Chat.ID)
	case "pick":
		a.cmdPick(ctx, msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	case "quiz":
		a.cmdQuiz(msg.Chat.ID)
	case "reset":
		a.cmdReset(ctx, msg.Chat.ID)
	case "next":
		a.cmdNext(ctx, msg.Chat.ID)
	default:
		a.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

const helpText = `Heartline: keep the conversation alive.

/chats — list contacts
/pick <name> — start texting someone
/quiz — show the pending quiz
/reset — wipe the chat and start over
/next — move on after a completed chat

Just type to send a message. Answer quizzes with the option number.`

func (a *Adapter) cmdChats(ctx context.Context, chatID int64) {
	views, err := a.conversations.List(ctx)
	if err != nil {
		a.replyError(chatID, err)
		return
	}

	var b strings.Builder
	b.WriteString("Contacts:\n")
	for _, v := range views {
		state := "🔒"
		switch {
		case v.Complete:
			state = "💞"
		case v.Unlocked:
			state = "💬"
		}
		b.WriteString(fmt.Sprintf("%s %s — %s %d%%\n", state, v.Name, hearts(v.Lives), v.Progress))
	}
	b.WriteString("\nUse /pick <name> to start texting.")
	a.reply(chatID, b.String())
}

func (a *Adapter) cmdPick(ctx context.Context, chatID int64, query string) {
	if query == "" {
		a.reply(chatID, "Who? Use /pick <name>.")
		return
	}

	views, err := a.conversations.Search(ctx, query)
	if err != nil || len(views) == 0 {
		a.reply(chatID, fmt.Sprintf("No contact matching %q.", query))
		return
	}

	v := views[0]
	if !v.Unlocked {
		a.reply(chatID, fmt.Sprintf("%s is still locked. Win over the earlier contacts first.", v.Name))
		return
	}

	a.mu.Lock()
	a.picked[chatID] = v.ID
	a.mu.Unlock()

	a.reply(chatID, fmt.Sprintf("Now texting %s. %s %d%%", v.Name, hearts(v.Lives), v.Progress))
}

func (a *Adapter) cmdQuiz(chatID int64) {
	convID, ok := a.pickedFor(chatID)
	if !ok {
		a.reply(chatID, "Pick a contact first with /pick.")
		return
	}

	quiz, err := a.quizzes.Current(convID)
	if err != nil {
		a.reply(chatID, "No quiz pending.")
		return
	}
	a.reply(chatID, formatQuiz(quiz.Persona, quiz.Questions[0].Text, quiz.Questions[0].Options))
}

func (a *Adapter) cmdReset(ctx context.Context, chatID int64) {
	convID, ok := a.pickedFor(chatID)
	if !ok {
		a.reply(chatID, "Pick a contact first with /pick.")
		return
	}

	view, err := a.conversations.Reset(ctx, convID)
	if err != nil {
		a.replyError(chatID, err)
		return
	}
	a.reply(chatID, fmt.Sprintf("Chat with %s wiped. Fresh start at %d%%.", view.Name, view.Progress))
}

func (a *Adapter) cmdNext(ctx context.Context, chatID int64) {
	convID, ok := a.pickedFor(chatID)
	if !ok {
		a.reply(chatID, "Pick a contact first with /pick.")
		return
	}

	next, err := a.conversations.NextUnlocked(ctx, convID)
	if err != nil {
		a.reply(chatID, "Nobody new yet. Keep this conversation going.")
		return
	}

	a.mu.Lock()
	a.picked[chatID] = next.ID
	a.mu.Unlock()
	a.reply(chatID, fmt.Sprintf("Now texting %s. %s %d%%", next.Name, hearts(next.Lives), next.Progress))
}

// handleText routes free text: digits answer an open quiz, anything else is
// a scored message.
func (a *Adapter) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	convID, ok := a.pickedFor(chatID)
	if !ok {
		a.reply(chatID, "Pick a contact first with /pick. See /chats.")
		return
	}

	text := strings.TrimSpace(msg.Text)

	if n, err := strconv.Atoi(text); err == nil {
		if _, quizErr := a.quizzes.Current(convID); quizErr == nil {
			a.answerQuiz(ctx, chatID, convID, n)
			return
		}
	}

	result, err := a.sender.Execute(ctx, convID, text)
	if err != nil {
		a.replyError(chatID, err)
		return
	}

	if result.Blocked {
		a.reply(chatID, "🧭 "+result.Warning.Text)
		return
	}

	var b strings.Builder
	if result.Reply != nil {
		b.WriteString(result.Reply.Text)
	}
	if tr := result.Transition; tr != nil {
		if tr.LostLife {
			b.WriteString("\n\n💔 You lost a life. The chat starts over.")
		}
		if tr.UnlockedNextID != "" {
			b.WriteString("\n\n🔓 A new contact is interested in you! See /chats.")
		}
		if tr.Completed {
			b.WriteString("\n\n🎉 You won them over! Use /next to move on.")
		}
		b.WriteString(fmt.Sprintf("\n\n%s %d%%", hearts(tr.Lives), tr.Displayed))
	}
	if result.Warning != nil {
		b.WriteString("\n🧭 " + result.Warning.Text)
	}
	a.reply(chatID, strings.TrimSpace(b.String()))

	if result.Quiz != nil {
		q := result.Quiz.Questions[0]
		a.reply(chatID, formatQuiz(result.Quiz.Persona, q.Text, q.Options))
	}
}

func (a *Adapter) answerQuiz(ctx context.Context, chatID int64, convID string, answer int) {
	// Options are shown 1-based.
	outcome, err := a.quizzes.Submit(ctx, convID, []int{answer - 1})
	if err != nil {
		a.replyError(chatID, err)
		return
	}

	if outcome.Passed {
		a.reply(chatID, fmt.Sprintf("✅ Passed! The cap is lifted. %s %d%%", hearts(outcome.Lives), outcome.Displayed))
		return
	}
	text := fmt.Sprintf("❌ Not quite. %s %d%%", hearts(outcome.Lives), outcome.Displayed)
	if outcome.LostLife {
		text = fmt.Sprintf("💔 Wrong, and it cost you a life. %s %d%%", hearts(outcome.Lives), outcome.Displayed)
	}
	a.reply(chatID, text)
}

func (a *Adapter) pickedFor(chatID int64) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.picked[chatID]
	return id, ok
}

func (a *Adapter) isAllowedUser(userID int64) bool {
	if len(a.config.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range a.config.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (a *Adapter) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error("Failed to send Telegram message", zap.Error(err))
	}
}

func (a *Adapter) replyError(chatID int64, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
		a.reply(chatID, "⚠️ "+appErr.Message)
		return
	}
	a.logger.Error("Telegram command failed", zap.Error(err))
	a.reply(chatID, "Something went wrong. Try again.")
}

func formatQuiz(persona, question string, options []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📝 Quiz time! Prove you get %s.\n\n%s\n", persona, question))
	for i, opt := range options {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, opt))
	}
	b.WriteString("\nAnswer with the option number.")
	return b.String()
}

func hearts(lives int) string {
	const max = 3
	var b strings.Builder
	for i := 0; i < max; i++ {
		if i < lives {
			b.WriteString("❤️")
		} else {
			b.WriteString("🖤")
		}
	}
	return b.String()
}
