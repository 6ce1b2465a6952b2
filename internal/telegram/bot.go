// Package telegram adapts the expense conversation to the Telegram Bot API:
// text messages and commands come in through long polling, category choices
// through inline keyboard callbacks.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"
	"fjacquet/expense-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler runs the conversation. *session.Orchestrator implements it.
type Handler interface {
	HandleMessage(ctx context.Context, user, text string) (session.Reply, error)
	HandleChoice(ctx context.Context, user string, choice models.Category) (session.Reply, error)
	Cancel(user string) session.Reply
	Categories() []models.Category
}

const (
	textUnknownCommand = "Неизвестная команда. Список команд: /help"
	textBadChoice      = "Не удалось распознать выбор. Отправьте расход заново."
	textCategories     = "Категории:"
	textHelp           = "Отправьте сумму и описание, например: 200 кофе\n" +
		"Если категорию не удастся определить, выберите её кнопкой, и я запомню выбор.\n\n" +
		"/categories - список категорий\n" +
		"/cancel - отменить ожидающий выбор"
)

// Commands is the command menu registered with Telegram.
var Commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Начать работу"},
	{Command: "help", Description: "Как записывать расходы"},
	{Command: "categories", Description: "Список категорий"},
	{Command: "cancel", Description: "Отменить выбор категории"},
}

// Bot dispatches Telegram updates to a Handler.
type Bot struct {
	api     API
	handler Handler
	logger  logging.Logger
}

// NewBot creates a Bot.
func NewBot(api API, handler Handler, logger logging.Logger) *Bot {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Bot{api: api, handler: handler, logger: logger}
}

// RegisterCommands publishes the command menu.
func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(Commands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// Run handles updates until ctx is cancelled or the channel is closed.
// Updates are handled in arrival order so one user's messages never overtake
// each other.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.logger.Info("Telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// Username identifies a Telegram user: the @username when set, otherwise the numeric id.
func Username(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return fmt.Sprintf("id%d", u.ID)
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	user := Username(m.From)
	chatID := m.Chat.ID

	if m.IsCommand() {
		b.handleCommand(chatID, user, m.Command())
		return
	}

	reply, err := b.handler.HandleMessage(ctx, user, m.Text)
	if err != nil {
		b.logger.WithError(err).Error("Failed to handle expense message",
			logging.F(logging.FieldUser, user),
			logging.F(logging.FieldChatID, chatID))
		b.sendText(chatID, failureText(err))
		return
	}
	b.sendReply(chatID, reply)
}

func (b *Bot) handleCommand(chatID int64, user, command string) {
	b.logger.Debug("Command received",
		logging.F(logging.FieldUser, user),
		logging.F(logging.FieldOperation, command))

	switch command {
	case "start":
		b.sendText(chatID, session.TextStart)
	case "help":
		b.sendText(chatID, textHelp)
	case "categories":
		b.sendText(chatID, CategoriesText(b.handler.Categories()))
	case "cancel":
		b.sendReply(chatID, b.handler.Cancel(user))
	default:
		b.sendText(chatID, textUnknownCommand)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.WithError(err).Warn("Failed to answer callback query")
	}
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	user := Username(cq.From)
	chatID := cq.Message.Chat.ID

	choice, err := DecodeChoice(cq.Data, b.handler.Categories())
	if err != nil {
		b.logger.WithError(err).Warn("Rejected callback data", logging.F(logging.FieldUser, user))
		b.sendText(chatID, textBadChoice)
		return
	}

	reply, err := b.handler.HandleChoice(ctx, user, choice)
	if err != nil {
		b.logger.WithError(err).Error("Failed to handle category choice",
			logging.F(logging.FieldUser, user),
			logging.F(logging.FieldCategory, choice))
		b.sendText(chatID, failureText(err))
		return
	}

	// A settled choice replaces the keyboard message so it cannot be pressed again.
	if reply.Kind == session.ReplyRecorded || reply.Kind == session.ReplySelectionExpired {
		edit := tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID, reply.Text)
		_, err := b.api.Send(edit)
		if err == nil {
			return
		}
		b.logger.WithError(err).Debug("Could not edit keyboard message")
	}
	b.sendReply(chatID, reply)
}

// failureText tells the user whether retrying makes sense: a failed write can
// be retried, anything else cannot.
func failureText(err error) string {
	if session.IsStorageFailure(err) {
		return session.TextStorageFailure
	}
	return session.TextInternalFailure
}

func (b *Bot) sendReply(chatID int64, reply session.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) > 0 {
		if keyboard, ok := CategoryKeyboard(reply.Options, b.handler.Categories()); ok {
			msg.ReplyMarkup = keyboard
		}
	}
	b.send(msg)
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Error("Failed to send message", logging.F(logging.FieldChatID, msg.ChatID))
	}
}

// CategoriesText lists the closed category set.
func CategoriesText(categories []models.Category) string {
	var sb strings.Builder
	sb.WriteString(textCategories)
	for _, c := range categories {
		sb.WriteString("\n• ")
		sb.WriteString(string(c))
	}
	return sb.String()
}
