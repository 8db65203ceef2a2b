package telegram

import (
	"context"
	"errors"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Alectobe/TelegramCoinBot/internal/commands"
)

// BotAPI is the subset of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dispatcher executes a parsed command and returns the reply text.
type Dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request) string
}

// Messenger sends outbound messages. It satisfies scheduler.Sender and scheduler.Splitter.
type Messenger struct {
	bot BotAPI
}

// NewMessenger creates a Messenger over bot.
func NewMessenger(bot BotAPI) *Messenger {
	return &Messenger{bot: bot}
}

// Router wires Telegram updates to the command dispatcher.
type Router struct {
	*Messenger
	log  *zap.Logger
	disp Dispatcher
}

// NewRouter creates a new Telegram router.
func NewRouter(bot BotAPI, log *zap.Logger, disp Dispatcher) *Router {
	return &Router{Messenger: NewMessenger(bot), log: log, disp: disp}
}

// HandleUpdate routes a single update. Only commands are answered;
// other messages and update kinds are ignored.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	reply := r.disp.Dispatch(ctx, requestFrom(msg))
	if reply == "" {
		return
	}
	if err := r.SendMessage(msg.Chat.ID, reply); err != nil {
		r.log.Error("reply failed", zap.Int64("chat_id", msg.Chat.ID), zap.String("command", msg.Command()), zap.Error(err))
	}
}

// SendMessage sends a plain text message to the given chat, split into
// several messages if it exceeds Telegram's limit.
// Errors that retrying cannot fix (blocked bot, unknown chat) are marked permanent.
func (m *Messenger) SendMessage(chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := m.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return classify(err)
		}
	}
	return nil
}

// Split cuts text into the messages SendMessage would send, so callers can
// retry each one on its own.
func (m *Messenger) Split(text string) []string {
	return splitMessage(text, maxMessageLen)
}

func classify(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		switch tgErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return backoff.Permanent(err)
		}
	}
	return err
}

// RegisterMenu publishes the command list shown in Telegram clients.
func (m *Messenger) RegisterMenu() error {
	_, err := m.bot.Request(tgbotapi.NewSetMyCommands(menuCommands()...))
	return err
}
