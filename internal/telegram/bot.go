package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ledger/internal/log"
)

// sender is the part of tgbotapi.BotAPI used to answer messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot long-polls Telegram and answers every message through a Router.
type Bot struct {
	api         *tgbotapi.BotAPI
	out         sender
	router      *Router
	pollTimeout int
	logger      *log.Logger
}

// NewBot authenticates with token. pollTimeout is in seconds.
func NewBot(token string, router *Router, pollTimeout int, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentTelegram)
	logger.Info("Telegram bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:         api,
		out:         api,
		router:      router,
		pollTimeout: pollTimeout,
		logger:      logger,
	}, nil
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.InfoContext(ctx, "Telegram polling started", "poll_timeout_s", b.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	// Ledgers belong to the sender; fall back to the chat for channel posts
	userID := msg.Chat.ID
	if msg.From != nil {
		userID = msg.From.ID
	}

	reply := b.router.Handle(ctx, userID, msg.Text)
	chunks := splitMessage(reply.Text, maxMessageLength)
	for i, chunk := range chunks {
		out := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if reply.Monospace {
			out.Text = "<pre>" + html.EscapeString(chunk) + "</pre>"
			out.ParseMode = tgbotapi.ModeHTML
		}

		if _, err := b.out.Send(out); err != nil {
			b.logger.ErrorContext(ctx, "Failed to send reply",
				log.FieldUserID, userID,
				"part", i+1,
				"parts", len(chunks),
				log.FieldError, err)
			return
		}
	}
}

// maxMessageLength stays under Telegram's 4096 UTF-16 unit limit.
const maxMessageLength = 4000

// splitMessage cuts text into parts of at most limit UTF-16 units, breaking
// after a newline when one is available.
func splitMessage(text string, limit int) []string {
	var parts []string
	for utf16Len(text) > limit {
		cut, units, lastNL := 0, 0, -1
		for i, r := range text {
			n := 1
			if r >= 0x10000 {
				n = 2
			}
			if units+n > limit {
				break
			}
			units += n
			cut = i + utf8.RuneLen(r)
			if r == '\n' {
				lastNL = cut
			}
		}
		if lastNL > 0 {
			cut = lastNL
		}
		parts = append(parts, strings.TrimRight(text[:cut], "\n"))
		text = text[cut:]
	}
	if text != "" || len(parts) == 0 {
		parts = append(parts, text)
	}
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
