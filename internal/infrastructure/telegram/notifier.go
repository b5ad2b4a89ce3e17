// Package telegram posts signal notifications to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"

	"signal-backend/internal/domain"
)

type Notifier struct {
	bot  *tb.Bot
	chat *tb.Chat
}

// NewNotifier authenticates the bot token. apiURL may be empty for the
// public Telegram API.
func NewNotifier(apiURL, token string, chatID int64, timeout time.Duration) (*Notifier, error) {
	b, err := tb.NewBot(tb.Settings{
		URL:    apiURL,
		Token:  token,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Notifier{bot: b, chat: &tb.Chat{ID: chatID}}, nil
}

func (n *Notifier) Name() string { return "telegram" }

// Send posts the title and body as one message. The bot client does not take
// a context; the HTTP client timeout bounds the call.
func (n *Notifier) Send(_ context.Context, msg domain.Notification) error {
	_, err := n.bot.Send(n.chat, msg.Title+"\n"+msg.Body)
	return err
}

var _ domain.Notifier = (*Notifier)(nil)
