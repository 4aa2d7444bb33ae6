package notify

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/lensmaster/internal/entity"
)

// Messenger sends a text to a chat. *telegram.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

type TelegramSink struct {
	bot      Messenger
	chatID   string
	currency string
}

func NewTelegramSink(bot Messenger, chatID, currency string) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID, currency: currency}
}

func (s *TelegramSink) Accept(ctx context.Context, order *entity.Order) error {
	if err := s.bot.SendMessage(ctx, s.chatID, FormatOrderMessage(order, s.currency)); err != nil {
		return fmt.Errorf("send order %s: %w", order.ID, err)
	}
	return nil
}
