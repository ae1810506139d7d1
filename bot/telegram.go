package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramTransport struct {
	api *tgbotapi.BotAPI
}

func NewTelegramTransport(token string) (*TelegramTransport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	slog.Info("Authorized on telegram", "username", api.Self.UserName)
	return &TelegramTransport{api: api}, nil
}

func (t *TelegramTransport) Run(ctx context.Context, handle Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.From == nil || msg.Text == "" {
				continue
			}
			if msg.From.ID == t.api.Self.ID || msg.From.IsBot {
				continue
			}
			handle(ctx, Message{
				ChatID: strconv.FormatInt(msg.Chat.ID, 10),
				UserID: strconv.FormatInt(msg.From.ID, 10),
				Text:   msg.Text,
			})
		}
	}
}

func (t *TelegramTransport) Send(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
