// Package notify pushes game lifecycle messages back to the player's Telegram
// chat. The engine works without it: every call is best-effort.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

type Notifier interface {
	GameFinished(chatID int64, winner string) error
	PlayerLeft(chatID int64, name string) error
}

func NewTelegram(token string) (*Telegram, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot api: %w", err)
	}

	return &Telegram{tg: tg}, nil
}

var _ Notifier = (*Telegram)(nil)

type Telegram struct {
	tg *tgbotapi.BotAPI
}

func (t *Telegram) GameFinished(chatID int64, winner string) error {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Игра завершена! Победитель раунда: %s", winner))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}

func (t *Telegram) PlayerLeft(chatID int64, name string) error {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s покинул игру через веб-интерфейс", name))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.tg.Send(msg); err != nil {
		return fmt.Errorf("send msg: %w", err)
	}

	return nil
}
