package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// telegramAPI is the slice of the Telegram client the sender needs.
// Narrowing it keeps the sender testable without a live bot.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers alerts to Telegram chats, as an animation with a
// caption when the alert kind has an animation configured, otherwise as a
// plain Markdown message.
type TelegramSender struct {
	api           telegramAPI
	log           *logrus.Logger
	animationURLs map[Kind]string
}

// NewTelegramSender creates a new Telegram sender
func NewTelegramSender(api *tgbotapi.BotAPI, log *logrus.Logger, animationURLs map[Kind]string) *TelegramSender {
	return &TelegramSender{
		api:           api,
		log:           log,
		animationURLs: animationURLs,
	}
}

// Send delivers one alert to one chat
func (s *TelegramSender) Send(ctx context.Context, chatID int64, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	caption := Message(event)
	var msg tgbotapi.Chattable
	if url := s.animationURLs[event.Kind]; url != "" {
		anim := tgbotapi.NewAnimation(chatID, tgbotapi.FileURL(url))
		anim.Caption = caption
		anim.ParseMode = tgbotapi.ModeMarkdown
		msg = anim
	} else {
		text := tgbotapi.NewMessage(chatID, caption)
		text.ParseMode = tgbotapi.ModeMarkdown
		msg = text
	}

	if _, err := s.api.Send(msg); err != nil {
		if isForbidden(err) {
			return fmt.Errorf("chat %d: %w", chatID, ErrForbidden)
		}
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// isForbidden recognizes the Telegram errors meaning the chat rejected the
// bot: blocked by the user, kicked from the group, or chat deleted.
func isForbidden(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 403 {
			return true
		}
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "forbidden") ||
			strings.Contains(msg, "bot was blocked") ||
			strings.Contains(msg, "bot was kicked") ||
			strings.Contains(msg, "chat not found")
	}
	return false
}
