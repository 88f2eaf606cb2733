package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink delivers notifications as Telegram messages with inline
// action buttons. The returned handle is the sent message id, so Close can
// delete the message once the dose has been dealt with.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(api *tgbotapi.BotAPI, chatID int64) *TelegramSink {
	return &TelegramSink{api: api, chatID: chatID}
}

type telegramHandle struct {
	chatID    int64
	messageID int
}

func (s *TelegramSink) Show(ctx context.Context, n Notification) (Handle, error) {
	msg := tgbotapi.NewMessage(s.chatID, n.Title+"\n\n"+n.Body)
	// Telegram's closest analog to a silent notification.
	msg.DisableNotification = !n.Sound

	if reminderID := n.Data["reminderId"]; reminderID != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Taken", fmt.Sprintf("rem_taken:%s", reminderID)),
				tgbotapi.NewInlineKeyboardButtonData("💤 Snooze 10m", fmt.Sprintf("rem_snooze:%s:10", reminderID)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Missed", fmt.Sprintf("rem_missed:%s", reminderID)),
			),
		)
	}

	sent, err := s.api.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send notification message: %w", err)
	}
	return telegramHandle{chatID: s.chatID, messageID: sent.MessageID}, nil
}

func (s *TelegramSink) Close(ctx context.Context, h Handle) error {
	th, ok := h.(telegramHandle)
	if !ok {
		return nil
	}
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(th.chatID, th.messageID)); err != nil {
		// The user may have deleted the message already.
		log.Printf("Failed to delete notification message %d: %v", th.messageID, err)
	}
	return nil
}
