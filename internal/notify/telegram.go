// Package notify sends mower error alerts over Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Juhni/RoopeRobotti/internal/telemetry"
)

// TelegramNotifier implements telemetry.Notifier over a Telegram bot
// chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and
// chat.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// MowerAlert sends one message about a mower that entered an error
// state.
func (n *TelegramNotifier) MowerAlert(ctx context.Context, snap telemetry.Snapshot) error {
	text := fmt.Sprintf("Mower %s needs attention: state=%s activity=%s battery=%d%%",
		snap.Name, snap.State, snap.Activity, snap.BatteryPercent)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	n.logger.Debug("sent mower alert", "mower_id", snap.MowerID, "state", snap.State)
	return nil
}
