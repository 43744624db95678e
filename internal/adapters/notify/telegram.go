package notify

// telegram.go — optional Telegram notifier for live transitions and
// account demotions. Tick summaries are console-only noise and are not
// forwarded.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Telegram implements ports.Notifier over a Telegram bot.
type Telegram struct {
	bot    *gotgbot.Bot
	chatID int64
}

// NewTelegram creates the notifier. Fails if the token is invalid.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) StreamLive(_ context.Context, tr domain.LiveTransition) {
	t.send(fmt.Sprintf("🔴 %s is live — %s (%d viewers)",
		tr.ChannelName, tr.Game, tr.ViewerCount))
}

func (t *Telegram) AccountDemoted(_ context.Context, account domain.Account, reason string) {
	t.send(fmt.Sprintf("⚠️ account %s demoted to idle: %s\nre-link it to resume farming",
		account.Username, reason))
}

func (t *Telegram) TickSummary(_ context.Context, _ domain.Account, _ []domain.FollowedChannel, _ []domain.StreamSlot) {
}

func (t *Telegram) send(text string) {
	if _, err := t.bot.SendMessage(t.chatID, text, nil); err != nil {
		slog.Warn("telegram send failed", "err", err)
	}
}
