package notify

import (
	"context"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
)

// Multi reparte cada evento a varios notificadores.
type Multi struct {
	notifiers []ports.Notifier
}

// NewMulti crea el fan-out. Los nil se ignoran.
func NewMulti(notifiers ...ports.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) StreamLive(ctx context.Context, t domain.LiveTransition) {
	for _, n := range m.notifiers {
		n.StreamLive(ctx, t)
	}
}

func (m *Multi) AccountDemoted(ctx context.Context, account domain.Account, reason string) {
	for _, n := range m.notifiers {
		n.AccountDemoted(ctx, account, reason)
	}
}

func (m *Multi) TickSummary(ctx context.Context, account domain.Account, channels []domain.FollowedChannel, slots []domain.StreamSlot) {
	for _, n := range m.notifiers {
		n.TickSummary(ctx, account, channels, slots)
	}
}
