package ports

import (
	"context"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Notifier recibe los eventos visibles del ciclo de farming.
type Notifier interface {
	// StreamLive se emite exactamente una vez por transición offline→live.
	StreamLive(ctx context.Context, transition domain.LiveTransition)

	// AccountDemoted se emite al demotar una cuenta a idle, con una razón
	// legible para humanos.
	AccountDemoted(ctx context.Context, account domain.Account, reason string)

	// TickSummary presenta el resultado de un ciclo de reconciliación.
	TickSummary(ctx context.Context, account domain.Account, channels []domain.FollowedChannel, slots []domain.StreamSlot)
}
