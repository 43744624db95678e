package ports

import (
	"context"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// OutcomeSource liquida una apuesta. La implementación real (settlement del
// prediction externo) se sustituye sin tocar la lógica de recomendación.
type OutcomeSource interface {
	// Settle resuelve la apuesta y devuelve el resultado.
	Settle(ctx context.Context, channelID string, stake int64) (domain.BetOutcome, error)
}

// PointClaimer reclama los puntos acumulados de un canal. La implementación
// real (automatización de navegador) vive fuera de este módulo.
type PointClaimer interface {
	// Claim reclama los puntos pendientes y devuelve la cantidad obtenida.
	Claim(ctx context.Context, accountID int64, channelID string) (int64, error)
}
