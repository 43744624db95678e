package ports

import (
	"context"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// TokenPair es el par de credenciales devuelto por un refresh grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string // vacío si el servidor no rotó el refresh token
}

// StreamProvider consulta el estado en vivo de canales en la API externa.
type StreamProvider interface {
	// GetStreams devuelve el estado en vivo de los canales dados. El caller
	// es responsable de trocear en lotes de ≤100 ids.
	GetStreams(ctx context.Context, accessToken string, channelIDs []string) ([]domain.LiveStream, error)
}

// TokenSource renueva credenciales expiradas vía refresh grant.
type TokenSource interface {
	// RefreshToken intercambia el refresh token por un par nuevo.
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
}
