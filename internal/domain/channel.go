package domain

import "time"

// LiveStatus representa el estado en vivo de un canal seguido.
type LiveStatus string

const (
	ChannelLive    LiveStatus = "live"
	ChannelOffline LiveStatus = "offline"
)

// FollowedChannel es un canal seguido por una cuenta. Se crea en bloque al
// vincular la cuenta y se actualiza en cada ciclo de reconciliación.
type FollowedChannel struct {
	ID          int64
	AccountID   int64
	ChannelID   string // id externo del canal (user_id de Helix)
	Name        string
	Status      LiveStatus
	Game        string // vacío cuando está offline
	ViewerCount int64
	Points      int64 // channel points acumulados en este canal
	LastClaimAt time.Time
}

// IsLive devuelve true si el canal está transmitiendo ahora.
func (c FollowedChannel) IsLive() bool {
	return c.Status == ChannelLive
}

// LiveStream es el estado en vivo devuelto por la API externa para un canal.
type LiveStream struct {
	ChannelID   string
	Game        string
	ViewerCount int64
}

// LiveTransition es el evento emitido cuando un canal pasa de offline a live.
type LiveTransition struct {
	EventID     string
	AccountID   int64
	ChannelID   string
	ChannelName string
	Game        string
	ViewerCount int64
	At          time.Time
}
