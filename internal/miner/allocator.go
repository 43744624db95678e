package miner

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Allocate reparte la capacidad de slots de una cuenta entre las dos clases
// de canales en vivo. Determinista dado el mismo input: misma lista, mismos
// settings → misma asignación.
//
// La capacidad sobrante de una clase NO se redistribuye a la otra: con cero
// favoritos en vivo, los slots de favorite quedan vacíos aunque haya más
// canales drop-eligible esperando. Eso acota el throughput de drop-farming
// de forma intencional.
func Allocate(accountID int64, liveChannels []domain.FollowedChannel, settings domain.Settings, now time.Time) domain.SlotAssignment {
	limit := clampInt(settings.ConcurrentStreams, domain.MinConcurrentStreams, domain.MaxConcurrentStreams)
	pct := clampInt(settings.DropAllocationPct, domain.MinDropAllocationPct, domain.MaxDropAllocationPct)

	dropSlots := int(math.Floor(float64(limit) * float64(pct) / 100))
	if dropSlots < 1 {
		dropSlots = 1
	}
	favoriteSlots := limit - dropSlots

	// Partición en el orden de listado actual.
	var dropEligible, favorites []domain.FollowedChannel
	for _, ch := range liveChannels {
		if !ch.IsLive() {
			continue
		}
		if settings.IsDropGame(ch.Game) {
			dropEligible = append(dropEligible, ch)
		} else {
			favorites = append(favorites, ch)
		}
	}

	assignment := domain.SlotAssignment{
		AccountID:     accountID,
		DropSlots:     dropSlots,
		FavoriteSlots: favoriteSlots,
	}

	for _, ch := range firstN(dropEligible, dropSlots) {
		assignment.Slots = append(assignment.Slots, newSlot(accountID, ch.ChannelID, domain.SlotDrop, now))
	}
	for _, ch := range firstN(favorites, favoriteSlots) {
		assignment.Slots = append(assignment.Slots, newSlot(accountID, ch.ChannelID, domain.SlotFavorite, now))
	}
	return assignment
}

func newSlot(accountID int64, channelID string, class domain.SlotClass, now time.Time) domain.StreamSlot {
	return domain.StreamSlot{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		ChannelID:  channelID,
		Class:      class,
		AssignedAt: now,
	}
}

func firstN(channels []domain.FollowedChannel, n int) []domain.FollowedChannel {
	if len(channels) <= n {
		return channels
	}
	return channels[:n]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
