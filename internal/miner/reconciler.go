package miner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
)

// batchSize es el límite de ids por llamada de la API externa.
const batchSize = 100

// Reconciler actualiza el estado live/offline de los canales seguidos de
// una cuenta contra la API externa.
type Reconciler struct {
	streams   ports.StreamProvider
	refresher *Refresher
	store     ports.Storage
	notifier  ports.Notifier
}

// NewReconciler crea el reconciler con sus colaboradores.
func NewReconciler(streams ports.StreamProvider, refresher *Refresher, store ports.Storage, notifier ports.Notifier) *Reconciler {
	return &Reconciler{
		streams:   streams,
		refresher: refresher,
		store:     store,
		notifier:  notifier,
	}
}

// Reconcile procesa los canales en lotes de ≤100 ids, una llamada por lote,
// y aplica el resultado de cada lote al momento. Es idempotente: correrlo
// dos veces seguidas deja el mismo estado.
//
// Un 401 a mitad de lote dispara un único refresh; con refresh OK se
// reintenta el mismo lote una vez con la credencial nueva; con refresh
// fallido se abortan los lotes restantes de esta cuenta en este tick. Los
// lotes ya aplicados conservan su estado: el progreso parcial se acepta, no
// se revierte.
func (r *Reconciler) Reconcile(ctx context.Context, account *domain.Account, channels []domain.FollowedChannel) ([]domain.FollowedChannel, error) {
	updated := make([]domain.FollowedChannel, len(channels))
	copy(updated, channels)

	refreshed := false
	for start := 0; start < len(updated); start += batchSize {
		end := start + batchSize
		if end > len(updated) {
			end = len(updated)
		}
		batch := updated[start:end]

		ids := make([]string, len(batch))
		for i, ch := range batch {
			ids[i] = ch.ChannelID
		}

		streams, err := r.streams.GetStreams(ctx, account.AccessToken, ids)
		if domain.IsAuthExpired(err) && !refreshed {
			refreshed = true
			if !r.refresher.Refresh(ctx, account) {
				return updated, fmt.Errorf("reconciler: auth expired and refresh failed for %s", account.Username)
			}
			streams, err = r.streams.GetStreams(ctx, account.AccessToken, ids)
		}
		if err != nil {
			return updated, fmt.Errorf("reconciler: batch %d-%d: %w", start, end, err)
		}

		liveByID := make(map[string]domain.LiveStream, len(streams))
		for _, s := range streams {
			liveByID[s.ChannelID] = s
		}

		for i := range batch {
			r.applyState(ctx, account, &batch[i], liveByID)
		}
	}

	return updated, nil
}

// applyState actualiza un canal contra el mapa de streams en vivo del lote.
// Ausente del mapa → offline inmediato, sin periodo de gracia.
func (r *Reconciler) applyState(ctx context.Context, account *domain.Account, ch *domain.FollowedChannel, liveByID map[string]domain.LiveStream) {
	stream, isLive := liveByID[ch.ChannelID]

	if !isLive {
		if err := r.store.UpdateChannelState(ctx, account.ID, ch.ChannelID, domain.ChannelOffline, "", 0); err != nil {
			slog.Error("update channel state", "channel", ch.Name, "err", err)
			return
		}
		ch.Status = domain.ChannelOffline
		ch.Game = ""
		ch.ViewerCount = 0
		return
	}

	wasOffline := !ch.IsLive()

	if err := r.store.UpdateChannelState(ctx, account.ID, ch.ChannelID, domain.ChannelLive, stream.Game, stream.ViewerCount); err != nil {
		slog.Error("update channel state", "channel", ch.Name, "err", err)
		return
	}
	ch.Status = domain.ChannelLive
	ch.Game = stream.Game
	ch.ViewerCount = stream.ViewerCount

	// Exactamente un evento por transición offline→live.
	if wasOffline {
		transition := domain.LiveTransition{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			ChannelID:   ch.ChannelID,
			ChannelName: ch.Name,
			Game:        stream.Game,
			ViewerCount: stream.ViewerCount,
			At:          time.Now().UTC(),
		}
		slog.Info("channel went live",
			"account", account.Username,
			"channel", ch.Name,
			"game", stream.Game,
			"viewers", stream.ViewerCount,
		)
		if r.notifier != nil {
			r.notifier.StreamLive(ctx, transition)
		}
	}
}
