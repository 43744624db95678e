package miner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/pkg/metrics"
)

// Refresher renueva credenciales expiradas. Nunca devuelve error: el fallo
// se comunica con el bool más la democión de la cuenta cuando el refresh
// token es irrecuperable.
type Refresher struct {
	tokens    ports.TokenSource
	store     ports.Storage
	chat      ports.ChatGateway
	notifier  ports.Notifier
	clientID  string
	collector *metrics.Collector
}

// NewRefresher crea el refresher con sus colaboradores.
func NewRefresher(tokens ports.TokenSource, store ports.Storage, chat ports.ChatGateway, notifier ports.Notifier, clientID string, collector *metrics.Collector) *Refresher {
	return &Refresher{
		tokens:    tokens,
		store:     store,
		chat:      chat,
		notifier:  notifier,
		clientID:  clientID,
		collector: collector,
	}
}

// Refresh intenta un único refresh grant para la cuenta y actualiza el par
// de credenciales en memoria y en el store. Un 400/401 del identity service
// significa refresh token inválido de forma permanente: la cuenta se demota
// a idle y no se reintenta hasta que un humano la re-vincule.
//
// Invariante: como mucho un intento de refresh por request disparador; los
// callers no deben loopear sobre Refresh.
func (r *Refresher) Refresh(ctx context.Context, account *domain.Account) bool {
	if r.clientID == "" || !account.CanRefresh() {
		slog.Warn("refresh not possible",
			"account", account.Username,
			"has_refresh_token", account.CanRefresh(),
		)
		return false
	}

	pair, err := r.tokens.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 400 || apiErr.StatusCode == 401) {
			r.demote(ctx, account, "refresh token rejected by identity service")
			return false
		}
		// Transitorio (breaker abierto, reintentos agotados, transporte):
		// la cuenta sigue en farming y se reintenta en el próximo tick.
		slog.Warn("token refresh failed", "account", account.Username, "err", err)
		return false
	}

	if err := r.store.UpdateAccountTokens(ctx, account.ID, pair.AccessToken, pair.RefreshToken); err != nil {
		slog.Error("persist refreshed tokens", "account", account.Username, "err", err)
		return false
	}

	account.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		account.RefreshToken = pair.RefreshToken
	}

	slog.Info("access token refreshed", "account", account.Username)
	return true
}

// demote baja la cuenta a idle, corta su sesión de chat y registra el evento.
func (r *Refresher) demote(ctx context.Context, account *domain.Account, reason string) {
	slog.Error("demoting account to idle", "account", account.Username, "reason", reason)

	if err := r.store.UpdateAccountStatus(ctx, account.ID, domain.StatusIdle); err != nil {
		slog.Error("update account status", "account", account.Username, "err", err)
	}
	account.Status = domain.StatusIdle

	if r.chat != nil {
		r.chat.Disconnect(account.ID)
	}
	if r.notifier != nil {
		r.notifier.AccountDemoted(ctx, *account, reason)
	}
	if r.collector != nil {
		r.collector.RecordDemotion()
	}
}
