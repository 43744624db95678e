package miner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
)

func farmingAccount() domain.Account {
	return domain.Account{
		ID:           1,
		Username:     "miner1",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		Status:       domain.StatusFarming,
	}
}

func TestRefresh_SuccessUpdatesBothCopies(t *testing.T) {
	store := newMockStorage()
	store.addAccount(farmingAccount())
	tokens := &mockTokens{pair: ports.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}

	r := NewRefresher(tokens, store, nil, nil, "client-id", nil)
	account := farmingAccount()

	ok := r.Refresh(context.Background(), &account)

	require.True(t, ok)
	assert.Equal(t, "new-access", account.AccessToken)
	assert.Equal(t, "new-refresh", account.RefreshToken)
	assert.Equal(t, "new-access", store.accounts[1].AccessToken)
	assert.Equal(t, "new-refresh", store.accounts[1].RefreshToken)
}

func TestRefresh_KeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	store := newMockStorage()
	store.addAccount(farmingAccount())
	tokens := &mockTokens{pair: ports.TokenPair{AccessToken: "new-access"}}

	r := NewRefresher(tokens, store, nil, nil, "client-id", nil)
	account := farmingAccount()

	require.True(t, r.Refresh(context.Background(), &account))
	assert.Equal(t, "old-refresh", account.RefreshToken)
}

func TestRefresh_RejectedTokenDemotesAccount(t *testing.T) {
	for _, status := range []int{400, 401} {
		store := newMockStorage()
		store.addAccount(farmingAccount())
		tokens := &mockTokens{err: &domain.APIError{Target: "oauth2/token", StatusCode: status}}
		chat := &mockChat{}
		notifier := &mockNotifier{}

		r := NewRefresher(tokens, store, chat, notifier, "client-id", nil)
		account := farmingAccount()

		ok := r.Refresh(context.Background(), &account)

		require.False(t, ok, "status %d", status)
		assert.Equal(t, domain.StatusIdle, account.Status)
		assert.Equal(t, domain.StatusIdle, store.accounts[1].Status)
		assert.Equal(t, []int64{1}, chat.disconnected)
		require.Len(t, notifier.demotions, 1)
	}
}

func TestRefresh_TransientFailureLeavesAccountFarming(t *testing.T) {
	store := newMockStorage()
	store.addAccount(farmingAccount())
	tokens := &mockTokens{err: domain.ErrCircuitOpen}
	notifier := &mockNotifier{}

	r := NewRefresher(tokens, store, nil, notifier, "client-id", nil)
	account := farmingAccount()

	ok := r.Refresh(context.Background(), &account)

	assert.False(t, ok)
	assert.Equal(t, domain.StatusFarming, account.Status)
	assert.Equal(t, domain.StatusFarming, store.accounts[1].Status)
	assert.Empty(t, notifier.demotions)
}

func TestRefresh_ServerErrorIsTransient(t *testing.T) {
	store := newMockStorage()
	store.addAccount(farmingAccount())
	tokens := &mockTokens{err: &domain.APIError{Target: "oauth2/token", StatusCode: 503}}

	r := NewRefresher(tokens, store, nil, nil, "client-id", nil)
	account := farmingAccount()

	assert.False(t, r.Refresh(context.Background(), &account))
	assert.Equal(t, domain.StatusFarming, account.Status)
}

func TestRefresh_WithoutRefreshTokenFailsFast(t *testing.T) {
	store := newMockStorage()
	tokens := &mockTokens{pair: ports.TokenPair{AccessToken: "new-access"}}

	r := NewRefresher(tokens, store, nil, nil, "client-id", nil)
	account := farmingAccount()
	account.RefreshToken = ""

	assert.False(t, r.Refresh(context.Background(), &account))
	assert.Zero(t, tokens.calls)
}

func TestRefresh_PersistFailureReturnsFalse(t *testing.T) {
	store := newMockStorage()
	store.addAccount(farmingAccount())
	store.err = errors.New("disk full")
	tokens := &mockTokens{pair: ports.TokenPair{AccessToken: "new-access"}}

	r := NewRefresher(tokens, store, nil, nil, "client-id", nil)
	account := farmingAccount()

	assert.False(t, r.Refresh(context.Background(), &account))
	// Sin persistir, la copia en memoria no se toca.
	assert.Equal(t, "old-access", account.AccessToken)
}
