package miner

import (
	"context"
	"sort"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
)

// --- mocks ---

// mockStorage es un Storage en memoria que además registra las llamadas que
// los tests quieren observar.
type mockStorage struct {
	accounts map[int64]*domain.Account
	channels map[int64][]domain.FollowedChannel
	slots    map[int64][]domain.StreamSlot
	bets     map[string][]domain.BettingStat
	settings map[string]string

	replaceCalls []int // longitud del set de slots en cada ReplaceSlots
	err          error // si no es nil, todas las operaciones fallan
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		accounts: make(map[int64]*domain.Account),
		channels: make(map[int64][]domain.FollowedChannel),
		slots:    make(map[int64][]domain.StreamSlot),
		bets:     make(map[string][]domain.BettingStat),
		settings: domain.DefaultSettings().ToMap(),
	}
}

func (m *mockStorage) addAccount(a domain.Account) {
	cp := a
	m.accounts[a.ID] = &cp
}

func (m *mockStorage) GetAccounts(_ context.Context, status domain.AccountStatus) ([]domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStorage) SaveAccount(_ context.Context, account domain.Account) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.addAccount(account)
	return account.ID, nil
}

func (m *mockStorage) UpdateAccountStatus(_ context.Context, accountID int64, status domain.AccountStatus) error {
	if m.err != nil {
		return m.err
	}
	if a, ok := m.accounts[accountID]; ok {
		a.Status = status
	}
	return nil
}

func (m *mockStorage) UpdateAccountTokens(_ context.Context, accountID int64, accessToken, refreshToken string) error {
	if m.err != nil {
		return m.err
	}
	if a, ok := m.accounts[accountID]; ok {
		a.AccessToken = accessToken
		if refreshToken != "" {
			a.RefreshToken = refreshToken
		}
	}
	return nil
}

func (m *mockStorage) AddAccountPoints(_ context.Context, accountID int64, delta int64) error {
	if m.err != nil {
		return m.err
	}
	if a, ok := m.accounts[accountID]; ok {
		a.Points += delta
	}
	return nil
}

func (m *mockStorage) DeleteAccount(_ context.Context, accountID int64) error {
	delete(m.accounts, accountID)
	delete(m.channels, accountID)
	delete(m.slots, accountID)
	return nil
}

func (m *mockStorage) ImportChannels(_ context.Context, accountID int64, channels []domain.FollowedChannel) error {
	m.channels[accountID] = append(m.channels[accountID], channels...)
	return nil
}

func (m *mockStorage) GetChannels(_ context.Context, accountID int64) ([]domain.FollowedChannel, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.channels[accountID], nil
}

func (m *mockStorage) UpdateChannelState(_ context.Context, accountID int64, channelID string, status domain.LiveStatus, game string, viewers int64) error {
	if m.err != nil {
		return m.err
	}
	chans := m.channels[accountID]
	for i := range chans {
		if chans[i].ChannelID == channelID {
			chans[i].Status = status
			chans[i].Game = game
			chans[i].ViewerCount = viewers
		}
	}
	return nil
}

func (m *mockStorage) AddChannelPoints(_ context.Context, accountID int64, channelID string, delta int64, claimedAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	chans := m.channels[accountID]
	for i := range chans {
		if chans[i].ChannelID == channelID {
			chans[i].Points += delta
			chans[i].LastClaimAt = claimedAt
		}
	}
	return nil
}

func (m *mockStorage) ReplaceSlots(_ context.Context, accountID int64, slots []domain.StreamSlot) error {
	if m.err != nil {
		return m.err
	}
	m.slots[accountID] = slots
	m.replaceCalls = append(m.replaceCalls, len(slots))
	return nil
}

func (m *mockStorage) GetSlots(_ context.Context, accountID int64) ([]domain.StreamSlot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.slots[accountID], nil
}

func (m *mockStorage) RecordBet(_ context.Context, stat domain.BettingStat) error {
	if m.err != nil {
		return m.err
	}
	m.bets[stat.ChannelID] = append(m.bets[stat.ChannelID], stat)
	return nil
}

func (m *mockStorage) GetChannelBets(_ context.Context, channelID string) ([]domain.BettingStat, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bets[channelID], nil
}

func (m *mockStorage) GetSettings(_ context.Context) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings, nil
}

func (m *mockStorage) PutSetting(_ context.Context, name, value string) error {
	m.settings[name] = value
	return nil
}

func (m *mockStorage) Close() error { return nil }

// mockStreams devuelve respuestas precargadas por llamada y registra cada
// invocación.
type mockStreams struct {
	responses []streamsResult // se consumen en orden; la última se repite
	calls     []streamsCall
}

type streamsResult struct {
	streams []domain.LiveStream
	err     error
}

type streamsCall struct {
	token string
	ids   []string
}

func (m *mockStreams) GetStreams(_ context.Context, accessToken string, channelIDs []string) ([]domain.LiveStream, error) {
	m.calls = append(m.calls, streamsCall{token: accessToken, ids: append([]string(nil), channelIDs...)})

	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	r := m.responses[idx]
	return r.streams, r.err
}

// mockTokens implementa ports.TokenSource con una respuesta fija.
type mockTokens struct {
	pair  ports.TokenPair
	err   error
	calls int
}

func (m *mockTokens) RefreshToken(_ context.Context, _ string) (ports.TokenPair, error) {
	m.calls++
	if m.err != nil {
		return ports.TokenPair{}, m.err
	}
	return m.pair, nil
}

// mockChat registra conexiones y desconexiones.
type mockChat struct {
	connected    []int64
	disconnected []int64
}

func (m *mockChat) Connect(_ context.Context, accountID int64, _, _ string) error {
	m.connected = append(m.connected, accountID)
	return nil
}

func (m *mockChat) Disconnect(accountID int64) {
	m.disconnected = append(m.disconnected, accountID)
}

func (m *mockChat) Close() {}

// mockNotifier registra cada evento recibido.
type mockNotifier struct {
	transitions []domain.LiveTransition
	demotions   []string
	summaries   int
}

func (m *mockNotifier) StreamLive(_ context.Context, t domain.LiveTransition) {
	m.transitions = append(m.transitions, t)
}

func (m *mockNotifier) AccountDemoted(_ context.Context, _ domain.Account, reason string) {
	m.demotions = append(m.demotions, reason)
}

func (m *mockNotifier) TickSummary(_ context.Context, _ domain.Account, _ []domain.FollowedChannel, _ []domain.StreamSlot) {
	m.summaries++
}

// mockClaimer devuelve una cantidad fija de puntos por claim.
type mockClaimer struct {
	points int64
	err    error
	calls  []string // channel ids reclamados
}

func (m *mockClaimer) Claim(_ context.Context, _ int64, channelID string) (int64, error) {
	m.calls = append(m.calls, channelID)
	if m.err != nil {
		return 0, m.err
	}
	return m.points, nil
}

// mockOutcome liquida siempre con el mismo resultado.
type mockOutcome struct {
	outcome domain.BetOutcome
	err     error
	calls   []string
}

func (m *mockOutcome) Settle(_ context.Context, channelID string, _ int64) (domain.BetOutcome, error) {
	m.calls = append(m.calls, channelID)
	if m.err != nil {
		return "", m.err
	}
	return m.outcome, nil
}
