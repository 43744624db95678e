package miner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/betting"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/pkg/metrics"
)

// Config contiene las cadencias del scheduler.
type Config struct {
	ReconcileInterval time.Duration
	ClaimInterval     time.Duration
	WagerInterval     time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig devuelve las cadencias de producción.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 30 * time.Second,
		ClaimInterval:     5 * time.Minute,
		WagerInterval:     15 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Scheduler es el driver de intervalo fijo del ciclo de farming. Las
// cuentas se procesan secuencialmente dentro de un tick para mantener
// coherente el estado de breakers y evitar refresh duplicado de la misma
// cuenta; un fallo en una cuenta se loggea y nunca aborta las demás.
type Scheduler struct {
	cfg        Config
	store      ports.Storage
	refresher  *Refresher
	reconciler *Reconciler
	chat       ports.ChatGateway
	notifier   ports.Notifier
	claimer    ports.PointClaimer
	outcomes   ports.OutcomeSource
	collector  *metrics.Collector

	// tickMu garantiza que dos ticks nunca se solapan: un tick que pisaría
	// a otro en curso se salta, no se encola.
	tickMu sync.Mutex
}

// NewScheduler crea el scheduler con todas las dependencias inyectadas.
func NewScheduler(
	cfg Config,
	store ports.Storage,
	refresher *Refresher,
	reconciler *Reconciler,
	chat ports.ChatGateway,
	notifier ports.Notifier,
	claimer ports.PointClaimer,
	outcomes ports.OutcomeSource,
	collector *metrics.Collector,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		store:      store,
		refresher:  refresher,
		reconciler: reconciler,
		chat:       chat,
		notifier:   notifier,
		claimer:    claimer,
		outcomes:   outcomes,
		collector:  collector,
	}
}

// Run ejecuta los tres ciclos periódicos hasta que el contexto se cancele.
// Al apagar, deja terminar el tick en curso acotado por ShutdownTimeout.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"reconcile", s.cfg.ReconcileInterval,
		"claim", s.cfg.ClaimInterval,
		"wager", s.cfg.WagerInterval,
	)

	// Primer ciclo inmediato, sin esperar el primer tick del ticker.
	s.runGuarded(ctx, "reconcile", s.reconcileTick)

	reconcile := time.NewTicker(s.cfg.ReconcileInterval)
	defer reconcile.Stop()
	claim := time.NewTicker(s.cfg.ClaimInterval)
	defer claim.Stop()
	wager := time.NewTicker(s.cfg.WagerInterval)
	defer wager.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain()
			if s.chat != nil {
				s.chat.Close()
			}
			slog.Info("scheduler stopped")
			return nil
		case <-reconcile.C:
			s.runGuarded(ctx, "reconcile", s.reconcileTick)
		case <-claim.C:
			s.runGuarded(ctx, "claim", s.claimTick)
		case <-wager.C:
			s.runGuarded(ctx, "wager", s.wagerTick)
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de reconciliación.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runGuarded(ctx, "reconcile", s.reconcileTick)
}

// runGuarded ejecuta un tick bajo el mutex. Si hay un tick en curso, este
// se salta.
func (s *Scheduler) runGuarded(ctx context.Context, kind string, tick func(ctx context.Context)) {
	if !s.tickMu.TryLock() {
		slog.Warn("tick overlaps previous one, skipping", "kind", kind)
		if s.collector != nil {
			s.collector.RecordTick(kind, "skipped")
		}
		return
	}
	defer s.tickMu.Unlock()

	start := time.Now()
	tick(ctx)
	if s.collector != nil {
		s.collector.RecordTick(kind, "ok")
	}
	slog.Debug("tick complete", "kind", kind, "duration", time.Since(start).Round(time.Millisecond))
}

// drain espera a que termine el tick en curso, acotado por ShutdownTimeout.
func (s *Scheduler) drain() {
	done := make(chan struct{})
	go func() {
		s.tickMu.Lock()
		s.tickMu.Unlock() //nolint:staticcheck // solo esperamos al tick en curso
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout):
		slog.Warn("shutdown timeout reached with a tick still running")
	}
}

// reconcileTick ejecuta refresher → reconciler → allocator para cada cuenta
// en farming.
func (s *Scheduler) reconcileTick(ctx context.Context) {
	settings, accounts, ok := s.loadTickState(ctx)
	if !ok {
		return
	}

	for i := range accounts {
		account := &accounts[i]
		if err := s.reconcileAccount(ctx, account, settings); err != nil {
			slog.Error("account reconcile failed, continuing with next",
				"account", account.Username, "err", err)
		}
	}
}

func (s *Scheduler) reconcileAccount(ctx context.Context, account *domain.Account, settings domain.Settings) error {
	if s.chat != nil && account.IsFarming() {
		if err := s.chat.Connect(ctx, account.ID, account.Username, account.AccessToken); err != nil {
			slog.Warn("chat connect failed", "account", account.Username, "err", err)
		}
	}

	channels, err := s.store.GetChannels(ctx, account.ID)
	if err != nil {
		return err
	}

	updated, err := s.reconciler.Reconcile(ctx, account, channels)

	// La cuenta pudo ser demotada durante el reconcile: sin slots para ella,
	// falle o no el resto del ciclo.
	if !account.IsFarming() {
		if cerr := s.store.ReplaceSlots(ctx, account.ID, nil); cerr != nil {
			return cerr
		}
		return err
	}
	if err != nil {
		return err
	}

	var live []domain.FollowedChannel
	for _, ch := range updated {
		if ch.IsLive() {
			live = append(live, ch)
		}
	}
	if s.collector != nil {
		s.collector.SetLiveChannels(account.Username, len(live))
	}

	assignment := Allocate(account.ID, live, settings, time.Now().UTC())
	if err := s.store.ReplaceSlots(ctx, account.ID, assignment.Slots); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.TickSummary(ctx, *account, updated, assignment.Slots)
	}
	return nil
}

// claimTick reclama puntos de los canales con slot cuyo último claim es más
// viejo que el intervalo configurado.
func (s *Scheduler) claimTick(ctx context.Context) {
	if s.claimer == nil {
		return
	}
	settings, accounts, ok := s.loadTickState(ctx)
	if !ok {
		return
	}

	now := time.Now().UTC()
	for i := range accounts {
		account := &accounts[i]
		if err := s.claimAccount(ctx, account, settings, now); err != nil {
			slog.Error("account claim failed, continuing with next",
				"account", account.Username, "err", err)
		}
	}
}

func (s *Scheduler) claimAccount(ctx context.Context, account *domain.Account, settings domain.Settings, now time.Time) error {
	slots, err := s.store.GetSlots(ctx, account.ID)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	channels, err := s.store.GetChannels(ctx, account.ID)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.FollowedChannel, len(channels))
	for _, ch := range channels {
		byID[ch.ChannelID] = ch
	}

	for _, slot := range slots {
		ch, ok := byID[slot.ChannelID]
		if !ok {
			continue
		}
		if now.Sub(ch.LastClaimAt) < settings.ClaimInterval() {
			continue
		}

		points, err := s.claimer.Claim(ctx, account.ID, slot.ChannelID)
		if err != nil {
			slog.Warn("claim failed", "account", account.Username, "channel", ch.Name, "err", err)
			continue
		}
		if points <= 0 {
			continue
		}

		if err := s.store.AddChannelPoints(ctx, account.ID, slot.ChannelID, points, now); err != nil {
			return err
		}
		if err := s.store.AddAccountPoints(ctx, account.ID, points); err != nil {
			return err
		}
		account.Points += points
		if s.collector != nil {
			s.collector.RecordPointsClaimed(points)
		}
		slog.Info("points claimed", "account", account.Username, "channel", ch.Name, "points", points)
	}
	return nil
}

// wagerTick decide una apuesta por canal con slot, favoritos primero, y la
// liquida contra el OutcomeSource registrando el resultado como BettingStat.
func (s *Scheduler) wagerTick(ctx context.Context) {
	if s.outcomes == nil {
		return
	}
	settings, accounts, ok := s.loadTickState(ctx)
	if !ok {
		return
	}

	for i := range accounts {
		account := &accounts[i]
		if err := s.wagerAccount(ctx, account, settings); err != nil {
			slog.Error("account wager failed, continuing with next",
				"account", account.Username, "err", err)
		}
	}
}

func (s *Scheduler) wagerAccount(ctx context.Context, account *domain.Account, settings domain.Settings) error {
	slots, err := s.store.GetSlots(ctx, account.ID)
	if err != nil {
		return err
	}

	// Favoritos primero: son los canales donde el histórico de predicciones
	// tiene más señal.
	ordered := make([]domain.StreamSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Class == domain.SlotFavorite {
			ordered = append(ordered, slot)
		}
	}
	for _, slot := range slots {
		if slot.Class == domain.SlotDrop {
			ordered = append(ordered, slot)
		}
	}

	for _, slot := range ordered {
		stats, err := s.store.GetChannelBets(ctx, slot.ChannelID)
		if err != nil {
			return err
		}

		profile := betting.BuildProfile(slot.ChannelID, stats)
		rec := betting.Recommend(profile, account.Points, settings)
		if !rec.ShouldBet {
			slog.Debug("no bet", "channel", slot.ChannelID, "reason", rec.Reason)
			continue
		}

		outcome, err := s.outcomes.Settle(ctx, slot.ChannelID, rec.Amount)
		if err != nil {
			slog.Warn("wager settlement failed", "channel", slot.ChannelID, "err", err)
			continue
		}

		delta := betting.Payout(rec.Amount, outcome)
		if err := s.store.RecordBet(ctx, domain.BettingStat{
			AccountID: account.ID,
			ChannelID: slot.ChannelID,
			Stake:     rec.Amount,
			Outcome:   outcome,
			Strategy:  rec.Strategy,
			Delta:     delta,
			SettledAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := s.store.AddAccountPoints(ctx, account.ID, delta); err != nil {
			return err
		}
		account.Points += delta

		if s.collector != nil {
			s.collector.RecordWager(string(outcome))
		}
		slog.Info("wager settled",
			"account", account.Username,
			"channel", slot.ChannelID,
			"stake", rec.Amount,
			"outcome", outcome,
			"delta", delta,
		)
	}
	return nil
}

// loadTickState carga settings validados y las cuentas en farming. Unos
// settings corruptos en el store no tumban el tick: se usan los defaults.
func (s *Scheduler) loadTickState(ctx context.Context) (domain.Settings, []domain.Account, bool) {
	values, err := s.store.GetSettings(ctx)
	if err != nil {
		slog.Error("load settings", "err", err)
		return domain.Settings{}, nil, false
	}
	settings, err := domain.SettingsFromMap(values)
	if err != nil {
		slog.Error("invalid settings in store, falling back to defaults", "err", err)
		settings = domain.DefaultSettings()
	}

	accounts, err := s.store.GetAccounts(ctx, domain.StatusFarming)
	if err != nil {
		slog.Error("load farming accounts", "err", err)
		return settings, nil, false
	}
	return settings, accounts, true
}
