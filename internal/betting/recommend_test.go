package betting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/betting"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

func settingsWithMaxBet(pct float64) domain.Settings {
	s := domain.DefaultSettings()
	s.MaxBetPercentage = pct
	return s
}

func TestRecommend_ColdStartSampleBet(t *testing.T) {
	profile := betting.BuildProfile("chan-1", makeStats(3, 2, 50))

	rec := betting.Recommend(profile, 1000, settingsWithMaxBet(10))

	require.True(t, rec.ShouldBet)
	assert.Equal(t, betting.StrategySample, rec.Strategy)
	// 1% de 1000
	assert.EqualValues(t, 10, rec.Amount)
}

func TestRecommend_ColdStartNeedsMinimumBalance(t *testing.T) {
	profile := betting.BuildProfile("chan-1", nil)

	rec := betting.Recommend(profile, 100, settingsWithMaxBet(10))
	assert.False(t, rec.ShouldBet)

	rec = betting.Recommend(profile, 101, settingsWithMaxBet(10))
	assert.True(t, rec.ShouldBet)
	assert.EqualValues(t, 1, rec.Amount)
}

func TestRecommend_AvoidsPoorPerformer(t *testing.T) {
	// 30 apuestas con 10 wins: 33% de win rate, high risk con histórico
	// suficiente → no apostar.
	profile := betting.BuildProfile("chan-1", makeStats(30, 10, 100))

	rec := betting.Recommend(profile, 10000, settingsWithMaxBet(10))
	assert.False(t, rec.ShouldBet)
	assert.Contains(t, rec.Reason, "poor performer")
}

func TestRecommend_KellyClampedToMaxBet(t *testing.T) {
	// 90% win rate: kelly crudo muy por encima del máximo configurado.
	profile := betting.BuildProfile("chan-1", makeStats(20, 18, 100))

	rec := betting.Recommend(profile, 1000, settingsWithMaxBet(10))

	require.True(t, rec.ShouldBet)
	assert.Equal(t, betting.StrategyKelly, rec.Strategy)
	// Clamp al 10% → floor(1000 × 0.10)
	assert.EqualValues(t, 100, rec.Amount)
}

func TestRecommend_NegativeEdgeClampsToMinimum(t *testing.T) {
	// 50% win rate (medium): k = (0.5×1.9 − 1) / 0.9 es negativo, así que
	// el stake se queda en el mínimo del 1%.
	profile := betting.BuildProfile("chan-1", makeStats(20, 10, 100))

	rec := betting.Recommend(profile, 1000, settingsWithMaxBet(25))

	require.True(t, rec.ShouldBet)
	assert.EqualValues(t, 10, rec.Amount)
}

func TestRecommend_LowRiskBoost(t *testing.T) {
	// 60% win rate (low risk): k = (0.6×1.9 − 1) / 0.9 ≈ 15.56%, ×1.5 ≈
	// 23.33%, dentro del cap de 25.
	profile := betting.BuildProfile("chan-1", makeStats(20, 12, 100))

	rec := betting.Recommend(profile, 1000, settingsWithMaxBet(25))

	require.True(t, rec.ShouldBet)
	assert.EqualValues(t, 233, rec.Amount)
}

func TestRecommend_KellyFloorsAtMinimumPct(t *testing.T) {
	// Win rate apenas sobre la franja high: kelly crudo < 1% se eleva al
	// mínimo del 1%.
	profile := betting.BuildProfile("chan-1", makeStats(20, 9, 100))

	rec := betting.Recommend(profile, 1000, settingsWithMaxBet(10))

	require.True(t, rec.ShouldBet)
	assert.EqualValues(t, 10, rec.Amount)
}

func TestRecommend_ZeroStakeMeansNoBet(t *testing.T) {
	profile := betting.BuildProfile("chan-1", makeStats(20, 10, 100))

	// floor(10 × 1%) = 0 → sin apuesta.
	rec := betting.Recommend(profile, 10, settingsWithMaxBet(10))
	assert.False(t, rec.ShouldBet)
}

func TestPayout(t *testing.T) {
	assert.EqualValues(t, 90, betting.Payout(100, domain.BetWin))
	assert.EqualValues(t, -100, betting.Payout(100, domain.BetLoss))
	// floor(55 × 0.9) = 49
	assert.EqualValues(t, 49, betting.Payout(55, domain.BetWin))
}
