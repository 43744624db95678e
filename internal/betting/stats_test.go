package betting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/betting"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// makeStats genera un histórico sintético con wins victorias al principio.
func makeStats(total, wins int, stake int64) []domain.BettingStat {
	stats := make([]domain.BettingStat, 0, total)
	for i := 0; i < total; i++ {
		outcome := domain.BetLoss
		delta := -stake
		if i < wins {
			outcome = domain.BetWin
			delta = stake * 9 / 10
		}
		stats = append(stats, domain.BettingStat{
			ChannelID: "chan-1",
			Stake:     stake,
			Outcome:   outcome,
			Delta:     delta,
			SettledAt: time.Now().UTC(),
		})
	}
	return stats
}

func TestBuildProfile_Empty(t *testing.T) {
	p := betting.BuildProfile("chan-1", nil)

	assert.Equal(t, "chan-1", p.ChannelID)
	assert.Zero(t, p.TotalBets)
	assert.Zero(t, p.WinRate)
	assert.Equal(t, domain.RiskLow, p.Risk, "sin histórico el riesgo es low (cold start)")
}

func TestBuildProfile_Aggregates(t *testing.T) {
	p := betting.BuildProfile("chan-1", makeStats(20, 12, 100))

	assert.Equal(t, 20, p.TotalBets)
	assert.Equal(t, 12, p.Wins)
	assert.Equal(t, 8, p.Losses)
	assert.InDelta(t, 60.0, p.WinRate, 0.001)
	assert.InDelta(t, 100.0, p.AvgStake, 0.001)
	// 12 wins de +90 y 8 losses de -100
	assert.EqualValues(t, 12*90-8*100, p.NetProfit)
}

func TestRiskLevel_Buckets(t *testing.T) {
	cases := []struct {
		name  string
		total int
		wins  int
		want  domain.RiskLevel
	}{
		{"cold start siempre low", 5, 0, domain.RiskLow},
		{"win rate 60 low", 20, 12, domain.RiskLow},
		{"borde exacto 55 low", 20, 11, domain.RiskLow},
		{"win rate 50 medium", 20, 10, domain.RiskMedium},
		{"borde exacto 45 medium", 20, 9, domain.RiskMedium},
		{"win rate 33 high", 30, 10, domain.RiskHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := betting.BuildProfile("chan-1", makeStats(tc.total, tc.wins, 100))
			assert.Equal(t, tc.want, p.Risk)
		})
	}
}
