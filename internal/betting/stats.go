package betting

import (
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Umbrales del bucket de riesgo.
const (
	coldStartBets   = 10 // por debajo, el histórico no es señal
	poorPerformerAt = 20 // high risk con más de esto → no apostar
	lowRiskWinRate  = 55.0
	highRiskWinRate = 45.0
)

// BuildProfile agrega el histórico append-only de un canal en su perfil de
// riesgo. El perfil es derivado: nunca se almacena.
func BuildProfile(channelID string, stats []domain.BettingStat) domain.RiskProfile {
	p := domain.RiskProfile{ChannelID: channelID}

	var stakeSum int64
	for _, st := range stats {
		p.TotalBets++
		switch st.Outcome {
		case domain.BetWin:
			p.Wins++
		case domain.BetLoss:
			p.Losses++
		}
		stakeSum += st.Stake
		p.NetProfit += st.Delta
	}

	if p.TotalBets > 0 {
		p.WinRate = float64(p.Wins) / float64(p.TotalBets) * 100
		p.AvgStake = float64(stakeSum) / float64(p.TotalBets)
	}
	p.Risk = riskLevel(p.TotalBets, p.WinRate)
	return p
}

// riskLevel clasifica: low con poco histórico o win rate alto, medium en la
// franja 45–55, high por debajo.
func riskLevel(totalBets int, winRate float64) domain.RiskLevel {
	switch {
	case totalBets < coldStartBets || winRate >= lowRiskWinRate:
		return domain.RiskLow
	case winRate >= highRiskWinRate:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}
