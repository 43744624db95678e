package betting

import (
	"fmt"
	"math"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

const (
	// avgReturn es el retorno medio asumido de una predicción ganada
	// (stake × 1.9 de vuelta).
	avgReturn = 1.9

	// minSamplePoints es el balance mínimo para arriesgar el sample bet.
	minSamplePoints = 100

	samplePct        = 1.0
	lowRiskBoost     = 1.5
	StrategySample   = "conservative_sample"
	StrategyKelly    = "kelly"
)

// Recommend deriva la recomendación de stake para un canal a partir de su
// perfil de riesgo. Solo lee: el caller registra el resultado realizado como
// BettingStat y re-agrega antes de la siguiente recomendación.
func Recommend(profile domain.RiskProfile, currentPoints int64, settings domain.Settings) domain.Recommendation {
	// Cold start: sin histórico suficiente, sample bet conservador del 1%.
	if profile.TotalBets < coldStartBets {
		if currentPoints <= minSamplePoints {
			return domain.Recommendation{
				ShouldBet: false,
				Reason:    fmt.Sprintf("balance %d too low for sample bet", currentPoints),
			}
		}
		return domain.Recommendation{
			ShouldBet: true,
			Amount:    stakeFor(currentPoints, samplePct),
			Strategy:  StrategySample,
			Reason:    fmt.Sprintf("cold start (%d bets), 1%% sample", profile.TotalBets),
		}
	}

	// Histórico malo y suficiente como para fiarse de él: fuera.
	if profile.Risk == domain.RiskHigh && profile.TotalBets > poorPerformerAt {
		return domain.Recommendation{
			ShouldBet: false,
			Reason: fmt.Sprintf("avoid poor performer (win rate %.1f%% over %d bets)",
				profile.WinRate, profile.TotalBets),
		}
	}

	// Fracción tipo Kelly: k = (p·b − 1) / (b − 1) con b = avgReturn.
	winProb := profile.WinRate / 100
	k := (winProb*avgReturn - 1) / (avgReturn - 1)

	pct := clampPct(k*100, settings.MaxBetPercentage)
	if profile.Risk == domain.RiskLow {
		pct = clampPct(pct*lowRiskBoost, settings.MaxBetPercentage)
	}

	amount := stakeFor(currentPoints, pct)
	if amount <= 0 {
		return domain.Recommendation{
			ShouldBet: false,
			Reason:    fmt.Sprintf("balance %d too low for %.1f%% stake", currentPoints, pct),
		}
	}

	return domain.Recommendation{
		ShouldBet: true,
		Amount:    amount,
		Strategy:  StrategyKelly,
		Reason: fmt.Sprintf("kelly %.1f%% (win rate %.1f%%, risk %s)",
			pct, profile.WinRate, profile.Risk),
	}
}

// Payout devuelve el delta neto de puntos de una apuesta liquidada: una
// predicción ganada devuelve stake × avgReturn, así que el neto es
// stake × (avgReturn − 1); una perdida cuesta el stake entero.
func Payout(stake int64, outcome domain.BetOutcome) int64 {
	if outcome == domain.BetWin {
		return int64(math.Floor(float64(stake) * (avgReturn - 1)))
	}
	return -stake
}

// clampPct acota el porcentaje al rango [1, maxPct].
func clampPct(pct, maxPct float64) float64 {
	if pct < domain.MinBetPercentage {
		return domain.MinBetPercentage
	}
	if pct > maxPct {
		return maxPct
	}
	return pct
}

// stakeFor devuelve floor(points × pct / 100).
func stakeFor(points int64, pct float64) int64 {
	return int64(math.Floor(float64(points) * pct / 100))
}
