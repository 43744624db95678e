package outcome

// simulated.go — settlement y claims simulados detrás de los ports, para
// correr el miner sin el mecanismo real. Sustituir la implementación no
// toca la lógica de allocation ni de recomendación.

import (
	"context"
	"math/rand"
	"sync"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Simulated implementa ports.OutcomeSource y ports.PointClaimer con
// resultados pseudoaleatorios.
type Simulated struct {
	mu      sync.Mutex
	rng     *rand.Rand
	winProb float64
	claim   int64
}

// NewSimulated crea la fuente simulada. winProb es la probabilidad de win
// por apuesta; claimPoints la cantidad fija por claim.
func NewSimulated(seed int64, winProb float64, claimPoints int64) *Simulated {
	if winProb <= 0 || winProb >= 1 {
		winProb = 0.5
	}
	if claimPoints <= 0 {
		claimPoints = 50
	}
	return &Simulated{
		rng:     rand.New(rand.NewSource(seed)),
		winProb: winProb,
		claim:   claimPoints,
	}
}

// Settle resuelve la apuesta con la probabilidad configurada.
func (s *Simulated) Settle(_ context.Context, _ string, _ int64) (domain.BetOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < s.winProb {
		return domain.BetWin, nil
	}
	return domain.BetLoss, nil
}

// Claim devuelve la cantidad fija de puntos configurada.
func (s *Simulated) Claim(_ context.Context, _ int64, _ string) (int64, error) {
	return s.claim, nil
}
