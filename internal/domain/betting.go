package domain

import "time"

// BetOutcome es el resultado de una apuesta liquidada.
type BetOutcome string

const (
	BetWin  BetOutcome = "win"
	BetLoss BetOutcome = "loss"
)

// RiskLevel es el bucket de riesgo derivado del histórico de un canal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BettingStat es una fila append-only por apuesta liquidada.
type BettingStat struct {
	ID        int64
	AccountID int64
	ChannelID string
	Stake     int64
	Outcome   BetOutcome
	Strategy  string
	Delta     int64 // resultado neto en puntos: positivo en win, negativo en loss
	SettledAt time.Time
}

// RiskProfile es el agregado derivado (nunca almacenado) del histórico de
// apuestas de un canal.
type RiskProfile struct {
	ChannelID string
	TotalBets int
	Wins      int
	Losses    int
	WinRate   float64 // porcentaje 0–100
	AvgStake  float64
	NetProfit int64
	Risk      RiskLevel
}

// Recommendation es la salida del motor de recomendación de apuestas.
type Recommendation struct {
	ShouldBet bool
	Amount    int64
	Strategy  string
	Reason    string
}
