package domain

import "time"

// AccountStatus es el estado del ciclo de vida de una cuenta.
type AccountStatus string

const (
	StatusIdle    AccountStatus = "idle"
	StatusFarming AccountStatus = "farming"
)

// Account es una cuenta de Twitch vinculada al miner.
type Account struct {
	ID           int64
	Username     string
	AccessToken  string
	RefreshToken string
	Status       AccountStatus
	Points       int64 // balance acumulado de channel points
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFarming devuelve true si la cuenta está activa para el ciclo de farming.
func (a Account) IsFarming() bool {
	return a.Status == StatusFarming
}

// CanRefresh devuelve true si la cuenta tiene credenciales renovables.
func (a Account) CanRefresh() bool {
	return a.RefreshToken != ""
}
