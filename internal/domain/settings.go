package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Nombres de las opciones persistidas en el store de settings.
const (
	SettingConcurrentStreams    = "concurrent_streams"
	SettingDropAllocationPct    = "drop_allocation_percent"
	SettingMaxBetPercentage     = "max_bet_percentage"
	SettingClaimIntervalMinutes = "claim_interval_minutes"
	SettingDropGameWhitelist    = "drop_game_whitelist"
)

// Límites de cada opción. Un valor fuera de rango se rechaza antes de
// aplicarse — nunca se persiste un bound inválido.
const (
	MinConcurrentStreams = 1
	MaxConcurrentStreams = 10
	MinDropAllocationPct = 10
	MaxDropAllocationPct = 50
	MinBetPercentage     = 1
	MaxBetPercentageCap  = 25
)

// Settings son los bounds operativos leídos por cada componente.
type Settings struct {
	ConcurrentStreams    int
	DropAllocationPct    int
	MaxBetPercentage     float64
	ClaimIntervalMinutes int
	DropGameWhitelist    []string
}

// DefaultSettings devuelve los valores sembrados al arrancar.
func DefaultSettings() Settings {
	return Settings{
		ConcurrentStreams:    2,
		DropAllocationPct:    30,
		MaxBetPercentage:     10,
		ClaimIntervalMinutes: 5,
		DropGameWhitelist:    []string{"Rust", "Special Events"},
	}
}

// ClaimInterval devuelve el intervalo mínimo entre claims como Duration.
func (s Settings) ClaimInterval() time.Duration {
	return time.Duration(s.ClaimIntervalMinutes) * time.Minute
}

// IsDropGame devuelve true si el juego está en la whitelist de drops.
// La comparación ignora mayúsculas.
func (s Settings) IsDropGame(game string) bool {
	if game == "" {
		return false
	}
	for _, g := range s.DropGameWhitelist {
		if strings.EqualFold(g, game) {
			return true
		}
	}
	return false
}

// Validate rechaza cualquier bound fuera de rango. Se invoca al cargar y
// después de cada escritura.
func (s Settings) Validate() error {
	if s.ConcurrentStreams < MinConcurrentStreams || s.ConcurrentStreams > MaxConcurrentStreams {
		return fmt.Errorf("settings: concurrent_streams %d fuera de rango [%d, %d]",
			s.ConcurrentStreams, MinConcurrentStreams, MaxConcurrentStreams)
	}
	if s.DropAllocationPct < MinDropAllocationPct || s.DropAllocationPct > MaxDropAllocationPct {
		return fmt.Errorf("settings: drop_allocation_percent %d fuera de rango [%d, %d]",
			s.DropAllocationPct, MinDropAllocationPct, MaxDropAllocationPct)
	}
	if s.MaxBetPercentage < MinBetPercentage || s.MaxBetPercentage > MaxBetPercentageCap {
		return fmt.Errorf("settings: max_bet_percentage %.1f fuera de rango [%d, %d]",
			s.MaxBetPercentage, MinBetPercentage, MaxBetPercentageCap)
	}
	if s.ClaimIntervalMinutes < 1 {
		return fmt.Errorf("settings: claim_interval_minutes %d debe ser >= 1", s.ClaimIntervalMinutes)
	}
	return nil
}

// ToMap serializa los settings al formato name→value del store.
func (s Settings) ToMap() map[string]string {
	return map[string]string{
		SettingConcurrentStreams:    strconv.Itoa(s.ConcurrentStreams),
		SettingDropAllocationPct:    strconv.Itoa(s.DropAllocationPct),
		SettingMaxBetPercentage:     strconv.FormatFloat(s.MaxBetPercentage, 'f', -1, 64),
		SettingClaimIntervalMinutes: strconv.Itoa(s.ClaimIntervalMinutes),
		SettingDropGameWhitelist:    strings.Join(s.DropGameWhitelist, ","),
	}
}

// SettingsFromMap parsea el mapa name→value del store. Las keys ausentes
// conservan el default; un valor ilegible o fuera de rango es un error.
func SettingsFromMap(values map[string]string) (Settings, error) {
	s := DefaultSettings()

	if v, ok := values[SettingConcurrentStreams]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: concurrent_streams %q: %w", v, err)
		}
		s.ConcurrentStreams = n
	}
	if v, ok := values[SettingDropAllocationPct]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: drop_allocation_percent %q: %w", v, err)
		}
		s.DropAllocationPct = n
	}
	if v, ok := values[SettingMaxBetPercentage]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: max_bet_percentage %q: %w", v, err)
		}
		s.MaxBetPercentage = f
	}
	if v, ok := values[SettingClaimIntervalMinutes]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: claim_interval_minutes %q: %w", v, err)
		}
		s.ClaimIntervalMinutes = n
	}
	if v, ok := values[SettingDropGameWhitelist]; ok {
		var games []string
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				games = append(games, g)
			}
		}
		s.DropGameWhitelist = games
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
