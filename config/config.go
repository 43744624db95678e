package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del miner.
type Config struct {
	Twitch    TwitchConfig    `yaml:"twitch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Chat      ChatConfig      `yaml:"chat"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// TwitchConfig contiene credenciales de app y base URLs de la API.
type TwitchConfig struct {
	ClientID  string `yaml:"client_id"`
	HelixBase string `yaml:"helix_base"`
	OAuthBase string `yaml:"oauth_base"`
}

// SchedulerConfig controla las cadencias de los ciclos periódicos.
type SchedulerConfig struct {
	ReconcileSeconds int `yaml:"reconcile_seconds"`
	ClaimMinutes     int `yaml:"claim_minutes"`
	WagerMinutes     int `yaml:"wager_minutes"`
	ShutdownSeconds  int `yaml:"shutdown_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// ChatConfig controla el gateway de chat IRC.
type ChatConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// TelegramConfig controla el notificador opcional de Telegram.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío = sin servidor de métricas
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys sensibles.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.Twitch.ClientID == "" {
		return nil, fmt.Errorf("config.Load: twitch client_id ausente (YAML o TWITCH_CLIENT_ID)")
	}

	return &cfg, nil
}

// ReconcileInterval devuelve la cadencia del ciclo de reconciliación.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Scheduler.ReconcileSeconds) * time.Second
}

// ClaimInterval devuelve la cadencia del ciclo de claims.
func (c *Config) ClaimInterval() time.Duration {
	return time.Duration(c.Scheduler.ClaimMinutes) * time.Minute
}

// WagerInterval devuelve la cadencia del ciclo de apuestas.
func (c *Config) WagerInterval() time.Duration {
	return time.Duration(c.Scheduler.WagerMinutes) * time.Minute
}

// ShutdownTimeout devuelve el tiempo máximo de drain al apagar.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Scheduler.ShutdownSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWITCH_CLIENT_ID"); v != "" {
		cfg.Twitch.ClientID = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Twitch.HelixBase == "" {
		cfg.Twitch.HelixBase = "https://api.twitch.tv/helix"
	}
	if cfg.Twitch.OAuthBase == "" {
		cfg.Twitch.OAuthBase = "https://id.twitch.tv"
	}
	if cfg.Scheduler.ReconcileSeconds <= 0 {
		cfg.Scheduler.ReconcileSeconds = 30
	}
	if cfg.Scheduler.ClaimMinutes <= 0 {
		cfg.Scheduler.ClaimMinutes = 5
	}
	if cfg.Scheduler.WagerMinutes <= 0 {
		cfg.Scheduler.WagerMinutes = 15
	}
	if cfg.Scheduler.ShutdownSeconds <= 0 {
		cfg.Scheduler.ShutdownSeconds = 10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "miner.db"
	}
	if cfg.Chat.URL == "" {
		cfg.Chat.URL = "wss://irc-ws.chat.twitch.tv:443"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
