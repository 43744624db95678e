package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
twitch:
  client_id: "abc123"
scheduler:
  reconcile_seconds: 45
  claim_minutes: 10
  wager_minutes: 30
storage:
  dsn: "/tmp/test.db"
log:
  level: "debug"
  format: "json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.Twitch.ClientID)
	assert.Equal(t, 45*time.Second, cfg.ReconcileInterval())
	assert.Equal(t, 10*time.Minute, cfg.ClaimInterval())
	assert.Equal(t, 30*time.Minute, cfg.WagerInterval())
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
twitch:
  client_id: "abc123"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.twitch.tv/helix", cfg.Twitch.HelixBase)
	assert.Equal(t, "https://id.twitch.tv", cfg.Twitch.OAuthBase)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval())
	assert.Equal(t, 5*time.Minute, cfg.ClaimInterval())
	assert.Equal(t, 15*time.Minute, cfg.WagerInterval())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, "miner.db", cfg.Storage.DSN)
	assert.Equal(t, "wss://irc-ws.chat.twitch.tv:443", cfg.Chat.URL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingClientIDFails(t *testing.T) {
	path := writeConfig(t, `
storage:
  dsn: "miner.db"
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesClientID(t *testing.T) {
	t.Setenv("TWITCH_CLIENT_ID", "from-env")
	path := writeConfig(t, `
twitch:
  client_id: "from-yaml"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Twitch.ClientID)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
