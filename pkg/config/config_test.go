package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "GIN_MODE", "DATABASE_URL", "DATA_PATH", "JWT_SECRET", "API_MASTER_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	clearLegacyEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  port: 9000
  mode: debug
database:
  path: "/tmp/crew.db"
auth:
  jwt_secret: "file-secret"
  api_master_secret: "master"
scheduling:
  lenient_dates: true
notify:
  mqtt:
    enabled: true
    broker: "tcp://localhost:1883"
    qos: 1
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CREW_AUTH__JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"port", cfg.Server.Port, 9000},
		{"mode", cfg.Server.Mode, "debug"},
		{"db path", cfg.Database.Path, "/tmp/crew.db"},
		{"jwt override", cfg.Auth.JWTSecret, "env-secret"},
		{"lenient", cfg.Scheduling.LenientDates, true},
		{"mqtt broker", cfg.Notify.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt qos", cfg.Notify.MQTT.QoS, byte(1)},
		{"mqtt prefix default", cfg.Notify.MQTT.TopicPrefix, "crew"},
		{"admin default", cfg.Auth.AdminUsername, "admin"},
		{"log format", cfg.Logging.Format, "console"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestLoad_LegacyEnvWithoutFile(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("PORT", "8123")
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("API_MASTER_SECRET", "legacy-master")
	t.Setenv("DATABASE_URL", "postgres://crew@localhost/crew")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "legacy", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://crew@localhost/crew", cfg.Database.URL)
	assert.False(t, cfg.Scheduling.LenientDates)
}

func TestLoad_Errors(t *testing.T) {
	clearLegacyEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err, "unsupported extension")

	_, err = Load("")
	assert.ErrorContains(t, err, "jwt_secret")

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth":{"jwt_secret":"a","api_master_secret":"b"},"notify":{"email":{"enabled":true}}}`), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "notify.email.endpoint")
}
