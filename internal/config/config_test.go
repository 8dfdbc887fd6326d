package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Auth.AccessTTLMinutes)
	assert.Equal(t, 72, cfg.Auth.RefreshTTLHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestLoadConfigFileOverridesEnvironment(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8080")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9090\ndatabase:\n  driver: memory\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	// Untouched by the file, so the environment value survives.
	assert.Equal(t, "test-secret", cfg.Auth.Secret)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestCORSOrigins(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: "https://a.example.com, https://b.example.com ,"}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Origins())
}
