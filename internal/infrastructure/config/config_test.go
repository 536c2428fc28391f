package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("ABEVAL_DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file:"+filepath.Join(dataHome, "abeval", "abeval.db"), cfg.Database.URL)
	assert.Equal(t, 3, cfg.Database.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Otel.Enabled)
	assert.Equal(t, "abeval", cfg.Pushgateway.Job)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ABEVAL_DATABASE_URL", "libsql://abeval-demo.turso.io")
	t.Setenv("ABEVAL_AUTH_TOKEN", "secret")
	t.Setenv("ABEVAL_DB_MAX_RETRIES", "5")
	t.Setenv("ABEVAL_OTEL_ENABLED", "true")
	t.Setenv("ABEVAL_OTEL_ENDPOINT", "localhost:4317")
	t.Setenv("ABEVAL_PUSHGATEWAY_URL", "http://localhost:9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "libsql://abeval-demo.turso.io", cfg.Database.URL)
	assert.Equal(t, "secret", cfg.Database.AuthToken)
	assert.Equal(t, 5, cfg.Database.MaxRetries)
	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Otel.Endpoint)
	assert.Equal(t, "http://localhost:9091", cfg.Pushgateway.URL)
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	t.Setenv("ABEVAL_DATABASE_URL", "file:x.db")
	t.Setenv("ABEVAL_DB_MAX_RETRIES", "-1")

	_, err := Load()
	assert.Error(t, err)
}
