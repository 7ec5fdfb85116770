package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at temp dirs so no real
// config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, cfg.Table)
	assert.Equal(t, BackendREST, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".tada", "tada.log"), cfg.LogFile)
	assert.Equal(t, ":54321", cfg.ServeAddr)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadEnvAndDotenv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("SUPABASE_URL=https://abc.supabase.co\nTADA_TABLE=Chores\n"), 0o600))
	t.Setenv("TADA_LOG_LEVEL", "debug")
	t.Setenv("TADA_TIMEOUT", "5s")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.URL)
	assert.Equal(t, "Chores", cfg.Table)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	// godotenv does not override the real environment; drop what it set.
	os.Unsetenv("SUPABASE_URL")
	os.Unsetenv("TADA_TABLE")
}

func TestLoadFileAndOverrides(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "tada.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
url = "https://file.example"
backend = "json"
theme = "neon"

[log]
level = "warn"
`), 0o600))

	cfg, err := Load(p, map[string]any{"backend": "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "https://file.example", cfg.URL)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	isolate(t)

	_, err := Load("", map[string]any{"backend": "mongo"})
	require.ErrorContains(t, err, "unknown backend")

	_, err = Load("", map[string]any{"table": " "})
	require.ErrorContains(t, err, "table")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
}
