package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smartmeal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Match.Threshold)
	assert.Equal(t, 3*time.Second, cfg.Navigator.RecoveryDelay)
	assert.Equal(t, 5*time.Minute, cfg.Navigator.HealthInterval)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
match:
  threshold: 0.6
navigator:
  recovery_delay: 500ms
store:
  driver: badger
  path: /tmp/sessions
server:
  cors_origins: [http://localhost:3000]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Match.Threshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Navigator.RecoveryDelay)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "match:\n  threshold: 0.6\n")
	t.Setenv("SMARTMEAL_MATCH_THRESHOLD", "0.9")
	t.Setenv("SMARTMEAL_NAVIGATOR_CALL_TIMEOUT", "2s")
	t.Setenv("SMARTMEAL_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SMARTMEAL_BREAKER_MAX_FAILURES", "7")
	t.Setenv("SMARTMEAL_STORE_FALLBACK_KEYS", "b2xkLWtleQ==,b2xkZXIta2V5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Match.Threshold)
	assert.Equal(t, 2*time.Second, cfg.Navigator.CallTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, uint32(7), cfg.Breaker.MaxFailures)
	assert.Equal(t, []string{"b2xkLWtleQ==", "b2xkZXIta2V5"}, cfg.Store.FallbackKeys)
}

func TestLoad_PathFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(PathEnvVar, writeFile(t, "log:\n  level: debug\n  format: json\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte("server:\n  addr: \":9999\"\n"), 0o600))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"threshold zero", "match:\n  threshold: 0\n"},
		{"threshold above one", "match:\n  threshold: 1.5\n"},
		{"unknown driver", "store:\n  driver: postgres\n"},
		{"unknown log level", "log:\n  level: loud\n"},
		{"bad tree url", "tree:\n  url: not a url\n"},
		{"zero breaker failures", "breaker:\n  max_failures: 0\n"},
		{"encryption key not base64", "store:\n  encryption_key: \"not base64!\"\n"},
		{"sse without addr", "mcp:\n  transport: sse\n  addr: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml))
			assert.ErrorContains(t, err, "configuration validation failed")
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "navigator.recovery_delay", envKey("SMARTMEAL_NAVIGATOR_RECOVERY_DELAY"))
	assert.Equal(t, "store.redis_addr", envKey("SMARTMEAL_STORE_REDIS_ADDR"))
	assert.Equal(t, "", envKey("SMARTMEAL_CONFIG"))
}
