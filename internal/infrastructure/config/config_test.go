package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SITEWRAP_CONFIG_ROOT",
		"SITEWRAP_CEF_ROOT",
		"CEF_ROOT",
		"SITEWRAP_ICON_TIMEOUT",
		"SITEWRAP_ICON_USER_AGENT",
		"SITEWRAP_ICON_RPS",
		"SITEWRAP_ICON_RETRIES",
		"LOG_LEVEL",
		"LOG_DEV",
		"SITEWRAP_TICK_INTERVAL",
		"SITEWRAP_EXECUTABLE",
	} {
		// Setenv registers the restore; the key must then be absent, not empty
		t.Setenv(key, os.Getenv(key))
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	// Paths config
	assert.Empty(t, cfg.Paths.Root)

	// Engine config
	assert.Empty(t, cfg.Engine.ResolvedRoot())

	// Icons config
	assert.Equal(t, 10*time.Second, cfg.Icons.Timeout)
	assert.Equal(t, "sitewrap-icon-fetcher/0.1", cfg.Icons.UserAgent)
	assert.Equal(t, 8.0, cfg.Icons.RequestsPerSecond)
	assert.Equal(t, 2, cfg.Icons.RetryMax)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// UI and launcher config
	assert.Equal(t, 16*time.Millisecond, cfg.UI.TickInterval)
	assert.Equal(t, "sitewrap", cfg.Launcher.Executable)
}

func TestLoadMatchesDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"SITEWRAP_CONFIG_ROOT":     "/tmp/sitewrap-test",
		"SITEWRAP_CEF_ROOT":        "/opt/cef",
		"SITEWRAP_ICON_TIMEOUT":    "3s",
		"SITEWRAP_ICON_USER_AGENT": "test-agent/1.0",
		"SITEWRAP_ICON_RPS":        "2.5",
		"SITEWRAP_ICON_RETRIES":    "0",
		"LOG_LEVEL":                "debug",
		"LOG_DEV":                  "true",
		"SITEWRAP_TICK_INTERVAL":   "50ms",
		"SITEWRAP_EXECUTABLE":      "/usr/bin/sitewrap",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sitewrap-test", cfg.Paths.Root)
	assert.Equal(t, "/opt/cef", cfg.Engine.ResolvedRoot())
	assert.Equal(t, 3*time.Second, cfg.Icons.Timeout)
	assert.Equal(t, "test-agent/1.0", cfg.Icons.UserAgent)
	assert.Equal(t, 2.5, cfg.Icons.RequestsPerSecond)
	assert.Equal(t, 0, cfg.Icons.RetryMax)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 50*time.Millisecond, cfg.UI.TickInterval)
	assert.Equal(t, "/usr/bin/sitewrap", cfg.Launcher.Executable)
}

func TestEngineRootFallback(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		fallback string
		want     string
	}{
		{"neither", "", "", ""},
		{"fallback only", "", "/opt/cef", "/opt/cef"},
		{"primary wins", "/opt/sitewrap", "/opt/cef", "/opt/sitewrap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SITEWRAP_CEF_ROOT", tt.root)
			t.Setenv("CEF_ROOT", tt.fallback)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Engine.ResolvedRoot())
		})
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SITEWRAP_TICK_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
