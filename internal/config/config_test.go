package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.DialogTimeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
ccomBaseUrl: "http://ccom.local:8080"
dialogTimeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "http://ccom.local:8080", cfg.CCOMBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DialogTimeout)
	// Untouched fields keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `listen: ":9000"`)
	t.Setenv("PROMOUI_LISTEN", ":9100")
	t.Setenv("PROMOUI_RATE_LIMIT", "33")
	t.Setenv("PROMOUI_DIALOG_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Listen)
	assert.Equal(t, 33, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.DialogTimeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [broken")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad ccom url", func(c *Config) { c.CCOMBaseURL = "not a url" }, true},
		{"bad traxis url", func(c *Config) { c.TraxisBaseURL = "://x" }, true},
		{"zero dialog timeout", func(c *Config) { c.DialogTimeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHolder_ReloadSwapsConfig(t *testing.T) {
	path := writeConfig(t, `listen: ":9000"`)
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path, zerolog.Nop())
	assert.Equal(t, ":9000", h.Get().Listen)

	require.NoError(t, os.WriteFile(path, []byte(`listen: ":9001"`), 0o644))
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, ":9001", h.Get().Listen)
}

func TestHolder_BadReloadKeepsOldConfig(t *testing.T) {
	path := writeConfig(t, `listen: ":9000"`)
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path, zerolog.Nop())
	require.NoError(t, os.WriteFile(path, []byte(`dialogTimeout: -5s`), 0o644))

	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, ":9000", h.Get().Listen)
}

func TestHolder_SubscribeReceivesReloads(t *testing.T) {
	path := writeConfig(t, `listen: ":9000"`)
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path, zerolog.Nop())
	ch := make(chan Config, 1)
	h.Subscribe(ch)

	require.NoError(t, os.WriteFile(path, []byte(`listen: ":9002"`), 0o644))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, ":9002", got.Listen)
	default:
		t.Fatal("no config delivered to subscriber")
	}
}
