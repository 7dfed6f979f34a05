package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 8120, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "Nucleus Preview", cfg.Preview.Title)
	assert.Equal(t, "./fragments", cfg.Fragments.Dir)
	assert.Contains(t, cfg.Fragments.Extensions, ".ncl")
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nucleator.yml")
	content := `
server:
  port: 9000
  host: 0.0.0.0
preview:
  title: Storefront
fragments:
  dir: ./partials
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "Storefront", cfg.Preview.Title)
	assert.Equal(t, "./partials", cfg.Fragments.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NUCLEATOR_SERVER_PORT", "7777")

	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"port out of range", "server.port", 70000},
		{"negative port", "server.port", -1},
		{"dangerous host", "server.host", "localhost;rm"},
		{"traversal in fragments dir", "fragments.dir", "../../etc"},
		{"extension without dot", "fragments.extensions", []string{"ncl"}},
		{"negative debounce", "watch.debounce_ms", -5},
		{"bad log format", "logging.format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestMissingConfigFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8120, cfg.Server.Port)
}

func TestExplicitMissingConfigFileErrors(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
