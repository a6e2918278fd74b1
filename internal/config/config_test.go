package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func resetViper() {
	viper.Reset()
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 500, cfg.HistSize)
	assert.Equal(t, 500, cfg.HistFileSize)
	assert.False(t, cfg.NoRC)
	assert.False(t, cfg.Restricted)
}

func TestLoadEnvOverrides(t *testing.T) {
	defer resetViper()
	resetViper()

	t.Setenv("DEN_NORC", "true")
	t.Setenv("DEN_RCFILE", "/tmp/myrc")
	t.Setenv("DEN_HISTSIZE", "50")
	t.Setenv("DEN_RESTRICTED", "true")

	cfg := Load()
	assert.True(t, cfg.NoRC)
	assert.Equal(t, "/tmp/myrc", cfg.RCFile)
	assert.Equal(t, 50, cfg.HistSize)
	assert.True(t, cfg.Restricted)
}

func TestLoadZeroHistSizeFallsBackToDefault(t *testing.T) {
	defer resetViper()
	resetViper()

	t.Setenv("DEN_HISTSIZE", "0")

	cfg := Load()
	assert.Equal(t, 500, cfg.HistSize)
}

func TestLoadExpandsHistoryFileTilde(t *testing.T) {
	defer resetViper()
	resetViper()

	t.Setenv("DEN_HISTFILE", "~/custom_history")

	cfg := Load()
	assert.NotContains(t, cfg.HistoryFile, "~")
}
