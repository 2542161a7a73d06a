package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gotorch.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("[log]\nlevel = \"error\"\n"), 0o600))
	t.Chdir(dir)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Print.Color)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"

[runtime]
max_depth = 16

[print]
color = "off"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Runtime.MaxDepth)
	assert.Equal(t, "off", cfg.Print.Color)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[runtime]\nmax_dpth = 3\n", `unknown key "runtime.max_dpth"`},
		{"zero depth", "[runtime]\nmax_depth = 0\n", "max_depth must be positive"},
		{"bad color", "[print]\ncolor = \"blue\"\n", "print.color"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"syntax", "[log\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyColor(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	applyColor("on", false)
	assert.False(t, color.NoColor)
	applyColor("off", true)
	assert.True(t, color.NoColor)

	color.NoColor = false
	applyColor("auto", false)
	assert.True(t, color.NoColor)
}

func TestNewEnv(t *testing.T) {
	cfg := defaultConfig()
	cfg.Runtime.MaxDepth = 8

	e, err := newEnv(cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, e.rt.MaxDepth())
	require.NoError(t, e.close())

	cfg.Log.Level = "loud"
	_, err = newEnv(cfg)
	assert.Error(t, err)
}
