package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/gotorch/capi"
)

const defaultConfigFile = "gotorch.toml"

// Config is the contents of gotorch.toml.
//
//	[log]
//	level = "debug"
//
//	[runtime]
//	max_depth = 64
//
//	[print]
//	color = "auto"
type Config struct {
	Log     LogConfig   `toml:"log"`
	Runtime capi.Config `toml:"runtime"`
	Print   PrintConfig `toml:"print"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// PrintConfig controls terminal output.
type PrintConfig struct {
	Color string `toml:"color"`
}

func defaultConfig() Config {
	return Config{
		Log:   LogConfig{Level: "warn"},
		Print: PrintConfig{Color: "auto"},
	}
}

// loadConfig reads the config at path. An empty path falls back to
// gotorch.toml in the working directory, and to the defaults if that file
// does not exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = defaultConfigFile
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("runtime", "max_depth") && cfg.Runtime.MaxDepth <= 0 {
		return Config{}, fmt.Errorf("%s: runtime.max_depth must be positive, got %d", path, cfg.Runtime.MaxDepth)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Print.Color) {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("print.color must be auto, on or off, got %q", c.Print.Color)
	}
	return nil
}

// newLogger builds a stderr logger. Debug uses the development encoder.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// applyColor sets the global color mode. Auto follows the terminal.
func applyColor(mode string, tty bool) {
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = color.NoColor || !tty
	}
}
