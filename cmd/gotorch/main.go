// Package main provides the gotorch CLI for running, inspecting and
// exporting script modules.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/jit"
)

var rootCmd = &cobra.Command{
	Use:   "gotorch",
	Short: "Run and inspect gotorch script modules",
	Long: `gotorch compiles script modules, runs their methods on tensors given as
JSON arrays, and reads or writes .born module archives.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML config file (default "+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is the per-invocation state shared by subcommands.
type env struct {
	cfg Config
	rt  *capi.Runtime
	log *zap.Logger
}

type envKey struct{}

// setup loads the config, applies flag overrides, installs the logger and
// creates the runtime for the subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("color") {
		cfg.Print.Color, _ = cmd.Flags().GetString("color")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}
	applyColor(cfg.Print.Color, isTerminal(os.Stdout))
	cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
	return nil
}

// newEnv builds the logger and runtime described by cfg.
func newEnv(cfg Config) (*env, error) {
	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	capi.SetLogger(log)
	jit.SetLogger(log)

	cfg.Runtime.Logger = log
	return &env{cfg: cfg, rt: capi.New(cfg.Runtime), log: log}, nil
}

// close releases whatever handles a command left behind.
func (e *env) close() error {
	if n := e.rt.Stats().Total(); n > 0 {
		e.log.Debug("releasing live handles", zap.Int("count", n))
	}
	err := e.rt.Close()
	_ = e.log.Sync()
	return err
}

func teardown(cmd *cobra.Command, _ []string) error {
	if e, err := envFrom(cmd); err == nil {
		return e.close()
	}
	return nil
}

func envFrom(cmd *cobra.Command) (*env, error) {
	e, ok := cmd.Context().Value(envKey{}).(*env)
	if !ok {
		return nil, errors.New("gotorch: command environment not initialized")
	}
	return e, nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
