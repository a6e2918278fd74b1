// Package config resolves den's startup configuration: the handful of
// invocation-level knobs spec.md §6 lists (-c, -i, -l, -s, --norc,
// --rcfile) plus their environment-variable overrides. It is adapted
// from the teacher's internal/infrastructure/config package, trading
// its AI-session settings (model, token budget, welcome/goodbye text)
// for den's own; the viper-backed flag/env-var/default precedence
// chain is kept as-is.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/den-shell/den/internal/shellio"
)

// Config holds den's resolved startup configuration, in order of
// priority: command-line flags, then DEN_-prefixed environment
// variables, then these defaults.
type Config struct {
	// Command is the script text given via `-c`. Empty means no -c was
	// given.
	Command string
	// ForceInteractive corresponds to `-i`: treat the session as
	// interactive (prompt, history, traps fire) even if stdin isn't a
	// terminal.
	ForceInteractive bool
	// Login corresponds to `-l`: source login-profile files before the
	// interactive session or script begins.
	Login bool
	// ReadStdin corresponds to `-s`: read commands from stdin even when
	// positional arguments are also given (they become $1, $2, ...).
	ReadStdin bool
	// NoRC corresponds to `--norc`: skip sourcing $HOME/.denrc.
	NoRC bool
	// RCFile corresponds to `--rcfile PATH`: source PATH instead of the
	// default $HOME/.denrc.
	RCFile string
	// ScriptPath is the first non-flag argument when den is invoked as
	// `den script.sh args...`; empty when running as `-c`, `-s`, or
	// interactively.
	ScriptPath string
	// ScriptArgs are positional parameters for ScriptPath or Command.
	ScriptArgs []string

	// HistoryFile is $HISTFILE's default when the variable is unset in
	// the environment; resolved once here so cmd/den doesn't duplicate
	// shellio's home-expansion logic.
	HistoryFile string
	// HistSize/HistFileSize mirror $HISTSIZE/$HISTFILESIZE defaults.
	HistSize     int
	HistFileSize int

	// Restricted corresponds to launching den with `--restricted` (or
	// DEN_RESTRICTED): sets the `restricted` shell option from startup,
	// per spec.md §4.G.
	Restricted bool
}

// Defaults returns a Config with den's built-in defaults, before any
// flag or environment override is applied.
func Defaults() *Config {
	return &Config{
		HistoryFile:  shellio.DefaultHistoryPath(),
		HistSize:     500,
		HistFileSize: 500,
	}
}

// Load resolves Config from viper, which the caller (cmd/den's cobra
// root command) is expected to have already populated via
// BindPFlag calls for each CLI flag before this runs.
func Load() *Config {
	cfg := Defaults()

	viper.SetEnvPrefix("DEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.IsSet("command") {
		cfg.Command = viper.GetString("command")
	}
	if viper.IsSet("interactive") {
		cfg.ForceInteractive = viper.GetBool("interactive")
	}
	if viper.IsSet("login") {
		cfg.Login = viper.GetBool("login")
	}
	if viper.IsSet("stdin") {
		cfg.ReadStdin = viper.GetBool("stdin")
	}
	if viper.IsSet("norc") {
		cfg.NoRC = viper.GetBool("norc")
	}
	if viper.IsSet("rcfile") {
		cfg.RCFile = viper.GetString("rcfile")
	}
	if viper.IsSet("restricted") {
		cfg.Restricted = viper.GetBool("restricted")
	}
	if viper.IsSet("histfile") {
		cfg.HistoryFile = viper.GetString("histfile")
	}
	if viper.IsSet("histsize") {
		if v := viper.GetInt("histsize"); v > 0 {
			cfg.HistSize = v
		}
	}
	if viper.IsSet("histfilesize") {
		if v := viper.GetInt("histfilesize"); v > 0 {
			cfg.HistFileSize = v
		}
	}

	cfg.HistoryFile = shellio.ExpandHome(cfg.HistoryFile)
	if cfg.RCFile != "" {
		cfg.RCFile = shellio.ExpandHome(cfg.RCFile)
	}
	return cfg
}
