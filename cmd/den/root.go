package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/den-shell/den/internal/config"
	"github.com/den-shell/den/internal/shell"
	"github.com/den-shell/den/internal/shellio"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "den [FILE] [ARG]...",
	Short: "den is an interactive bash/zsh-compatible shell",
	Long: `den is an interactive command shell compatible with the
everyday subset of bash/zsh scripting: pipelines, redirections, job
control, parameter and command expansion, and the common builtins.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDen,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("command", "c", "", "run CMD and exit")
	flags.BoolP("interactive", "i", false, "force interactive mode even off a terminal")
	flags.BoolP("login", "l", false, "login shell: source profile files first")
	flags.BoolP("stdin", "s", false, "read commands from standard input")
	flags.Bool("norc", false, "do not source $HOME/.denrc")
	flags.String("rcfile", "", "source PATH instead of $HOME/.denrc")
	flags.Bool("restricted", false, "run as a restricted shell")
	rootCmd.Flags().SortFlags = false

	for _, f := range []string{"command", "interactive", "login", "stdin", "norc", "rcfile", "restricted"} {
		if err := viper.BindPFlag(f, flags.Lookup(f)); err != nil {
			fmt.Fprintf(os.Stderr, "den: warning: failed to bind --%s: %v\n", f, err)
		}
	}

	rootCmd.SetVersionTemplate("den {{.Version}}\n")
	rootCmd.Version = version
}

// Execute parses arguments, builds a shutdown-aware context, and runs
// den. The command's own flow exits the process directly with the
// shell's exit code (see runDen): Execute only returns on a cobra-level
// failure such as an unknown flag, or when the script file or stdin
// cannot be read.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// runDen picks an execution mode from the resolved config and the
// remaining positional arguments, exactly like bash's own precedence:
// `-c CMD` wins outright, then a script-file argument, then `-s` or a
// non-terminal stdin, and the interactive REPL only when none of
// those apply.
func runDen(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	switch {
	case cfg.Command != "":
		c := shell.New(cfg, cfg.ForceInteractive)
		c.Store.SetScriptName(firstOr(args, "den"))
		c.Store.SetFrameArgs(restOr(args))
		c.SourceStartupFiles()
		os.Exit(c.RunScript(ctx, cfg.Command, "-c"))

	case len(args) > 0:
		cfg.ScriptPath = args[0]
		data, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.ScriptPath, err)
		}
		c := shell.New(cfg, cfg.ForceInteractive)
		c.Store.SetScriptName(cfg.ScriptPath)
		c.Store.SetFrameArgs(args[1:])
		c.SourceStartupFiles()
		os.Exit(c.RunScript(ctx, string(data), cfg.ScriptPath))

	case cfg.ReadStdin || !shellio.IsTerminal(os.Stdin):
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		c := shell.New(cfg, cfg.ForceInteractive)
		c.Store.SetScriptName(firstOr(args, "den"))
		c.Store.SetFrameArgs(restOr(args))
		c.SourceStartupFiles()
		os.Exit(c.RunScript(ctx, string(data), "stdin"))

	default:
		interactive := cfg.ForceInteractive || shellio.IsTerminal(os.Stdin)
		c := shell.New(cfg, interactive)
		os.Exit(c.Run(ctx))
	}
	return nil
}

func firstOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}

func restOr(args []string) []string {
	if len(args) > 0 {
		return args[1:]
	}
	return args
}
