package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/tlisp/internal/cli"
	"github.com/aretw0/tlisp/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tlisp",
	Short: "tlisp is a Lisp for building and running automata on tapes",
	Long: `tlisp evaluates Lisp programs whose automata read and write symbols on tapes.
Named automata can also be loaded from a library directory or a redis store,
run from the command line, served over HTTP or exposed as MCP tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	flags.String("library", "", "Directory of automaton definitions")
	flags.String("redis", "", "Redis address of a writable automaton store")
	flags.Int("step-budget", 0, "Maximum steps of one top-level run (0 selects the default)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Log every run and step")
}

// loadConfig reads the configuration file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if flags.Changed("library") {
		cfg.Library, _ = flags.GetString("library")
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}
	if flags.Changed("step-budget") {
		cfg.StepBudget, _ = flags.GetInt("step-budget")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	return cfg, nil
}

// withApp builds the App for cmd, runs fn under a signal-aware context and closes the App.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	app, err := cli.NewApp(ctx, cfg, debug)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Debug("Interrupted", "signal", sig)
			return nil
		}
		return err
	}
	return nil
}
