package main

import (
	"context"
	"os"

	"github.com/aretw0/tlisp/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Evaluate source files",
	Long:  `Evaluates the files in order in one global scope and prints the last value.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunFiles(ctx, app, os.Stdout, args...)
		})
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval EXPR",
	Short: "Evaluate an expression and print its value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.EvalSource(ctx, app, os.Stdout, args[0])
		})
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if watch {
				if err := cli.WatchLibrary(ctx, app, os.Stderr); err != nil {
					return err
				}
			}
			return cli.RunREPL(ctx, app, os.Stdin, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd, evalCmd, replCmd)

	replCmd.Flags().BoolP("watch", "w", false, "Reload library automata when their files change")

	// 'repl' is the default when no command is provided.
	rootCmd.RunE = replCmd.RunE
	rootCmd.Flags().AddFlagSet(replCmd.Flags())
}
