package main

import (
	"context"
	"os"

	"github.com/aretw0/tlisp/internal/cli"
	"github.com/aretw0/tlisp/pkg/domain"
	"github.com/spf13/cobra"
)

var automatonCmd = &cobra.Command{
	Use:     "automaton",
	Aliases: []string{"a"},
	Short:   "Run, describe and check named automata",
}

var automatonRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run an automaton on the given tapes",
	Long: `Runs a named automaton with one --tape per tape, each read one symbol per character.
The exit status is 1 when the automaton rejects.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tapes, _ := cmd.Flags().GetStringArray("tape")
		trace, _ := cmd.Flags().GetBool("trace")
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			res, err := cli.RunAutomaton(ctx, app, os.Stdout, cli.RunOptions{
				Name:  args[0],
				Tapes: tapes,
				Trace: trace,
				JSON:  asJSON,
			})
			if err != nil {
				return err
			}
			if res.Outcome == domain.OutcomeReject {
				return &cli.ExitError{Outcome: res.Outcome}
			}
			return nil
		})
	},
}

var automatonDescribeCmd = &cobra.Command{
	Use:   "describe NAME",
	Short: "Print the states and transitions of an automaton",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.Describe(ctx, app, os.Stdout, args[0], raw)
		})
	},
}

var automatonGraphCmd = &cobra.Command{
	Use:   "graph NAME",
	Short: "Print a Mermaid diagram of an automaton",
	Long:  `Prints a Mermaid flowchart. With --tape, the states a run on those tapes visits are highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tapes, _ := cmd.Flags().GetStringArray("tape")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.Graph(ctx, app, os.Stdout, args[0], tapes)
		})
	},
}

var automatonValidateCmd = &cobra.Command{
	Use:   "validate [NAME...]",
	Short: "Check library definitions",
	Long:  `Checks the named definitions, or every definition in the library, for errors and dead code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.Validate(ctx, app, os.Stdout, args...)
		})
	},
}

func init() {
	rootCmd.AddCommand(automatonCmd)
	automatonCmd.AddCommand(automatonRunCmd, automatonDescribeCmd, automatonGraphCmd, automatonValidateCmd)

	automatonRunCmd.Flags().StringArrayP("tape", "t", nil, "Tape contents, repeat once per tape")
	automatonRunCmd.Flags().Bool("trace", false, "Print every step")
	automatonRunCmd.Flags().Bool("json", false, "Print the result as JSON")

	automatonDescribeCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")

	automatonGraphCmd.Flags().StringArrayP("tape", "t", nil, "Highlight a run on these tapes")
}
