package main

import (
	"fmt"

	"github.com/aretw0/tlisp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tlisp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tlisp version %s\n", tlisp.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
