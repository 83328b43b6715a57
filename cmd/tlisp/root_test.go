package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	return cmd
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlisp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step_budget: 10\nlibrary: lib\nlog:\n  level: warn\n"), 0o644))

	cmd := newFlagCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--step-budget", "99"}))
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.StepBudget)
	assert.Equal(t, "lib", cfg.Library)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"run"}, {"eval"}, {"repl"}, {"serve"}, {"mcp"}, {"version"},
		{"automaton", "run"}, {"automaton", "describe"}, {"automaton", "graph"}, {"automaton", "validate"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
