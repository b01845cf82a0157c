package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBackend(context.Context) (Backend, error) {
	panic("backend must not be opened")
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(noBackend)
	require.NotNil(t, cmd)
	assert.Equal(t, "cartctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(noBackend)
	for _, name := range []string{"show", "merge", "clear", "mint-token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(noBackend)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand(noBackend)
	cmd.SetArgs([]string{"show", "--user", "7", "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMergeFlags(t *testing.T) {
	cmd := NewRootCommand(noBackend)
	merge, _, err := cmd.Find([]string{"merge"})
	require.NoError(t, err)

	dryRun := merge.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	assert.Equal(t, "false", dryRun.DefValue)
}
