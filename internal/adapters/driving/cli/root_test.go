package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "curator version")
	assert.Contains(t, out, version)
}

func TestSearchCommand_RequiresAClause(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of")
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{"summarise", "summary", "tag", "tags", "search", "scan", "cleanup", "manifest", "version"}

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "missing subcommand %s", name)
	}
}

func TestSummaryCommand_RequiresArgument(t *testing.T) {
	_, err := execute(t, "summary")
	assert.Error(t, err)
}
