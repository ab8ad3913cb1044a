package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"generate", "intents", "runs", "validate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "archdata", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestGenerateCommand_Flags(t *testing.T) {
	for _, name := range []string{"corpus", "output", "target-size", "seed", "provider", "domain-mixing"} {
		assert.NotNil(t, generateCmd.Flags().Lookup(name), "generate should have --%s flag", name)
	}
	assert.Equal(t, "o", generateCmd.Flags().Lookup("output").Shorthand)
	assert.Contains(t, generateCmd.Flags().Lookup("target-size").Usage, "intents = size/2")
	assert.Contains(t, intentsCmd.Flags().Lookup("target-size").Usage, "intents = size/2")
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "export"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestRunsListCommand_Flags(t *testing.T) {
	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
	assert.NotNil(t, runsListCmd.Flags().Lookup("status"))
}
