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

	for _, name := range []string{"serve", "resolve", "analyze"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "opportunity", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestResolveCommand_Flags(t *testing.T) {
	flag := resolveCmd.Flags().Lookup("output")
	require.NotNil(t, flag, "resolve command should have --output flag")
	assert.Equal(t, "json", flag.DefValue)
	assert.Equal(t, "o", flag.Shorthand)

	flag = resolveCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Equal(t, "4", flag.DefValue)
}

func TestResolveCommand_RequiresArgs(t *testing.T) {
	assert.Error(t, resolveCmd.Args(resolveCmd, nil))
	assert.NoError(t, resolveCmd.Args(resolveCmd, []string{"10001", "60601"}))
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	flag := analyzeCmd.Flags().Lookup("delay")
	require.NotNil(t, flag, "analyze command should have --delay flag")
	assert.Equal(t, "2s", flag.DefValue)

	assert.Error(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.Error(t, analyzeCmd.Args(analyzeCmd, []string{"10001", "60601"}))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"10001"}))
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
	assert.Equal(t, 0, resolvePort(0, 0))
}
