// ABOUTME: Tests for the root command, global flags and config loading
// ABOUTME: Verifies subcommand registration, flag validation and --config handling

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "copilot", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Contains(t, cmd.Long, "███", "long help carries the banner")
	assert.Contains(t, cmd.Long, "cited")
	assert.True(t, cmd.SilenceUsage, "errors should not dump usage")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for name, want := range map[string]struct{ short, def string }{
		"verbose": {"v", "false"},
		"quiet":   {"q", "false"},
		"format":  {"", "auto"},
		"config":  {"", ""},
	} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "--%s", name)
		assert.Equal(t, want.short, flag.Shorthand, "--%s shorthand", name)
		assert.Equal(t, want.def, flag.DefValue, "--%s default", name)
	}
}

func TestRootCmd_PreRunValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "plain", args: []string{"version"}},
		{name: "verbose", args: []string{"-v", "version"}},
		{name: "table", args: []string{"--format", "table", "version"}},
		{name: "verbose and quiet", args: []string{"-v", "-q", "version"}, wantErr: "mutually exclusive"},
		{name: "csv format", args: []string{"--format", "csv", "version"}, wantErr: "--format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			var output bytes.Buffer
			cmd.SetOut(&output)
			cmd.SetErr(&output)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	registered := map[string]bool{}
	for _, sub := range NewRootCmd().Commands() {
		registered[sub.Name()] = true
	}

	for _, name := range []string{"ingest", "search", "context", "ask", "list", "delete", "export", "watch", "mcp", "sync", "version"} {
		assert.True(t, registered[name], "subcommand %q not registered", name)
	}
}

func TestLoadConfig_FromFlag(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("SEARCH_LIMIT", "")
	t.Setenv("STORAGE_BACKEND", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size = 300\nchunk_overlap = 50\nsearch_limit = 3\n"), 0o600))

	original := configPath
	configPath = path
	defer func() { configPath = original }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.SearchLimit)
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size = [not toml"), 0o600))

	original := configPath
	configPath = path
	defer func() { configPath = original }()

	_, err := loadConfig()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), path))
}
