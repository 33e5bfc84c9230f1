package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

// resetFlags restores every flag to its default so commands can run more
// than once per process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// isolate points the store at a temp database, hides any user config file
// and quiets logging.
func isolate(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "topicalmap.db")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TOPICALMAP_STORE_PATH", dbPath)
	t.Setenv("TOPICALMAP_LOG_LEVEL", "error")
	return dbPath
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Root Command Tests
// =============================================================================

func TestRootCmd_Definition(t *testing.T) {
	t.Run("command is defined", func(t *testing.T) {
		assert.Equal(t, "topicalmap", rootCmd.Use)
		assert.True(t, rootCmd.SilenceUsage)
	})

	t.Run("has subcommands", func(t *testing.T) {
		var names []string
		for _, c := range rootCmd.Commands() {
			names = append(names, c.Name())
		}
		for _, want := range []string{"graph", "pagerank", "plan", "store", "config"} {
			assert.Contains(t, names, want)
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		pflags := rootCmd.PersistentFlags()

		configFlag := pflags.Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		outputFlag := pflags.Lookup("output")
		require.NotNil(t, outputFlag)
		assert.Equal(t, "o", outputFlag.Shorthand)
		assert.Equal(t, "text", outputFlag.DefValue)

		require.NotNil(t, pflags.Lookup("no-color"))
	})
}

func TestConfigCmd_Definition(t *testing.T) {
	var names []string
	for _, c := range configCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"show", "watch"}, names)

	debounce := configWatchCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounce)
	assert.Equal(t, "100ms", debounce.DefValue)
}

func TestConfigWatch_RequiresFile(t *testing.T) {
	isolate(t)
	_, err := executeCommand(t, "config", "watch")
	assert.Error(t, err)
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    outputFormat
		wantErr bool
	}{
		{"", formatText, false},
		{"text", formatText, false},
		{"TABLE", formatText, false},
		{"json", formatJSON, false},
		{"yml", formatYAML, false},
		{"yaml", formatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOutputFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoot_InvalidOutput(t *testing.T) {
	isolate(t)
	_, err := executeCommand(t, "config", "show", "--output", "xml")
	assert.Error(t, err)
}

// =============================================================================
// Config Command Tests
// =============================================================================

func TestConfigShow(t *testing.T) {
	isolate(t)

	t.Run("yaml by default", func(t *testing.T) {
		out, err := executeCommand(t, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "damping: 0.85")
		assert.Contains(t, out, "cache_size: 4096")
	})

	t.Run("env overrides apply", func(t *testing.T) {
		t.Setenv("TOPICALMAP_PAGERANK_DAMPING", "0.9")
		out, err := executeCommand(t, "config", "show", "-o", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"damping": 0.9`)
	})

	t.Run("config file applies", func(t *testing.T) {
		path := writeFixture(t, "topicalmap.yaml", "planner:\n  seed: 7\n")
		out, err := executeCommand(t, "--config", path, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "seed: 7")
	})

	t.Run("invalid config fails", func(t *testing.T) {
		path := writeFixture(t, "bad.yaml", "pagerank:\n  damping: 2\n")
		_, err := executeCommand(t, "--config", path, "config", "show")
		assert.Error(t, err)
	})
}
