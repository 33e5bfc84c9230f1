// Package cmd provides the CLI commands for topicalmap.
package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adalundhe/topicalmap/core/config"
	"github.com/adalundhe/topicalmap/core/logging"
	"github.com/adalundhe/topicalmap/core/storage"
)

var rootCmd = &cobra.Command{
	Use:   "topicalmap",
	Short: "Topicalmap - semantic analysis and publication planning for topical maps",
	Long: `Topicalmap measures semantic distance between entities of a topical map,
simulates internal PageRank, scores entity criticality and plans when each
topic should be published.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRuntime,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	cfgFile   string
	outputFmt string
	noColor   bool

	manager *config.Manager
	logger  = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: config.yaml or config.toml in the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", string(formatText), "Output format (text,json,yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func setupRuntime(cmd *cobra.Command, args []string) error {
	if _, err := parseOutputFormat(outputFmt); err != nil {
		return err
	}
	if noColor {
		pterm.DisableColor()
	}

	path := cfgFile
	if path == "" {
		path = storage.ConfigFile()
	}
	manager = config.NewManager(path)
	if err := manager.Load(); err != nil {
		return err
	}

	l, err := logging.New(manager.Get().Log)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// currentConfig returns the loaded configuration, or defaults when no
// command has run setup yet.
func currentConfig() *config.Config {
	if manager == nil {
		return config.DefaultConfig()
	}
	return manager.Get()
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which long-running
// commands such as graph matrix observe for cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
