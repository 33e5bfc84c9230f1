package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adalundhe/topicalmap/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after applying defaults, the config file and
TOPICALMAP_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the configuration each time the config file changes",
	Long: `Watch the config file and print the effective configuration after every
successful reload. Invalid edits are reported and the previous configuration
stays active. Stops on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runConfigWatch,
}

var configDebounce time.Duration

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configWatchCmd)

	configWatchCmd.Flags().DurationVar(&configDebounce, "debounce", config.DefaultDebounce, "Wait this long after the last change before reloading")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	return render(cmd.OutOrStdout(), cfg, func(w io.Writer) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	})
}

func runConfigWatch(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	manager.OnChange(func(cfg *config.Config) {
		logger.Info("config reloaded", zap.String("path", manager.Path()))
		_ = render(w, cfg, func(w io.Writer) error {
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "---")
			_, err = w.Write(out)
			return err
		})
	})

	fmt.Fprintf(w, "Watching %s\n", manager.Path())
	return manager.Watch(cmd.Context(), configDebounce, func(err error) {
		writeWarnings(cmd.ErrOrStderr(), []string{err.Error()})
	})
}
