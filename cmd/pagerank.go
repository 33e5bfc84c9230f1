package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/adalundhe/topicalmap/core/pagerank"
)

var pagerankCmd = &cobra.Command{
	Use:   "pagerank <edges.json>",
	Short: "Simulate internal PageRank over a link graph",
	Long: `Simulate PageRank over internal links. The input is a JSON array of
{"from", "to", "weight"} objects; missing weights count as 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runPagerank,
}

var (
	pagerankDamping    float64
	pagerankIterations int
	pagerankThreshold  float64
	pagerankTop        int
)

func init() {
	rootCmd.AddCommand(pagerankCmd)

	defaults := pagerank.DefaultOptions()
	pagerankCmd.Flags().Float64VarP(&pagerankDamping, "damping", "d", defaults.Damping, "Damping factor (overrides config)")
	pagerankCmd.Flags().IntVarP(&pagerankIterations, "max-iterations", "i", defaults.MaxIterations, "Maximum iterations (overrides config)")
	pagerankCmd.Flags().Float64Var(&pagerankThreshold, "threshold", defaults.ConvergenceThreshold, "Convergence threshold (overrides config)")
	pagerankCmd.Flags().IntVarP(&pagerankTop, "top", "n", 0, "Only show the top N pages in text output")
}

func readEdges(path string) ([]pagerank.Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read edges")
	}
	var edges []pagerank.Edge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, errors.Wrapf(err, "decode edges in %s", path)
	}
	return edges, nil
}

// pagerankOptions layers explicitly set flags over the configured options.
func pagerankOptions(cmd *cobra.Command) (pagerank.Options, error) {
	opts := currentConfig().PageRank
	flags := cmd.Flags()
	if flags.Changed("damping") {
		opts.Damping = pagerankDamping
	}
	if flags.Changed("max-iterations") {
		opts.MaxIterations = pagerankIterations
	}
	if flags.Changed("threshold") {
		opts.ConvergenceThreshold = pagerankThreshold
	}

	switch {
	case opts.Damping <= 0 || opts.Damping >= 1:
		return opts, errors.Newf("damping must be in (0,1), got %v", opts.Damping)
	case opts.MaxIterations < 1:
		return opts, errors.Newf("max-iterations must be positive, got %d", opts.MaxIterations)
	case opts.ConvergenceThreshold <= 0:
		return opts, errors.Newf("threshold must be positive, got %v", opts.ConvergenceThreshold)
	}
	return opts, nil
}

func runPagerank(cmd *cobra.Command, args []string) error {
	edges, err := readEdges(args[0])
	if err != nil {
		return err
	}

	opts, err := pagerankOptions(cmd)
	if err != nil {
		return err
	}

	report := pagerank.Simulate(edges,
		pagerank.WithOptions(opts),
		pagerank.WithLogger(logger),
	)

	return render(cmd.OutOrStdout(), report, func(w io.Writer) error {
		pages := report.Pages
		if pagerankTop > 0 && pagerankTop < len(pages) {
			pages = pages[:pagerankTop]
		}

		rows := make([][]string, 0, len(pages))
		for _, p := range pages {
			rows = append(rows, []string{
				p.URL,
				fmt.Sprintf("%.4f", p.Score),
				formatFloat(p.NormalizedScore),
				fmt.Sprint(p.InboundLinks),
				fmt.Sprint(p.OutboundLinks),
			})
		}
		if err := writeTable(w, []string{"Page", "Score", "Normalized", "Inbound", "Outbound"}, rows); err != nil {
			return err
		}

		fmt.Fprintf(w, "Iterations: %d (converged: %s)\n", report.Iterations, formatBool(report.Converged))
		var warnings []string
		if len(report.OrphanPages) > 0 {
			warnings = append(warnings, fmt.Sprintf("%d orphan pages have no inbound links: %v", len(report.OrphanPages), report.OrphanPages))
		}
		if len(report.SinkPages) > 0 {
			warnings = append(warnings, fmt.Sprintf("%d sink pages have no outbound links: %v", len(report.SinkPages), report.SinkPages))
		}
		if report.HoardingWarning {
			warnings = append(warnings, fmt.Sprintf("top 20%% of pages hold %.0f%% of PageRank", report.TopShare*100))
		}
		writeWarnings(w, warnings)
		return nil
	})
}
