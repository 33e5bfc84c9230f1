package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/adalundhe/topicalmap/core/criticality"
	"github.com/adalundhe/topicalmap/core/eav"
	"github.com/adalundhe/topicalmap/core/semantic"
	"github.com/adalundhe/topicalmap/core/store"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Analyze a knowledge graph snapshot",
	Long: `Run semantic analyses over a knowledge graph. The graph is read from a
JSON snapshot file, or from the store when --stored is set.`,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats <graph>",
	Short: "Show graph statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphStats,
}

var graphDistanceCmd = &cobra.Command{
	Use:   "distance <graph> <entity-a> <entity-b>",
	Short: "Calculate semantic distance between two entities",
	Args:  cobra.ExactArgs(3),
	RunE:  runGraphDistance,
}

var graphLinksCmd = &cobra.Command{
	Use:   "links <graph> <entity>",
	Short: "Find internal linking candidates for an entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphLinks,
}

var graphRisksCmd = &cobra.Command{
	Use:   "risks <graph>",
	Short: "List cannibalization risks",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphRisks,
}

var graphGapsCmd = &cobra.Command{
	Use:   "gaps <graph>",
	Short: "List knowledge gaps",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphGaps,
}

var graphMatrixCmd = &cobra.Command{
	Use:   "matrix <graph>",
	Short: "Build the pairwise distance matrix",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphMatrix,
}

var graphCriticalityCmd = &cobra.Command{
	Use:   "criticality <graph>",
	Short: "Score entity criticality",
	Long: `Score every node of the graph. The attribute category of a node is the
most frequent category among its outgoing edges, its topic count is the
number of distinct pages it appears on, and its bridge signal is its
betweenness centrality.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraphCriticality,
}

var (
	graphStored       bool
	graphCentral      string
	graphCoreSection  []string
	graphCriticalOnly bool
)

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphDistanceCmd)
	graphCmd.AddCommand(graphLinksCmd)
	graphCmd.AddCommand(graphRisksCmd)
	graphCmd.AddCommand(graphGapsCmd)
	graphCmd.AddCommand(graphMatrixCmd)
	graphCmd.AddCommand(graphCriticalityCmd)

	graphCmd.PersistentFlags().BoolVarP(&graphStored, "stored", "s", false, "Treat <graph> as the name of a stored graph")

	graphCriticalityCmd.Flags().StringVar(&graphCentral, "central", "", "Central entity of the topical map")
	graphCriticalityCmd.Flags().StringSliceVar(&graphCoreSection, "core-section", nil, "Entities in the core section (comma separated)")
	graphCriticalityCmd.Flags().BoolVar(&graphCriticalOnly, "critical-only", false, "Only show critical entities")
}

// loadGraph reads a snapshot file, or a stored graph when --stored is set.
func loadGraph(ctx context.Context, ref string) (*semantic.KnowledgeGraph, error) {
	cfg := currentConfig()
	opts := []semantic.Option{
		semantic.WithLogger(logger),
		semantic.WithCacheSize(cfg.Graph.CacheSize),
	}

	if graphStored {
		s, err := store.Open(ctx, cfg.Store.Path, store.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.LoadGraph(ctx, ref, opts...)
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, errors.Wrap(err, "open graph snapshot")
	}
	defer f.Close()

	g, err := semantic.Load(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", ref)
	}
	return g, nil
}

func runGraphStats(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	stats := g.ExtendedStatistics()
	return render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
		rows := [][]string{
			{"Nodes", fmt.Sprint(stats.NodeCount)},
			{"Edges", fmt.Sprint(stats.EdgeCount)},
			{"Average neighbors", formatFloat(stats.AverageNeighbors)},
			{"Co-occurrences", fmt.Sprint(stats.CoOccurrenceCount)},
			{"Entities with context", fmt.Sprint(stats.EntitiesWithContext)},
			{"Entity contexts", fmt.Sprint(stats.EntityContextCount)},
			{"Cannibalization risks", fmt.Sprint(stats.CannibalizationRiskCount)},
		}
		if err := writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
			return err
		}

		categories := make([]string, 0, len(stats.Categories))
		for c := range stats.Categories {
			categories = append(categories, c)
		}
		slices.Sort(categories)

		catRows := make([][]string, 0, len(categories))
		for _, c := range categories {
			catRows = append(catRows, []string{c, fmt.Sprint(stats.Categories[c])})
		}
		return writeTable(w, []string{"Category", "Edges"}, catRows)
	})
}

func runGraphDistance(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result := g.CalculateSemanticDistance(args[1], args[2])
	return render(cmd.OutOrStdout(), result, func(w io.Writer) error {
		return writeTable(w, []string{"Metric", "Value"}, [][]string{
			{"Entities", result.EntityA + " / " + result.EntityB},
			{"Distance", formatFloat(result.Distance)},
			{"Semantic similarity", formatFloat(result.SemanticSimilarity)},
			{"Context weight", formatFloat(result.ContextWeight)},
			{"Co-occurrence score", formatFloat(result.CoOccurrenceScore)},
			{"Should link", formatBool(result.ShouldLink)},
			{"Recommendation", result.Recommendation},
		})
	})
}

func runGraphLinks(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	candidates := g.FindLinkingCandidates(args[1])
	return render(cmd.OutOrStdout(), candidates, func(w io.Writer) error {
		if len(candidates) == 0 {
			fmt.Fprintf(w, "No linking candidates for %q.\n", args[1])
			return nil
		}
		rows := make([][]string, 0, len(candidates))
		for _, c := range candidates {
			rows = append(rows, []string{c.Node.Term, c.Node.Type, formatFloat(c.Result.Distance), c.Result.Recommendation})
		}
		return writeTable(w, []string{"Target", "Type", "Distance", "Recommendation"}, rows)
	})
}

func runGraphRisks(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	risks := g.IdentifyCannibalizationRisks()
	return render(cmd.OutOrStdout(), risks, func(w io.Writer) error {
		if len(risks) == 0 {
			fmt.Fprintln(w, "No cannibalization risks.")
			return nil
		}
		rows := make([][]string, 0, len(risks))
		for _, r := range risks {
			rows = append(rows, []string{r.EntityA.Term, r.EntityB.Term, formatFloat(r.Distance)})
		}
		return writeTable(w, []string{"Entity A", "Entity B", "Distance"}, rows)
	})
}

func runGraphGaps(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	gaps := g.IdentifyKnowledgeGaps()
	return render(cmd.OutOrStdout(), gaps, func(w io.Writer) error {
		if len(gaps) == 0 {
			fmt.Fprintln(w, "No knowledge gaps.")
			return nil
		}
		rows := make([][]string, 0, len(gaps))
		for _, gap := range gaps {
			missing := make([]string, len(gap.MissingCategories))
			for i, c := range gap.MissingCategories {
				missing[i] = c.String()
			}
			rows = append(rows, []string{gap.Entity, strings.Join(missing, ", "), strings.Join(gap.Suggestions, "\n")})
		}
		return writeTable(w, []string{"Entity", "Missing", "Suggestions"}, rows)
	})
}

func runGraphMatrix(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	g, err := loadGraph(ctx, args[0])
	if err != nil {
		return err
	}

	matrix, err := g.BuildDistanceMatrix(ctx)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), matrix, func(w io.Writer) error {
		header := append([]string{""}, matrix.Entities...)
		rows := make([][]string, len(matrix.Entities))
		for i, entity := range matrix.Entities {
			row := make([]string, 0, len(matrix.Entities)+1)
			row = append(row, entity)
			for j := range matrix.Entities {
				cell := formatFloat(matrix.Distances[i][j])
				if matrix.ShouldLink[i][j] {
					cell += "*"
				}
				row = append(row, cell)
			}
			rows[i] = row
		}
		if err := writeTable(w, header, rows); err != nil {
			return err
		}
		fmt.Fprintln(w, "* should link")
		return nil
	})
}

func runGraphCriticality(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	results := criticality.SortByScore(criticality.CalculateBatch(criticalityInputs(g, graphCentral, graphCoreSection)))
	if graphCriticalOnly {
		results = criticality.FilterCritical(results)
	}

	return render(cmd.OutOrStdout(), results, func(w io.Writer) error {
		if len(results) == 0 {
			fmt.Fprintln(w, "No entities to score.")
			return nil
		}
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{
				r.Entity,
				formatFloat(r.Score),
				formatBool(r.IsCritical),
				formatFloat(r.Breakdown.Base),
				formatFloat(r.Breakdown.CoreSection),
				formatFloat(r.Breakdown.CoOccurrence),
				formatFloat(r.Breakdown.Bridge),
			})
		}
		return writeTable(w, []string{"Entity", "Score", "Critical", "Base", "Core", "Co-occ", "Bridge"}, rows)
	})
}

// criticalityInputs derives scorer inputs for every node in g. Entity
// names match case-insensitively.
func criticalityInputs(g *semantic.KnowledgeGraph, central string, coreSection []string) []criticality.Input {
	core := make(map[string]struct{}, len(coreSection))
	for _, e := range coreSection {
		core[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	betweenness := g.BetweennessCentrality()

	nodes := g.Nodes()
	inputs := make([]criticality.Input, 0, len(nodes))
	for _, node := range nodes {
		term := strings.ToLower(node.Term)
		_, inCore := core[term]
		if !inCore {
			_, inCore = core[strings.ToLower(node.ID)]
		}

		inputs = append(inputs, criticality.Input{
			Entity:                node.Term,
			IsCentralEntity:       central != "" && (strings.EqualFold(central, node.Term) || strings.EqualFold(central, node.ID)),
			AttributeCategory:     dominantCategory(g.OutgoingEdges(node.ID)),
			IsCoreSectionEntity:   inCore,
			TopicCount:            distinctPages(g.EntityContexts(node.Term)),
			BetweennessCentrality: betweenness[node.ID],
		})
	}
	return inputs
}

// dominantCategory returns the most frequent canonical category, ties going
// to the more important category. Empty when no edge is categorized.
func dominantCategory(edges []semantic.KnowledgeEdge) eav.AttributeCategory {
	counts := make(map[eav.AttributeCategory]int, 4)
	for _, e := range edges {
		if c, ok := e.Metadata.Category.Canonical(); ok {
			counts[c]++
		}
	}

	var best eav.AttributeCategory
	for _, c := range []eav.AttributeCategory{eav.CategoryUnique, eav.CategoryRoot, eav.CategoryRare, eav.CategoryCommon} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func distinctPages(contexts []semantic.EntityContext) int {
	pages := make(map[string]struct{}, len(contexts))
	for _, c := range contexts {
		pages[c.PageURL] = struct{}{}
	}
	return len(pages)
}
