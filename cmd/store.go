package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/adalundhe/topicalmap/core/semantic"
	"github.com/adalundhe/topicalmap/core/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored knowledge graphs",
	Long:  `Save, export, list and delete knowledge graphs in the local store.`,
}

var storeSaveCmd = &cobra.Command{
	Use:   "save <name> <snapshot.json>",
	Short: "Save a graph snapshot under a name",
	Args:  cobra.ExactArgs(2),
	RunE:  runStoreSave,
}

var storeLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Export a stored graph as a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreLoad,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored graphs",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

var (
	storeOut   string
	storeMatch string
)

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeSaveCmd)
	storeCmd.AddCommand(storeLoadCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	storeLoadCmd.Flags().StringVarP(&storeOut, "out", "O", "", "Write the snapshot to this file instead of stdout")
	storeListCmd.Flags().StringVarP(&storeMatch, "match", "m", "", "Only list graphs whose name matches this glob (e.g. 'site-*')")
}

func runStoreSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[1])
	if err != nil {
		return errors.Wrap(err, "open graph snapshot")
	}
	defer f.Close()

	g, err := semantic.Load(f, semantic.WithLogger(logger))
	if err != nil {
		return errors.Wrapf(err, "load %s", args[1])
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveGraph(ctx, args[0], g); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved graph %q (%d nodes, %d edges).\n", args[0], g.NodeCount(), g.EdgeCount())
	return nil
}

func runStoreLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := s.LoadGraph(ctx, args[0], semantic.WithLogger(logger))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode graph snapshot")
	}
	data = append(data, '\n')

	if storeOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(storeOut, data, 0o644); err != nil {
		return errors.Wrap(err, "write graph snapshot")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote graph %q to %s.\n", args[0], storeOut)
	return nil
}

func runStoreList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	graphs, err := s.ListGraphs(ctx)
	if err != nil {
		return err
	}
	if graphs, err = filterGraphs(graphs, storeMatch); err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), graphs, func(w io.Writer) error {
		if len(graphs) == 0 {
			fmt.Fprintf(w, "No graphs in %s.\n", s.Path())
			return nil
		}
		rows := make([][]string, 0, len(graphs))
		for _, g := range graphs {
			rows = append(rows, []string{g.Name, fmt.Sprint(g.Nodes), fmt.Sprint(g.Edges), g.UpdatedAt.Format(time.RFC3339)})
		}
		return writeTable(w, []string{"Name", "Nodes", "Edges", "Updated"}, rows)
	})
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteGraph(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted graph %q.\n", args[0])
	return nil
}

// filterGraphs keeps graphs whose name matches pattern. An empty pattern
// keeps everything.
func filterGraphs(graphs []store.GraphInfo, pattern string) ([]store.GraphInfo, error) {
	if pattern == "" {
		return graphs, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --match pattern %q", pattern)
	}

	matched := make([]store.GraphInfo, 0, len(graphs))
	for _, info := range graphs {
		if g.Match(info.Name) {
			matched = append(matched, info)
		}
	}
	return matched, nil
}
