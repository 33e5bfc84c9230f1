package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/adalundhe/topicalmap/core/config"
	"github.com/adalundhe/topicalmap/core/eav"
	"github.com/adalundhe/topicalmap/core/planner"
	"github.com/adalundhe/topicalmap/core/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan and track topic publication",
	Long:  `Generate publication plans for a topical map and track their progress.`,
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate <topics.json>",
	Short: "Generate a publication plan",
	Long: `Generate a phased publication plan from a JSON array of topics. Semantic
triples given with --triples boost topics whose titles match them.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanGenerate,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanShow,
}

var planStatusCmd = &cobra.Command{
	Use:   "status <plan-id> <topic-id> <status>",
	Short: "Set the status of a topic in a stored plan",
	Long:  `Set a topic's status to planned, in_progress or published.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runPlanStatus,
}

var planProgressCmd = &cobra.Command{
	Use:   "progress <plan-id>",
	Short: "Show publishing progress of a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanProgress,
}

var (
	planTriples  string
	planLaunch   string
	planSeed     uint64
	planSave     bool
	planPhase    int
	planUpcoming int
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planStatusCmd)
	planCmd.AddCommand(planProgressCmd)

	planGenerateCmd.Flags().StringVarP(&planTriples, "triples", "t", "", "JSON file of semantic triples")
	planGenerateCmd.Flags().StringVarP(&planLaunch, "launch", "l", "", "Batch launch date (YYYY-MM-DD, default today)")
	planGenerateCmd.Flags().Uint64Var(&planSeed, "seed", 1, "Seed for the publishing cadence (overrides config)")
	planGenerateCmd.Flags().BoolVar(&planSave, "save", false, "Save the plan to the store")

	planShowCmd.Flags().IntVarP(&planPhase, "phase", "p", 0, "Only show topics in this phase (1-4)")

	planProgressCmd.Flags().IntVarP(&planUpcoming, "upcoming", "u", 14, "List topics due within this many days")
}

func readJSONFile[T any](path, what string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, errors.Wrapf(err, "read %s", what)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Wrapf(err, "decode %s in %s", what, path)
	}
	return v, nil
}

// plannerConfig layers explicitly set flags over the configured planner
// section.
func plannerConfig(cmd *cobra.Command) (planner.Config, error) {
	section := currentConfig().Planner
	if cmd.Flags().Changed("launch") {
		section.LaunchDate = planLaunch
	}
	if cmd.Flags().Changed("seed") {
		section.Seed = planSeed
	}
	return section.Build()
}

func openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, currentConfig().Store.Path, store.WithLogger(logger))
}

func runPlanGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	topics, err := readJSONFile[[]planner.Topic](args[0], "topics")
	if err != nil {
		return err
	}
	var triples []eav.SemanticTriple
	if planTriples != "" {
		if triples, err = readJSONFile[[]eav.SemanticTriple](planTriples, "triples"); err != nil {
			return err
		}
	}

	cfg, err := plannerConfig(cmd)
	if err != nil {
		return err
	}
	plan, err := planner.New(cfg, planner.WithLogger(logger)).Generate(topics, triples)
	if err != nil {
		return err
	}

	if planSave {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SavePlan(ctx, plan); err != nil {
			return err
		}
	}

	return render(cmd.OutOrStdout(), plan, func(w io.Writer) error {
		return writePlan(w, plan, plan.Topics)
	})
}

func runPlanList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	plans, err := s.ListPlans(ctx)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), plans, func(w io.Writer) error {
		if len(plans) == 0 {
			fmt.Fprintln(w, "No stored plans.")
			return nil
		}
		rows := make([][]string, 0, len(plans))
		for _, p := range plans {
			rows = append(rows, []string{p.ID, fmt.Sprint(p.Topics), p.CreatedAt.Format(time.RFC3339)})
		}
		return writeTable(w, []string{"Plan", "Topics", "Created"}, rows)
	})
}

func loadStoredPlan(ctx context.Context, id string) (*planner.Plan, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.LoadPlan(ctx, id)
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	plan, err := loadStoredPlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	topics := plan.Topics
	if planPhase != 0 {
		phase := planner.Phase(planPhase)
		if !slices.Contains(planner.Phases, phase) {
			return errors.Newf("phase must be between 1 and 4, got %d", planPhase)
		}
		topics = plan.TopicsByPhase(phase)
	}

	return render(cmd.OutOrStdout(), topics, func(w io.Writer) error {
		return writePlan(w, plan, topics)
	})
}

func runPlanStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	status, err := planner.ParseStatus(args[2])
	if err != nil {
		return errors.WithHint(err, "use one of planned, in_progress, published")
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := s.LoadPlan(ctx, args[0])
	if err != nil {
		return err
	}
	if err := plan.SetStatus(args[1], status); err != nil {
		return err
	}
	if err := s.SavePlan(ctx, plan); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Topic %s is now %s.\n", args[1], status)
	return nil
}

type planProgressOutput struct {
	PlanID   string                  `json:"planId" yaml:"plan_id"`
	Phases   []planner.PhaseProgress `json:"phases" yaml:"phases"`
	Overdue  []planner.PlannedTopic  `json:"overdue" yaml:"overdue"`
	Upcoming []planner.PlannedTopic  `json:"upcoming" yaml:"upcoming"`
}

func runPlanProgress(cmd *cobra.Command, args []string) error {
	plan, err := loadStoredPlan(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	now := time.Now()
	out := planProgressOutput{
		PlanID:   plan.ID,
		Phases:   plan.ProgressAt(now),
		Overdue:  plan.OverdueTopics(now),
		Upcoming: plan.UpcomingTopics(now, planUpcoming),
	}

	return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
		rows := make([][]string, 0, len(out.Phases))
		for _, p := range out.Phases {
			rows = append(rows, []string{
				p.Name,
				fmt.Sprintf("%d/%d", p.Published, p.Total),
				formatFloat(p.Percent) + "%",
				fmt.Sprint(p.Due),
				fmt.Sprint(p.Overdue),
			})
		}
		if err := writeTable(w, []string{"Phase", "Published", "Percent", "Due", "Overdue"}, rows); err != nil {
			return err
		}

		if len(out.Overdue) > 0 {
			writeHeading(w, "Overdue")
			if err := writeTopics(w, out.Overdue); err != nil {
				return err
			}
		}
		if len(out.Upcoming) > 0 {
			writeHeading(w, fmt.Sprintf("Due in the next %d days", planUpcoming))
			return writeTopics(w, out.Upcoming)
		}
		return nil
	})
}

func writePlan(w io.Writer, plan *planner.Plan, topics []planner.PlannedTopic) error {
	writeHeading(w, "Plan "+plan.ID)

	rows := make([][]string, 0, len(plan.Phases))
	for _, p := range plan.Phases {
		start, end := "-", "-"
		if !p.StartDate.IsZero() {
			start = p.StartDate.Format(config.LaunchDateLayout)
			end = p.EndDate.Format(config.LaunchDateLayout)
		}
		rows = append(rows, []string{p.Name, fmt.Sprint(len(p.TopicIDs)), start, end})
	}
	if err := writeTable(w, []string{"Phase", "Topics", "Start", "End"}, rows); err != nil {
		return err
	}

	if err := writeTopics(w, topics); err != nil {
		return err
	}
	if plan.HasCircularDependencies {
		writeWarnings(w, []string{"topic parents form a cycle"})
	}
	writeWarnings(w, plan.Warnings)
	return nil
}

// writeTopics lists topics by publish date, then publish order.
func writeTopics(w io.Writer, topics []planner.PlannedTopic) error {
	sorted := slices.Clone(topics)
	slices.SortStableFunc(sorted, func(a, b planner.PlannedTopic) int {
		if c := a.PublishDate.Compare(b.PublishDate); c != 0 {
			return c
		}
		return a.PublishOrder - b.PublishOrder
	})

	rows := make([][]string, 0, len(sorted))
	for _, t := range sorted {
		rows = append(rows, []string{
			t.PublishDate.Format(config.LaunchDateLayout),
			t.Topic.ID,
			t.Topic.Title,
			fmt.Sprint(int(t.Phase)),
			strings.ToUpper(string(t.Priority.Tier)),
			formatFloat(t.Priority.Score),
			fmt.Sprint(t.PublishOrder),
			string(t.Status),
		})
	}
	return writeTable(w, []string{"Date", "ID", "Title", "Phase", "Tier", "Score", "Order", "Status"}, rows)
}
