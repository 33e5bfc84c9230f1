package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/topicalmap/core/planner"
	"github.com/adalundhe/topicalmap/core/store"
)

const solarTopics = `[
  {"id": "solar", "title": "Solar Panels", "cluster_role": "pillar", "type": "core", "topic_class": "monetization", "freshness": "evergreen"},
  {"id": "cost", "title": "Solar Panel Cost", "parent_topic_id": "solar", "cluster_role": "cluster_content", "type": "core", "topic_class": "monetization", "freshness": "evergreen"},
  {"id": "clean", "title": "Cleaning Solar Panels", "parent_topic_id": "solar", "type": "outer", "freshness": {"type": "seasonal", "peakSeasons": ["spring"]}},
  {"id": "history", "title": "History of Photovoltaics", "parent_topic_id": "clean", "type": "outer", "freshness": "evergreen"}
]`

const solarTriples = `[
  {"subject": {"label": "Solar Panels"}, "predicate": {"relation": "efficiency", "category": "UNIQUE"}, "object": {"value": "22%"}},
  {"subject": {"label": "Solar Panels"}, "predicate": {"relation": "material", "category": "ROOT"}, "object": {"value": "silicon"}}
]`

var launchDay = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

func TestPlanCmd_Definition(t *testing.T) {
	t.Run("command is defined", func(t *testing.T) {
		assert.Equal(t, "plan", planCmd.Use)
		assert.Equal(t, "Plan and track topic publication", planCmd.Short)
	})

	t.Run("has subcommands", func(t *testing.T) {
		found := map[string]bool{}
		for _, c := range planCmd.Commands() {
			found[c.Name()] = true
		}
		for _, name := range []string{"generate", "list", "show", "status", "progress"} {
			assert.True(t, found[name], "%s subcommand should exist", name)
		}
	})

	t.Run("generate flags", func(t *testing.T) {
		flags := planGenerateCmd.Flags()

		triples := flags.Lookup("triples")
		require.NotNil(t, triples)
		assert.Equal(t, "t", triples.Shorthand)

		launch := flags.Lookup("launch")
		require.NotNil(t, launch)
		assert.Equal(t, "l", launch.Shorthand)
		assert.Equal(t, "", launch.DefValue)

		require.NotNil(t, flags.Lookup("seed"))

		save := flags.Lookup("save")
		require.NotNil(t, save)
		assert.Equal(t, "false", save.DefValue)
	})

	t.Run("progress flags", func(t *testing.T) {
		upcoming := planProgressCmd.Flags().Lookup("upcoming")
		require.NotNil(t, upcoming)
		assert.Equal(t, "14", upcoming.DefValue)
	})
}

func generatePlan(t *testing.T, extra ...string) *planner.Plan {
	t.Helper()
	topics := writeFixture(t, "topics.json", solarTopics)
	triples := writeFixture(t, "triples.json", solarTriples)

	args := append([]string{"plan", "generate", topics, "-t", triples, "--launch", "2026-04-01", "-o", "json"}, extra...)
	out, err := executeCommand(t, args...)
	require.NoError(t, err)

	var plan planner.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	return &plan
}

func TestPlanGenerate(t *testing.T) {
	isolate(t)
	plan := generatePlan(t)

	require.Len(t, plan.Topics, 4)
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.HasCircularDependencies)

	byID := map[string]planner.PlannedTopic{}
	for _, tp := range plan.Topics {
		byID[tp.Topic.ID] = tp
		assert.False(t, tp.PublishDate.Before(launchDay), tp.Topic.ID)
	}

	solar := byID["solar"]
	assert.Equal(t, planner.PhaseAuthorityAnchor, solar.Phase)
	assert.True(t, solar.PublishDate.Equal(launchDay))
	assert.Equal(t, 1, solar.MatchedCategories.Unique)
	assert.Equal(t, 0, solar.PublishOrder)

	assert.Equal(t, []string{"solar"}, byID["cost"].Dependencies)
	assert.Equal(t, []string{"clean"}, byID["history"].Dependencies)
	assert.Greater(t, byID["history"].PublishOrder, byID["clean"].PublishOrder)
	assert.False(t, byID["history"].PublishDate.Before(byID["clean"].PublishDate))

	assert.NotEmpty(t, plan.Warnings, "phase 1 floor is not met")
}

func TestPlanGenerate_SeedIsDeterministic(t *testing.T) {
	isolate(t)

	a := generatePlan(t, "--seed", "9")
	b := generatePlan(t, "--seed", "9")
	for i := range a.Topics {
		assert.True(t, a.Topics[i].PublishDate.Equal(b.Topics[i].PublishDate))
	}
}

func TestPlanGenerate_InvalidLaunch(t *testing.T) {
	isolate(t)
	topics := writeFixture(t, "topics.json", solarTopics)

	_, err := executeCommand(t, "plan", "generate", topics, "--launch", "April 1st")
	assert.Error(t, err)
}

func TestPlanGenerate_TextOutput(t *testing.T) {
	isolate(t)
	topics := writeFixture(t, "topics.json", solarTopics)

	out, err := executeCommand(t, "plan", "generate", topics, "--launch", "2026-04-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Solar Panel Cost")
	assert.Contains(t, out, "2026-04-01")
	assert.Contains(t, out, "warning:")
}

func TestPlan_StoredLifecycle(t *testing.T) {
	dbPath := isolate(t)
	plan := generatePlan(t, "--save")

	t.Run("saved to store", func(t *testing.T) {
		out, err := executeCommand(t, "plan", "list", "-o", "json")
		require.NoError(t, err)

		var plans []store.PlanInfo
		require.NoError(t, json.Unmarshal([]byte(out), &plans))
		require.Len(t, plans, 1)
		assert.Equal(t, plan.ID, plans[0].ID)
		assert.Equal(t, 4, plans[0].Topics)
		assert.FileExists(t, dbPath)
	})

	t.Run("show filters by phase", func(t *testing.T) {
		out, err := executeCommand(t, "plan", "show", plan.ID, "--phase", "1", "-o", "json")
		require.NoError(t, err)

		var topics []planner.PlannedTopic
		require.NoError(t, json.Unmarshal([]byte(out), &topics))
		for _, tp := range topics {
			assert.Equal(t, planner.PhaseAuthorityAnchor, tp.Phase)
		}

		_, err = executeCommand(t, "plan", "show", plan.ID, "--phase", "7")
		assert.Error(t, err)
	})

	t.Run("status updates persist", func(t *testing.T) {
		out, err := executeCommand(t, "plan", "status", plan.ID, "solar", "Published")
		require.NoError(t, err)
		assert.Contains(t, out, "published")

		out, err = executeCommand(t, "plan", "progress", plan.ID, "-o", "json")
		require.NoError(t, err)

		var progress planProgressOutput
		require.NoError(t, json.Unmarshal([]byte(out), &progress))
		require.Len(t, progress.Phases, 4)
		assert.Equal(t, 1, progress.Phases[0].Published)
	})

	t.Run("status rejects bad input", func(t *testing.T) {
		_, err := executeCommand(t, "plan", "status", plan.ID, "solar", "done")
		assert.Error(t, err)

		_, err = executeCommand(t, "plan", "status", plan.ID, "nope", "published")
		assert.Error(t, err)

		_, err = executeCommand(t, "plan", "status", "missing-plan", "solar", "published")
		assert.Error(t, err)
	})
}
