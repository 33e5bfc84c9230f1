package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/topicalmap/core/criticality"
	"github.com/adalundhe/topicalmap/core/eav"
	"github.com/adalundhe/topicalmap/core/semantic"
)

const germanySnapshot = `{
  "nodes": [
    {"id": "germany", "term": "Germany", "type": "Country"},
    {"id": "berlin", "term": "Berlin", "type": "City"},
    {"id": "munich", "term": "Munich", "type": "City"}
  ],
  "edges": [
    {"id": "e1", "source": "germany", "target": "berlin", "metadata": {"category": "ROOT"}},
    {"id": "e2", "source": "germany", "target": "munich", "metadata": {"category": "COMPETITIVE_EXPANSION"}},
    {"id": "e3", "source": "berlin", "target": "munich"}
  ],
  "coOccurrences": [],
  "entityContexts": [
    {"entity": "germany", "contexts": [
      {"entityId": "germany", "position": "h1", "pageUrl": "/de", "weight": 1},
      {"entityId": "germany", "position": "body", "pageUrl": "/berlin", "weight": 0.4}
    ]}
  ]
}`

// =============================================================================
// Graph Command Tests
// =============================================================================

func TestGraphCmd_Definition(t *testing.T) {
	t.Run("command is defined", func(t *testing.T) {
		assert.Equal(t, "graph", graphCmd.Use)
		assert.Equal(t, "Analyze a knowledge graph snapshot", graphCmd.Short)
	})

	t.Run("has subcommands", func(t *testing.T) {
		found := map[string]bool{}
		for _, c := range graphCmd.Commands() {
			found[c.Name()] = true
		}
		for _, name := range []string{"stats", "distance", "links", "risks", "gaps", "matrix", "criticality"} {
			assert.True(t, found[name], "%s subcommand should exist", name)
		}
	})

	t.Run("has stored flag", func(t *testing.T) {
		flag := graphCmd.PersistentFlags().Lookup("stored")
		require.NotNil(t, flag)
		assert.Equal(t, "s", flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	})

	t.Run("criticality flags", func(t *testing.T) {
		flags := graphCriticalityCmd.Flags()
		require.NotNil(t, flags.Lookup("central"))
		require.NotNil(t, flags.Lookup("core-section"))
		require.NotNil(t, flags.Lookup("critical-only"))
	})
}

func TestGraphStats(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "graph.json", germanySnapshot)

	out, err := executeCommand(t, "graph", "stats", path, "-o", "json")
	require.NoError(t, err)

	var stats semantic.ExtendedStatistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 3, stats.EdgeCount)
	assert.Equal(t, 1, stats.EntitiesWithContext)
	assert.Equal(t, 2, stats.EntityContextCount)

	text, err := executeCommand(t, "graph", "stats", path)
	require.NoError(t, err)
	assert.Contains(t, text, "Nodes")
	assert.Contains(t, text, "UNCATEGORIZED")
}

func TestGraphDistance(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "graph.json", germanySnapshot)

	out, err := executeCommand(t, "graph", "distance", path, "germany", "Germany", "-o", "json")
	require.NoError(t, err)

	var result semantic.SemanticDistanceResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 0.0, result.Distance)
	assert.False(t, result.ShouldLink)

	_, err = executeCommand(t, "graph", "distance", path, "Germany")
	assert.Error(t, err, "requires two entities")
}

func TestGraphGaps(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "graph.json", germanySnapshot)

	out, err := executeCommand(t, "graph", "gaps", path, "-o", "json")
	require.NoError(t, err)

	var gaps []semantic.KnowledgeGap
	require.NoError(t, json.Unmarshal([]byte(out), &gaps))
	require.Len(t, gaps, 2)
	assert.Equal(t, "Germany", gaps[0].Entity)
	assert.Equal(t, []eav.AttributeCategory{eav.CategoryRare}, gaps[0].MissingCategories)
	assert.Equal(t, "Berlin", gaps[1].Entity)
	assert.Equal(t, eav.CoreCategories, gaps[1].MissingCategories)
}

func TestGraphMatrix(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "graph.json", germanySnapshot)

	out, err := executeCommand(t, "graph", "matrix", path, "-o", "json")
	require.NoError(t, err)

	var matrix semantic.DistanceMatrix
	require.NoError(t, json.Unmarshal([]byte(out), &matrix))
	assert.Equal(t, []string{"germany", "berlin", "munich"}, matrix.Entities)
	for i := range matrix.Entities {
		assert.Zero(t, matrix.Distances[i][i])
		assert.False(t, matrix.ShouldLink[i][i])
	}

	text, err := executeCommand(t, "graph", "matrix", path)
	require.NoError(t, err)
	assert.Contains(t, text, "* should link")
}

func TestGraphCriticality(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "graph.json", germanySnapshot)

	out, err := executeCommand(t, "graph", "criticality", path,
		"--central", "germany", "--core-section", "Berlin", "-o", "json")
	require.NoError(t, err)

	var results []criticality.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)

	assert.Equal(t, "Germany", results[0].Entity)
	assert.Equal(t, 1.0, results[0].Score)
	assert.True(t, results[0].IsCritical)

	byEntity := map[string]criticality.Result{}
	for _, r := range results {
		byEntity[r.Entity] = r
	}
	// Berlin: no categorized outgoing edges (0.4) + core section (0.2).
	// germany -> munich is direct, so nothing bridges.
	berlin := byEntity["Berlin"]
	assert.Equal(t, 0.4, berlin.Breakdown.Base)
	assert.Equal(t, 0.2, berlin.Breakdown.CoreSection)
	assert.Zero(t, berlin.Breakdown.Bridge)
	assert.Equal(t, 0.6, berlin.Score)
	assert.False(t, berlin.IsCritical)

	out, err = executeCommand(t, "graph", "criticality", path, "--critical-only", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	for _, r := range results {
		assert.True(t, r.IsCritical)
	}
}

func TestGraph_MissingFile(t *testing.T) {
	isolate(t)
	_, err := executeCommand(t, "graph", "stats", "/does/not/exist.json")
	assert.Error(t, err)
}

func TestGraph_CorruptSnapshot(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "bad.json", `{"nodes":[]}`)
	_, err := executeCommand(t, "graph", "risks", path)
	assert.Error(t, err)
}

func TestDominantCategory(t *testing.T) {
	edge := func(c eav.AttributeCategory) semantic.KnowledgeEdge {
		return semantic.KnowledgeEdge{Metadata: semantic.EdgeMetadata{Category: c}}
	}

	tests := []struct {
		name  string
		edges []semantic.KnowledgeEdge
		want  eav.AttributeCategory
	}{
		{"none", nil, ""},
		{"uncategorized", []semantic.KnowledgeEdge{edge("")}, ""},
		{"most frequent", []semantic.KnowledgeEdge{edge("RARE"), edge("RARE"), edge("UNIQUE")}, eav.CategoryRare},
		{"tie goes to unique", []semantic.KnowledgeEdge{edge("ROOT"), edge("UNIQUE")}, eav.CategoryUnique},
		{"legacy aliases", []semantic.KnowledgeEdge{edge("SEARCH_DEMAND"), edge("composite"), edge("RARE")}, eav.CategoryRare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dominantCategory(tt.edges))
		})
	}
}
