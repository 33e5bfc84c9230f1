package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/topicalmap/core/pagerank"
)

const hubEdges = `[
  {"from": "/", "to": "/a"},
  {"from": "/", "to": "/b"},
  {"from": "/a", "to": "/"},
  {"from": "/b", "to": "/", "weight": 2},
  {"from": "/c", "to": "/"}
]`

func TestPagerankCmd_Definition(t *testing.T) {
	t.Run("command is defined", func(t *testing.T) {
		assert.Equal(t, "pagerank <edges.json>", pagerankCmd.Use)
		assert.Equal(t, "Simulate internal PageRank over a link graph", pagerankCmd.Short)
	})

	t.Run("has flags", func(t *testing.T) {
		flags := pagerankCmd.Flags()

		damping := flags.Lookup("damping")
		require.NotNil(t, damping)
		assert.Equal(t, "d", damping.Shorthand)
		assert.Equal(t, "0.85", damping.DefValue)

		iterations := flags.Lookup("max-iterations")
		require.NotNil(t, iterations)
		assert.Equal(t, "100", iterations.DefValue)

		require.NotNil(t, flags.Lookup("threshold"))
		require.NotNil(t, flags.Lookup("top"))
	})
}

func TestPagerank_Run(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "edges.json", hubEdges)

	out, err := executeCommand(t, "pagerank", path, "-o", "json")
	require.NoError(t, err)

	var report pagerank.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Pages, 4)
	assert.Equal(t, "/", report.Pages[0].URL)
	assert.Equal(t, 100.0, report.Pages[0].NormalizedScore)
	assert.Equal(t, []string{"/c"}, report.OrphanPages)
	assert.Empty(t, report.SinkPages)
	assert.True(t, report.Converged)
}

func TestPagerank_TextOutput(t *testing.T) {
	isolate(t)
	path := writeFixture(t, "edges.json", hubEdges)

	out, err := executeCommand(t, "pagerank", path, "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "/a")
	assert.NotContains(t, out, "/c ")
	assert.Contains(t, out, "orphan pages")
	assert.Contains(t, out, "converged: yes")
}

func TestPagerank_FlagsOverrideConfig(t *testing.T) {
	isolate(t)
	t.Setenv("TOPICALMAP_PAGERANK_MAX_ITERATIONS", "50")
	path := writeFixture(t, "edges.json", hubEdges)

	out, err := executeCommand(t, "pagerank", path, "-i", "1", "-o", "json")
	require.NoError(t, err)

	var report pagerank.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Iterations)
	assert.False(t, report.Converged)
}

func TestPagerank_InvalidInput(t *testing.T) {
	isolate(t)

	t.Run("bad damping", func(t *testing.T) {
		path := writeFixture(t, "edges.json", hubEdges)
		_, err := executeCommand(t, "pagerank", path, "--damping", "1.5")
		assert.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		path := writeFixture(t, "edges.json", `{"from": "/"}`)
		_, err := executeCommand(t, "pagerank", path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(t, "pagerank", "/does/not/exist.json")
		assert.Error(t, err)
	})
}
