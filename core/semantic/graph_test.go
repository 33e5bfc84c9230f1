package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/topicalmap/core/eav"
)

func newGermanyGraph(t *testing.T) *KnowledgeGraph {
	t.Helper()
	g := New()
	g.AddNode(KnowledgeNode{ID: "germany", Term: "Germany", Type: "Country"})
	g.AddNode(KnowledgeNode{ID: "berlin", Term: "Berlin", Type: "City"})
	g.AddEdge(KnowledgeEdge{
		ID:       "e1",
		Source:   "germany",
		Target:   "berlin",
		Metadata: EdgeMetadata{Category: eav.CategoryRoot},
	})
	return g
}

func TestKnowledgeGraph_AddNodeUpsert(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "n1", Term: "Solar", Type: "Topic"})
	g.AddNode(KnowledgeNode{ID: "n2", Term: "Wind", Type: "Topic"})
	g.AddNode(KnowledgeNode{ID: "n1", Term: "Solar Power", Type: "Topic"})

	assert.Equal(t, 2, g.NodeCount())

	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "n1", nodes[0].ID, "upsert keeps insertion position")
	assert.Equal(t, "Solar Power", nodes[0].Term)

	_, ok := g.GetNode("solar")
	assert.False(t, ok, "old term no longer resolves")

	node, ok := g.GetNode("SOLAR POWER")
	require.True(t, ok)
	assert.Equal(t, "n1", node.ID)
}

func TestKnowledgeGraph_GetNode(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "a", Term: "Berlin", Type: "City"})
	g.AddNode(KnowledgeNode{ID: "b", Term: "berlin", Type: "City"})
	g.AddNode(KnowledgeNode{ID: "Berlin", Term: "Capital", Type: "City"})

	t.Run("exact id wins", func(t *testing.T) {
		node, ok := g.GetNode("Berlin")
		require.True(t, ok)
		assert.Equal(t, "Berlin", node.ID)
	})

	t.Run("first term match by insertion order", func(t *testing.T) {
		node, ok := g.GetNode("BERLIN")
		require.True(t, ok)
		assert.Equal(t, "a", node.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, ok := g.GetNode("Paris")
		assert.False(t, ok)
	})
}

func TestKnowledgeGraph_DanglingEdges(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "a", Term: "A"})
	g.AddEdge(KnowledgeEdge{ID: "e1", Source: "a", Target: "ghost"})

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"ghost"}, g.Neighbors("a"))
	assert.Nil(t, g.Neighbors("ghost"), "unresolved nodes have no neighbors")
	assert.Equal(t, 0.0, g.SemanticSimilarity("a", "ghost"))
}

func TestKnowledgeGraph_AddEdgeGeneratesID(t *testing.T) {
	g := New()
	edge := g.AddEdge(KnowledgeEdge{Source: "a", Target: "b"})

	assert.NotEmpty(t, edge.ID)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestKnowledgeGraph_AddEdgeUpsertReindexes(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(KnowledgeNode{ID: id, Term: id})
	}
	g.AddEdge(KnowledgeEdge{ID: "e1", Source: "a", Target: "b"})
	g.AddEdge(KnowledgeEdge{ID: "e1", Source: "a", Target: "c"})

	assert.Equal(t, []string{"c"}, g.Neighbors("a"))
	assert.Empty(t, g.Neighbors("b"))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestKnowledgeGraph_Clear(t *testing.T) {
	g := newGermanyGraph(t)
	g.AddCoOccurrence("Germany", "Berlin", "p1", ProximitySamePage)
	g.AddEntityContext("Germany", PositionH1, "p1")

	g.Clear()

	stats := g.ExtendedStatistics()
	assert.Zero(t, stats.NodeCount)
	assert.Zero(t, stats.EdgeCount)
	assert.Zero(t, stats.CoOccurrenceCount)
	assert.Zero(t, stats.EntitiesWithContext)
}

func TestKnowledgeGraph_OutgoingEdges(t *testing.T) {
	g := newGermanyGraph(t)

	out := g.OutgoingEdges("Germany")
	require.Len(t, out, 1)
	assert.Equal(t, "berlin", out[0].Target)
	assert.Empty(t, g.OutgoingEdges("Berlin"))
	assert.Nil(t, g.OutgoingEdges("Narnia"))
}
