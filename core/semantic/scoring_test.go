package semantic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Co-occurrence
// =============================================================================

func TestCoOccurrence_ScoreRepeatedSamePage(t *testing.T) {
	g := New()
	for i := 0; i < 3; i++ {
		g.AddCoOccurrence("cat", "dog", "page1", ProximitySamePage)
	}

	expected := 0.5 + math.Min(1, math.Log10(4)/2)*0.4*0.5
	assert.InDelta(t, expected, g.CoOccurrenceScore("cat", "dog"), 1e-9)
	assert.InDelta(t, 0.560, g.CoOccurrenceScore("dog", "cat"), 1e-3)

	record, ok := g.CoOccurrence("DOG", "Cat")
	require.True(t, ok)
	assert.Equal(t, 3, record.Count)
	assert.Equal(t, []string{"page1"}, record.Contexts, "contexts are deduplicated")
	assert.Equal(t, "cat", record.EntityA)
	assert.Equal(t, "dog", record.EntityB)
}

func TestCoOccurrence_NeutralWhenUnseen(t *testing.T) {
	g := New()
	assert.Equal(t, 0.5, g.CoOccurrenceScore("cat", "dog"))
}

func TestCoOccurrence_ProximityOnlyUpgrades(t *testing.T) {
	tests := []struct {
		name     string
		calls    []Proximity
		expected Proximity
	}{
		{"page then sentence", []Proximity{ProximitySamePage, ProximitySameSentence}, ProximitySameSentence},
		{"sentence then page", []Proximity{ProximitySameSentence, ProximitySamePage}, ProximitySameSentence},
		{"section then page", []Proximity{ProximitySameSection, ProximitySamePage}, ProximitySameSection},
		{"page then section", []Proximity{ProximitySamePage, ProximitySameSection}, ProximitySameSection},
		{"sentence then section", []Proximity{ProximitySameSentence, ProximitySameSection}, ProximitySameSentence},
		{"unknown ignored", []Proximity{ProximitySamePage, "same_universe"}, ProximitySamePage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for i, p := range tt.calls {
				g.AddCoOccurrence("A", "B", string(rune('a'+i)), p)
			}
			record, ok := g.CoOccurrence("a", "b")
			require.True(t, ok)
			assert.Equal(t, tt.expected, record.Proximity)
			assert.Len(t, record.Contexts, len(tt.calls))
		})
	}
}

func TestCoOccurrence_ScoreBounds(t *testing.T) {
	g := New()
	for i := 0; i < 500; i++ {
		g.AddCoOccurrence("a", "b", "p", ProximitySameSentence)
	}
	assert.Equal(t, 1.0, g.CoOccurrenceScore("a", "b"))
}

func TestCoOccurrence_ResolvesNodeTerm(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "n1", Term: "Cat"})
	g.AddCoOccurrence("cat", "dog", "p", ProximitySameSentence)

	assert.Greater(t, g.CoOccurrenceScore("n1", "dog"), 0.5)
}

func TestCoOccurrence_RecordedByNodeID(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "n1", Term: "Germany"})
	g.AddNode(KnowledgeNode{ID: "n2", Term: "Berlin"})
	for i := 0; i < 3; i++ {
		g.AddCoOccurrence("n1", "n2", "page1", ProximitySameSentence)
	}

	for _, pair := range [][2]string{{"n1", "n2"}, {"Germany", "Berlin"}, {"n2", "germany"}} {
		record, ok := g.CoOccurrence(pair[0], pair[1])
		require.True(t, ok, "%v", pair)
		assert.Equal(t, 3, record.Count)
		assert.Equal(t, ProximitySameSentence, record.Proximity)
		assert.Greater(t, g.CoOccurrenceScore(pair[0], pair[1]), 0.5)
	}
	assert.Equal(t, "berlin", g.Snapshot().CoOccurrences[0].EntityA)
}

func TestEntityContext_RecordedByNodeID(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "n1", Term: "Germany"})
	require.True(t, g.AddEntityContext("n1", PositionH1, "page1"))
	assert.False(t, g.AddEntityContext("Germany", PositionH1, "page1"), "same entity, page and position")

	assert.Len(t, g.EntityContexts("n1"), 1)
	assert.Len(t, g.EntityContexts("germany"), 1)
	assert.Greater(t, g.ContextWeight("n1"), 0.5)
	assert.Equal(t, g.ContextWeight("n1"), g.ContextWeight("Germany"))
}

// =============================================================================
// Context Weight
// =============================================================================

func TestContextWeight(t *testing.T) {
	t.Run("neutral without contexts", func(t *testing.T) {
		g := New()
		assert.Equal(t, 0.5, g.ContextWeight("anything"))
	})

	t.Run("mean plus variety bonus", func(t *testing.T) {
		g := New()
		require.True(t, g.AddEntityContext("Solar", PositionH1, "p1"))
		require.True(t, g.AddEntityContext("solar", PositionBody, "p1"))
		// mean(1.0, 0.4) = 0.7, two positions = +0.2
		assert.InDelta(t, 0.9, g.ContextWeight("SOLAR"), 1e-9)
	})

	t.Run("variety bonus capped and total capped", func(t *testing.T) {
		g := New()
		for _, p := range []Position{PositionH1, PositionH2, PositionH3, PositionBody} {
			g.AddEntityContext("Solar", p, "p1")
		}
		// mean 0.7 + min(0.4, 0.3) = 1.0
		assert.InDelta(t, 1.0, g.ContextWeight("Solar"), 1e-9)

		g2 := New()
		g2.AddEntityContext("Solar", PositionH1, "p1")
		g2.AddEntityContext("Solar", PositionH1, "p2")
		assert.Equal(t, 1.0, g2.ContextWeight("Solar"))
	})

	t.Run("duplicate triple rejected", func(t *testing.T) {
		g := New()
		assert.True(t, g.AddEntityContext("Solar", PositionMeta, "p1"))
		assert.False(t, g.AddEntityContext("Solar", PositionMeta, "p1"))
		assert.True(t, g.AddEntityContext("Solar", PositionMeta, "p2"))
		assert.Len(t, g.EntityContexts("solar"), 2)
	})

	t.Run("weights fixed by position", func(t *testing.T) {
		g := New()
		g.AddEntityContext("Solar", PositionAltText, "p1")
		contexts := g.EntityContexts("Solar")
		require.Len(t, contexts, 1)
		assert.Equal(t, 0.5, contexts[0].Weight)
	})

	t.Run("pair weight is geometric mean", func(t *testing.T) {
		g := New()
		g.AddEntityContext("A", PositionH1, "p1") // 1.0 after cap
		// B has no contexts: 0.5
		assert.InDelta(t, math.Sqrt(0.5), g.PairContextWeight("A", "B"), 1e-9)
	})
}

func TestPositionWeight(t *testing.T) {
	assert.Equal(t, 1.0, PositionWeight(PositionH1))
	assert.Equal(t, 0.8, PositionWeight(PositionH2))
	assert.Equal(t, 0.6, PositionWeight(PositionH3))
	assert.Equal(t, 0.4, PositionWeight(PositionBody))
	assert.Equal(t, 0.5, PositionWeight(PositionAltText))
	assert.Equal(t, 0.3, PositionWeight(PositionMeta))
	assert.Equal(t, 0.4, PositionWeight("footer"))
}

// =============================================================================
// Similarity
// =============================================================================

func TestSemanticSimilarity_Cascade(t *testing.T) {
	g := New()
	g.AddNode(KnowledgeNode{ID: "a", Term: "Alpha", Type: "Letter"})
	g.AddNode(KnowledgeNode{ID: "b", Term: "Beta", Type: "Letter"})
	g.AddNode(KnowledgeNode{ID: "c", Term: "Gamma", Type: "Letter"})
	g.AddNode(KnowledgeNode{ID: "d", Term: "Delta", Type: "Letter"})
	g.AddNode(KnowledgeNode{ID: "a2", Term: "ALPHA", Type: "Other"})
	g.AddNode(KnowledgeNode{ID: "x", Term: "Xylophone", Type: "instrument"})
	g.AddNode(KnowledgeNode{ID: "y", Term: "Yodel", Type: "INSTRUMENT"})
	g.AddNode(KnowledgeNode{ID: "z", Term: "Zebra", Type: "Animal"})

	g.AddEdge(KnowledgeEdge{ID: "e1", Source: "a", Target: "c"})
	g.AddEdge(KnowledgeEdge{ID: "e2", Source: "b", Target: "c"})
	g.AddEdge(KnowledgeEdge{ID: "e3", Source: "a", Target: "d"})

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"unknown entity", "a", "nope", 0},
		{"same node", "a", "Alpha", 1.0},
		{"same term different node", "a", "a2", 1.0},
		{"direct edge forward", "a", "c", 0.9},
		{"direct edge backward", "c", "b", 0.9},
		{"jaccard half", "a", "b", 0.3 + 0.5*0.5},
		{"one side has neighbors", "a", "x", 0.3},
		{"same type case-insensitive", "x", "y", 0.2},
		{"unrelated", "x", "z", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, g.SemanticSimilarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, g.SemanticSimilarity(tt.b, tt.a), 1e-9, "symmetry")
		})
	}
}

func TestSemanticSimilarity_GermanyBerlin(t *testing.T) {
	g := newGermanyGraph(t)
	assert.Equal(t, 0.9, g.SemanticSimilarity("Germany", "Berlin"))
}
