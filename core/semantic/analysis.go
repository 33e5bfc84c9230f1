package semantic

import (
	"fmt"

	"github.com/adalundhe/topicalmap/core/eav"
)

const uncategorized = "UNCATEGORIZED"

var gapSuggestions = map[eav.AttributeCategory]string{
	eav.CategoryRoot:   "Add ROOT attributes that define what %s fundamentally is.",
	eav.CategoryUnique: "Add UNIQUE attributes that differentiate %s from similar entities.",
	eav.CategoryRare:   "Add RARE attributes that show in-depth expertise about %s.",
}

// IdentifyKnowledgeGaps reports, for every node with outgoing edges, which
// of ROOT, UNIQUE and RARE its edges do not cover. Legacy category names
// count as their canonical equivalent.
func (g *KnowledgeGraph) IdentifyKnowledgeGaps() []KnowledgeGap {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var gaps []KnowledgeGap
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		node := pair.Value
		outgoing := g.outgoingLocked(node.ID)
		if len(outgoing) == 0 {
			continue
		}

		covered := make(map[eav.AttributeCategory]bool, len(eav.CoreCategories))
		for _, edge := range outgoing {
			if category, ok := edge.Metadata.Category.Canonical(); ok {
				covered[category] = true
			}
		}

		gap := KnowledgeGap{EntityID: node.ID, Entity: node.Term}
		for _, category := range eav.CoreCategories {
			if covered[category] {
				continue
			}
			gap.MissingCategories = append(gap.MissingCategories, category)
			gap.Suggestions = append(gap.Suggestions, fmt.Sprintf(gapSuggestions[category], node.Term))
		}
		if len(gap.MissingCategories) > 0 {
			gaps = append(gaps, gap)
		}
	}
	return gaps
}

// Statistics returns node and edge counts, the edge category histogram and
// the average neighbor count per node.
func (g *KnowledgeGraph) Statistics() Statistics {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.statisticsLocked()
}

func (g *KnowledgeGraph) statisticsLocked() Statistics {
	stats := Statistics{
		NodeCount:  g.nodes.Len(),
		EdgeCount:  g.edges.Len(),
		Categories: make(map[string]int),
	}

	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		category := string(pair.Value.Metadata.Category)
		if category == "" {
			category = uncategorized
		}
		stats.Categories[category]++
	}

	if stats.NodeCount > 0 {
		total := 0
		for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
			total += len(g.neighborSetLocked(pair.Key))
		}
		stats.AverageNeighbors = round2(float64(total) / float64(stats.NodeCount))
	}
	return stats
}

// ExtendedStatistics adds co-occurrence, context and cannibalization counts
// to Statistics. It is O(N^2) in the node count.
func (g *KnowledgeGraph) ExtendedStatistics() ExtendedStatistics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ext := ExtendedStatistics{
		Statistics:               g.statisticsLocked(),
		CoOccurrenceCount:        g.coOccurrences.Len(),
		EntitiesWithContext:      g.entityContexts.Len(),
		CannibalizationRiskCount: len(g.cannibalizationLocked()),
	}
	for pair := g.entityContexts.Oldest(); pair != nil; pair = pair.Next() {
		ext.EntityContextCount += len(pair.Value)
	}
	return ext
}
