package semantic

import (
	"math"
	"slices"
	"strings"
)

// pairKey returns the order-independent key for two entity names.
func pairKey(a, b string) (string, string, string) {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b, a, b
}

// AddCoOccurrence records that two entities appeared together in context.
// Proximity only ever tightens: a looser proximity than the recorded one is
// ignored.
func (g *KnowledgeGraph) AddCoOccurrence(entityA, entityB, context string, proximity Proximity) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key, a, b := pairKey(g.entityName(entityA), g.entityName(entityB))
	record, exists := g.coOccurrences.Get(key)
	if !exists {
		record = &CoOccurrence{EntityA: a, EntityB: b, Contexts: []string{}, Proximity: ProximitySamePage}
		g.coOccurrences.Set(key, record)
	}

	record.Count++
	if context != "" && !slices.Contains(record.Contexts, context) {
		record.Contexts = append(record.Contexts, context)
	}
	if proximity.rank() > record.Proximity.rank() {
		record.Proximity = proximity
	}

	g.invalidate()
}

// CoOccurrence returns a copy of the record for the pair, if any.
func (g *KnowledgeGraph) CoOccurrence(entityA, entityB string) (CoOccurrence, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	key, _, _ := pairKey(g.entityName(entityA), g.entityName(entityB))
	record, ok := g.coOccurrences.Get(key)
	if !ok {
		return CoOccurrence{}, false
	}
	out := *record
	out.Contexts = slices.Clone(record.Contexts)
	return out, true
}

// CoOccurrenceScore scores how strongly two entities co-occur, in
// [0.5, 1.0]. Pairs never seen together score the neutral 0.5.
func (g *KnowledgeGraph) CoOccurrenceScore(entityA, entityB string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.coOccurrenceScoreLocked(g.entityName(entityA), g.entityName(entityB))
}

func (g *KnowledgeGraph) coOccurrenceScoreLocked(entityA, entityB string) float64 {
	key, _, _ := pairKey(entityA, entityB)
	record, ok := g.coOccurrences.Get(key)
	if !ok {
		return neutralScore
	}

	countScore := math.Min(1, math.Log10(float64(record.Count)+1)/2)
	return neutralScore + countScore*proximityMultiplier(record.Proximity)*0.5
}

// entityName maps an ID or term to the name co-occurrences and contexts are
// recorded under: the node's term when it resolves, the input otherwise.
func (g *KnowledgeGraph) entityName(termOrID string) string {
	if node, ok := g.getNodeLocked(termOrID); ok {
		return node.Term
	}
	return termOrID
}
