package semantic

import (
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// AddEntityContext records that an entity appears at position on pageURL.
// It returns false when that (entity, page, position) is already recorded.
func (g *KnowledgeGraph) AddEntityContext(entity string, position Position, pageURL string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.ToLower(g.entityName(entity))
	contexts, _ := g.entityContexts.Get(key)
	for _, existing := range contexts {
		if existing.PageURL == pageURL && existing.Position == position {
			return false
		}
	}

	contexts = append(contexts, EntityContext{
		EntityID: entity,
		Position: position,
		PageURL:  pageURL,
		Weight:   PositionWeight(position),
	})
	g.entityContexts.Set(key, contexts)
	g.invalidate()
	return true
}

// EntityContexts returns the contexts recorded for an entity.
func (g *KnowledgeGraph) EntityContexts(entity string) []EntityContext {
	g.mu.RLock()
	defer g.mu.RUnlock()

	contexts, _ := g.entityContexts.Get(strings.ToLower(g.entityName(entity)))
	return slices.Clone(contexts)
}

// ContextWeight scores how prominently an entity is placed, in [0,1].
// Entities without contexts score the neutral 0.5.
func (g *KnowledgeGraph) ContextWeight(entity string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.contextWeightLocked(g.entityName(entity))
}

func (g *KnowledgeGraph) contextWeightLocked(entity string) float64 {
	contexts, _ := g.entityContexts.Get(strings.ToLower(entity))
	if len(contexts) == 0 {
		return neutralScore
	}

	weights := make([]float64, len(contexts))
	positions := make(map[Position]struct{}, len(contexts))
	for i, c := range contexts {
		weights[i] = c.Weight
		positions[c.Position] = struct{}{}
	}

	variety := math.Min(float64(len(positions))*contextVarietyStep, contextVarietyCap)
	return math.Min(1, stat.Mean(weights, nil)+variety)
}

// PairContextWeight is the geometric mean of both entities' context weights.
func (g *KnowledgeGraph) PairContextWeight(entityA, entityB string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pairContextWeightLocked(g.entityName(entityA), g.entityName(entityB))
}

func (g *KnowledgeGraph) pairContextWeightLocked(entityA, entityB string) float64 {
	return math.Sqrt(g.contextWeightLocked(entityA) * g.contextWeightLocked(entityB))
}
