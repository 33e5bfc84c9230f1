package semantic

import (
	"cmp"
	"context"
	"math"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CalculateSemanticDistance combines similarity, context weight and
// co-occurrence into a distance in [0,1] where 0 means identical. The
// result is symmetric in its arguments.
func (g *KnowledgeGraph) CalculateSemanticDistance(entityA, entityB string) SemanticDistanceResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.distanceLocked(entityA, entityB)
}

func (g *KnowledgeGraph) distanceLocked(entityA, entityB string) SemanticDistanceResult {
	nodeA, okA := g.getNodeLocked(entityA)
	nodeB, okB := g.getNodeLocked(entityB)

	key := cacheKey(entityA, nodeA, okA, entityB, nodeB, okB)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			cached.EntityA, cached.EntityB = entityA, entityB
			return cached
		}
	}

	var result SemanticDistanceResult
	if okA && okB && nodeA.ID == nodeB.ID {
		result = SemanticDistanceResult{
			SemanticSimilarity: similarityIdentical,
			ContextWeight:      1,
			CoOccurrenceScore:  1,
			Band:               BandIdentical,
			Recommendation:     identicalRecommendation,
		}
	} else {
		similarity := 0.0
		if okA && okB {
			similarity = g.similarityLocked(nodeA, nodeB)
		}
		nameA, nameB := g.entityName(entityA), g.entityName(entityB)
		contextWeight := g.pairContextWeightLocked(nameA, nameB)
		coOccurrence := g.coOccurrenceScoreLocked(nameA, nameB)

		distance := round2(1 - similarity*contextWeight*coOccurrence)
		band, recommendation := classifyDistance(distance)
		result = SemanticDistanceResult{
			Distance:           distance,
			SemanticSimilarity: round2(similarity),
			ContextWeight:      round2(contextWeight),
			CoOccurrenceScore:  round2(coOccurrence),
			ShouldLink:         shouldLink(distance),
			Band:               band,
			Recommendation:     recommendation,
		}
	}

	if g.cache != nil {
		g.cache.Add(key, result)
	}
	result.EntityA, result.EntityB = entityA, entityB
	return result
}

func cacheKey(rawA string, a KnowledgeNode, okA bool, rawB string, b KnowledgeNode, okB bool) string {
	ka, kb := identityKey(rawA, a, okA), identityKey(rawB, b, okB)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "\x00" + kb
}

func identityKey(raw string, node KnowledgeNode, ok bool) string {
	if ok {
		return "n:" + node.ID
	}
	return "t:" + strings.ToLower(raw)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// =============================================================================
// Linking
// =============================================================================

// FindLinkingCandidates returns the nodes inside the linking sweet spot
// for entity, closest to the middle of the band first. Unknown entities
// have no candidates.
func (g *KnowledgeGraph) FindLinkingCandidates(entity string) []LinkingCandidate {
	g.mu.RLock()
	defer g.mu.RUnlock()

	source, ok := g.getNodeLocked(entity)
	if !ok {
		return nil
	}

	var candidates []LinkingCandidate
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		other := pair.Value
		if other.ID == source.ID {
			continue
		}
		result := g.distanceLocked(source.ID, other.ID)
		result.EntityA, result.EntityB = source.Term, other.Term
		if result.ShouldLink {
			candidates = append(candidates, LinkingCandidate{Node: other, Result: result})
		}
	}

	slices.SortStableFunc(candidates, func(a, b LinkingCandidate) int {
		da := math.Abs(a.Result.Distance - linkDistanceMid)
		db := math.Abs(b.Result.Distance - linkDistanceMid)
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return strings.Compare(a.Node.Term, b.Node.Term)
	})
	return candidates
}

// IdentifyCannibalizationRisks returns every unordered node pair closer
// than CannibalizationThreshold, highest risk first.
func (g *KnowledgeGraph) IdentifyCannibalizationRisks() []CannibalizationRisk {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cannibalizationLocked()
}

func (g *KnowledgeGraph) cannibalizationLocked() []CannibalizationRisk {
	nodes := g.nodeListLocked()
	var risks []CannibalizationRisk
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			result := g.distanceLocked(nodes[i].ID, nodes[j].ID)
			if result.Distance < CannibalizationThreshold {
				risks = append(risks, CannibalizationRisk{
					EntityA:  nodes[i],
					EntityB:  nodes[j],
					Distance: result.Distance,
				})
			}
		}
	}

	slices.SortStableFunc(risks, func(a, b CannibalizationRisk) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return risks
}

// BuildDistanceMatrix computes distances between every pair of nodes.
// Rows are computed concurrently; the diagonal is 0 and never linkable.
func (g *KnowledgeGraph) BuildDistanceMatrix(ctx context.Context) (DistanceMatrix, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := g.nodeListLocked()
	n := len(nodes)
	matrix := DistanceMatrix{
		Entities:   make([]string, n),
		Distances:  make([][]float64, n),
		ShouldLink: make([][]bool, n),
	}
	for i, node := range nodes {
		matrix.Entities[i] = node.ID
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range nodes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			distances := make([]float64, n)
			links := make([]bool, n)
			for j := range nodes {
				if i == j {
					continue
				}
				result := g.distanceLocked(nodes[i].ID, nodes[j].ID)
				distances[j] = result.Distance
				links[j] = result.ShouldLink
			}
			matrix.Distances[i] = distances
			matrix.ShouldLink[i] = links
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return DistanceMatrix{}, err
	}
	return matrix, nil
}
