package semantic

import "strings"

// SemanticSimilarity scores how related two entities are structurally, in
// [0,1]. The rules form a strict cascade and the first match wins:
//
//  1. either entity unknown            -> 0
//  2. same node or same term           -> 1.0
//  3. directly connected (either way)  -> 0.9
//  4. any neighbors (Jaccard J)        -> 0.3 + 0.5*J
//  5. same type                        -> 0.2
//  6. otherwise                        -> 0.1
//
// Rule 4 can score barely above rule 5; connected entities with little
// overlap still outrank entities that merely share a type.
func (g *KnowledgeGraph) SemanticSimilarity(term1, term2 string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, okA := g.getNodeLocked(term1)
	b, okB := g.getNodeLocked(term2)
	if !okA || !okB {
		return 0
	}
	return g.similarityLocked(a, b)
}

func (g *KnowledgeGraph) similarityLocked(a, b KnowledgeNode) float64 {
	if a.ID == b.ID || strings.EqualFold(a.Term, b.Term) {
		return similarityIdentical
	}

	if g.connectedLocked(a.ID, b.ID) {
		return similarityDirectEdge
	}

	neighborsA := g.neighborSetLocked(a.ID)
	neighborsB := g.neighborSetLocked(b.ID)
	if len(neighborsA) > 0 || len(neighborsB) > 0 {
		return similarityJaccardMin + similarityJaccardAmp*jaccard(neighborsA, neighborsB)
	}

	if strings.EqualFold(a.Type, b.Type) {
		return similaritySameType
	}
	return similarityUnrelated
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
