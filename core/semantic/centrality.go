package semantic

import (
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// BetweennessCentrality computes normalized betweenness centrality for
// every node, keyed by node ID. Only edges whose endpoints both exist take
// part; self-loops and parallel edges collapse. Scores are normalized by
// the directed-graph factor (n-1)(n-2) and clamped to [0,1], which is the
// range the criticality scorer expects for its bridge signal.
func (g *KnowledgeGraph) BetweennessCentrality() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := g.nodes.Len()
	result := make(map[string]float64, n)
	ids := make(map[string]int64, n)
	names := make(map[int64]string, n)

	directed := simple.NewDirectedGraph()
	var next int64
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		ids[pair.Key] = next
		names[next] = pair.Key
		directed.AddNode(simple.Node(next))
		result[pair.Key] = 0
		next++
	}
	if n < 3 {
		return result
	}

	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		from, okFrom := ids[pair.Value.Source]
		to, okTo := ids[pair.Value.Target]
		if !okFrom || !okTo || from == to {
			continue
		}
		directed.SetEdge(directed.NewEdge(simple.Node(from), simple.Node(to)))
	}

	norm := float64((n - 1) * (n - 2))
	for id, score := range network.Betweenness(directed) {
		result[names[id]] = math.Max(0, math.Min(1, score/norm))
	}
	return result
}
