package planner

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// dependencyGraph holds, per input index, the indices a topic waits on.
type dependencyGraph struct {
	deps  [][]int
	order []int
	waves int
	// cyclic counts topics left over once Kahn's queue drained.
	cyclic int
}

// dependencyIndices returns the parent and, for cluster content, the
// nearest pillar ancestor. Only topics present in the set count. A topic
// that names itself as parent depends on itself and so never clears.
func dependencyIndices(t Topic, idx topicIndex) []int {
	var deps []int
	add := func(i int) {
		for _, d := range deps {
			if d == i {
				return
			}
		}
		deps = append(deps, i)
	}

	if i, ok := idx.byID[t.ParentTopicID]; ok && t.ParentTopicID != "" {
		add(i)
	}
	if t.isClusterContent() {
		if i, ok := nearestPillar(t, idx); ok {
			add(i)
		}
	}
	return deps
}

func nearestPillar(t Topic, idx topicIndex) (int, bool) {
	visited := map[string]bool{t.ID: true}
	current := t
	for current.ParentTopicID != "" && !visited[current.ParentTopicID] {
		visited[current.ParentTopicID] = true
		i, ok := idx.byID[current.ParentTopicID]
		if !ok {
			return 0, false
		}
		current = idx.topics[i]
		if current.isPillar() {
			return i, true
		}
	}
	return 0, false
}

// resolveDependencies layers topics with Kahn's algorithm. Topics with no
// unmet dependencies get order 0 and each later wave increments it. Topics
// stuck in a cycle share the order after the last wave.
func resolveDependencies(idx topicIndex) dependencyGraph {
	n := len(idx.topics)
	g := dependencyGraph{
		deps:  make([][]int, n),
		order: make([]int, n),
	}

	inDegree := make([]int, n)
	dependents := make([][]int, n)
	for i, t := range idx.topics {
		g.deps[i] = dependencyIndices(t, idx)
		inDegree[i] = len(g.deps[i])
		for _, d := range g.deps[i] {
			dependents[d] = append(dependents[d], i)
		}
	}

	var wave []int
	for i := range inDegree {
		if inDegree[i] == 0 {
			wave = append(wave, i)
		}
	}

	done := make([]bool, n)
	for len(wave) > 0 {
		var next []int
		for _, i := range wave {
			g.order[i] = g.waves
			done[i] = true
			for _, dep := range dependents[i] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		g.waves++
		wave = next
	}

	for i := range done {
		if !done[i] {
			g.order[i] = g.waves
			g.cyclic++
		}
	}
	return g
}

// HasCircularDependencies reports whether the parent and pillar links of
// topics form a cycle, including a topic that is its own parent.
func HasCircularDependencies(topics []Topic) bool {
	idx := newTopicIndex(topics)

	g := simple.NewDirectedGraph()
	for i := range topics {
		g.AddNode(simple.Node(i))
	}
	for i, t := range topics {
		if t.ParentTopicID != "" && t.ParentTopicID == t.ID {
			return true
		}
		for _, d := range dependencyIndices(t, idx) {
			if d == i {
				return true
			}
			g.SetEdge(g.NewEdge(simple.Node(d), simple.Node(i)))
		}
	}

	_, err := topo.Sort(g)
	return err != nil
}
