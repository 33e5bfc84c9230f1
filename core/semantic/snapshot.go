package semantic

import (
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Snapshot is the durable form of a knowledge graph.
type Snapshot struct {
	Nodes          []KnowledgeNode    `json:"nodes" yaml:"nodes"`
	Edges          []KnowledgeEdge    `json:"edges" yaml:"edges"`
	CoOccurrences  []CoOccurrence     `json:"coOccurrences" yaml:"co_occurrences"`
	EntityContexts []EntityContextSet `json:"entityContexts" yaml:"entity_contexts"`
}

// EntityContextSet groups the contexts recorded for one entity.
type EntityContextSet struct {
	Entity   string          `json:"entity" yaml:"entity"`
	Contexts []EntityContext `json:"contexts" yaml:"contexts"`
}

// rawSnapshot distinguishes a missing array from an empty one.
type rawSnapshot struct {
	Nodes          *[]KnowledgeNode    `json:"nodes"`
	Edges          *[]KnowledgeEdge    `json:"edges"`
	CoOccurrences  *[]CoOccurrence     `json:"coOccurrences"`
	EntityContexts *[]EntityContextSet `json:"entityContexts"`
}

// Snapshot copies the graph into its serializable form. Slices are never
// nil so they encode as empty arrays.
func (g *KnowledgeGraph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		Nodes:          g.nodeListLocked(),
		Edges:          g.edgeListLocked(),
		CoOccurrences:  make([]CoOccurrence, 0, g.coOccurrences.Len()),
		EntityContexts: make([]EntityContextSet, 0, g.entityContexts.Len()),
	}
	for pair := g.coOccurrences.Oldest(); pair != nil; pair = pair.Next() {
		record := *pair.Value
		record.Contexts = slices.Clone(pair.Value.Contexts)
		if record.Contexts == nil {
			record.Contexts = []string{}
		}
		s.CoOccurrences = append(s.CoOccurrences, record)
	}
	for pair := g.entityContexts.Oldest(); pair != nil; pair = pair.Next() {
		s.EntityContexts = append(s.EntityContexts, EntityContextSet{
			Entity:   pair.Key,
			Contexts: slices.Clone(pair.Value),
		})
	}
	return s
}

// Restore replaces the graph's contents with s. The graph is left
// untouched if s would violate identity invariants.
func (g *KnowledgeGraph) Restore(s Snapshot) error {
	staged := New(WithCacheSize(0))
	if err := staged.load(s); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = staged.nodes
	g.edges = staged.edges
	g.coOccurrences = staged.coOccurrences
	g.entityContexts = staged.entityContexts
	g.bySource = staged.bySource
	g.byTarget = staged.byTarget
	g.terms = staged.terms
	g.nodeSeq = staged.nodeSeq
	g.nextSeq = staged.nextSeq
	g.invalidate()

	g.logger.Debug("restored knowledge graph",
		zap.Int("nodes", g.nodes.Len()),
		zap.Int("edges", g.edges.Len()),
		zap.Int("co_occurrences", g.coOccurrences.Len()),
		zap.Int("entity_contexts", g.entityContexts.Len()),
	)
	return nil
}

// load fills an empty graph from s, validating as it goes.
func (g *KnowledgeGraph) load(s Snapshot) error {
	for i, node := range s.Nodes {
		if node.ID == "" {
			return corruptf("node %d has an empty id", i)
		}
		if _, exists := g.nodes.Get(node.ID); exists {
			return corruptf("duplicate node id %q", node.ID)
		}
		g.addNodeLocked(node)
	}

	for i, edge := range s.Edges {
		if edge.ID == "" {
			return corruptf("edge %d has an empty id", i)
		}
		if _, exists := g.edges.Get(edge.ID); exists {
			return corruptf("duplicate edge id %q", edge.ID)
		}
		g.addEdgeLocked(edge)
	}

	for _, record := range s.CoOccurrences {
		key, a, b := pairKey(record.EntityA, record.EntityB)
		if _, exists := g.coOccurrences.Get(key); exists {
			return corruptf("duplicate co-occurrence for %q and %q", a, b)
		}
		if record.Count < 0 {
			return corruptf("negative co-occurrence count for %q and %q", a, b)
		}
		proximity := record.Proximity
		if proximity == "" {
			proximity = ProximitySamePage
		}
		if proximity.rank() == 0 {
			return corruptf("unknown proximity %q for %q and %q", record.Proximity, a, b)
		}
		contexts := slices.Clone(record.Contexts)
		if contexts == nil {
			contexts = []string{}
		}
		g.coOccurrences.Set(key, &CoOccurrence{
			EntityA:   a,
			EntityB:   b,
			Count:     record.Count,
			Contexts:  contexts,
			Proximity: proximity,
		})
	}

	for _, set := range s.EntityContexts {
		key := strings.ToLower(set.Entity)
		if _, exists := g.entityContexts.Get(key); exists {
			return corruptf("duplicate entity context set for %q", set.Entity)
		}
		for _, c := range set.Contexts {
			if c.Weight < 0 || c.Weight > 1 {
				return corruptf("context weight %.2f for %q outside [0,1]", c.Weight, set.Entity)
			}
		}
		g.entityContexts.Set(key, slices.Clone(set.Contexts))
	}
	return nil
}

// MarshalJSON encodes the graph as a Snapshot.
func (g *KnowledgeGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

// UnmarshalJSON replaces the graph with the encoded snapshot. All four
// arrays must be present.
func (g *KnowledgeGraph) UnmarshalJSON(data []byte) error {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Mark(errors.Wrap(err, "decode knowledge graph snapshot"), ErrCorruptSnapshot)
	}

	switch {
	case raw.Nodes == nil:
		return corruptf("missing nodes array")
	case raw.Edges == nil:
		return corruptf("missing edges array")
	case raw.CoOccurrences == nil:
		return corruptf("missing coOccurrences array")
	case raw.EntityContexts == nil:
		return corruptf("missing entityContexts array")
	}

	if g.logger == nil {
		// Zero-value graph being decoded into.
		g.logger = zap.NewNop().Named("semantic")
	}
	return g.Restore(Snapshot{
		Nodes:          *raw.Nodes,
		Edges:          *raw.Edges,
		CoOccurrences:  *raw.CoOccurrences,
		EntityContexts: *raw.EntityContexts,
	})
}

// Load decodes a knowledge graph from r.
func Load(r io.Reader, opts ...Option) (*KnowledgeGraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read knowledge graph snapshot")
	}
	g := New(opts...)
	if err := g.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return g, nil
}
