// Package semantic implements the in-memory knowledge graph used to measure
// semantic distance between entities, recommend internal links and detect
// cannibalization and knowledge gaps.
package semantic

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// =============================================================================
// KnowledgeGraph
// =============================================================================

// KnowledgeGraph is a directed multigraph of entities with co-occurrence
// and positional context tracking. Queries about unknown entities never
// fail; they degrade to neutral scores.
type KnowledgeGraph struct {
	mu sync.RWMutex

	nodes *orderedmap.OrderedMap[string, KnowledgeNode]
	edges *orderedmap.OrderedMap[string, KnowledgeEdge]

	coOccurrences  *orderedmap.OrderedMap[string, *CoOccurrence]
	entityContexts *orderedmap.OrderedMap[string, []EntityContext]

	// Adjacency indices: node ID -> set of edge IDs.
	bySource map[string]map[string]struct{}
	byTarget map[string]map[string]struct{}

	// Lowercased term -> node IDs in insertion order.
	terms   map[string][]string
	nodeSeq map[string]int
	nextSeq int

	cache  *lru.Cache[string, SemanticDistanceResult]
	logger *zap.Logger
}

// Option configures a KnowledgeGraph.
type Option func(*options)

type options struct {
	cacheSize int
	logger    *zap.Logger
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCacheSize bounds the pairwise distance cache. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(o *options) {
		if size >= 0 {
			o.cacheSize = size
		}
	}
}

// New creates an empty knowledge graph.
func New(opts ...Option) *KnowledgeGraph {
	o := options{cacheSize: defaultCacheSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	g := &KnowledgeGraph{logger: o.logger.Named("semantic")}
	if o.cacheSize > 0 {
		// Only fails for non-positive sizes.
		g.cache, _ = lru.New[string, SemanticDistanceResult](o.cacheSize)
	}
	g.reset()
	return g
}

func (g *KnowledgeGraph) reset() {
	g.nodes = orderedmap.New[string, KnowledgeNode]()
	g.edges = orderedmap.New[string, KnowledgeEdge]()
	g.coOccurrences = orderedmap.New[string, *CoOccurrence]()
	g.entityContexts = orderedmap.New[string, []EntityContext]()
	g.bySource = make(map[string]map[string]struct{})
	g.byTarget = make(map[string]map[string]struct{})
	g.terms = make(map[string][]string)
	g.nodeSeq = make(map[string]int)
	g.nextSeq = 0
	g.invalidate()
}

// invalidate drops memoized distances. Called on every mutation.
func (g *KnowledgeGraph) invalidate() {
	if g.cache != nil && g.cache.Len() > 0 {
		g.logger.Debug("purging distance cache", zap.Int("entries", g.cache.Len()))
		g.cache.Purge()
	}
}

// Clear empties nodes, edges, co-occurrences and entity contexts.
func (g *KnowledgeGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode inserts or replaces the node with node.ID.
func (g *KnowledgeGraph) AddNode(node KnowledgeNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(node)
	g.invalidate()
}

func (g *KnowledgeGraph) addNodeLocked(node KnowledgeNode) {
	if previous, exists := g.nodes.Get(node.ID); exists {
		g.unindexTerm(previous)
	} else {
		g.nodeSeq[node.ID] = g.nextSeq
		g.nextSeq++
	}
	g.nodes.Set(node.ID, node)
	g.indexTerm(node)
}

func (g *KnowledgeGraph) indexTerm(node KnowledgeNode) {
	key := strings.ToLower(node.Term)
	ids := g.terms[key]
	seq := g.nodeSeq[node.ID]
	pos, _ := slices.BinarySearchFunc(ids, seq, func(id string, target int) int {
		return g.nodeSeq[id] - target
	})
	g.terms[key] = slices.Insert(ids, pos, node.ID)
}

func (g *KnowledgeGraph) unindexTerm(node KnowledgeNode) {
	key := strings.ToLower(node.Term)
	ids := slices.DeleteFunc(g.terms[key], func(id string) bool { return id == node.ID })
	if len(ids) == 0 {
		delete(g.terms, key)
		return
	}
	g.terms[key] = ids
}

// GetNode resolves an exact ID first, then the earliest-inserted node whose
// term matches case-insensitively.
func (g *KnowledgeGraph) GetNode(termOrID string) (KnowledgeNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.getNodeLocked(termOrID)
}

func (g *KnowledgeGraph) getNodeLocked(termOrID string) (KnowledgeNode, bool) {
	if node, ok := g.nodes.Get(termOrID); ok {
		return node, true
	}
	if ids := g.terms[strings.ToLower(termOrID)]; len(ids) > 0 {
		return g.nodes.Get(ids[0])
	}
	return KnowledgeNode{}, false
}

// Nodes returns all nodes in insertion order.
func (g *KnowledgeGraph) Nodes() []KnowledgeNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodeListLocked()
}

func (g *KnowledgeGraph) nodeListLocked() []KnowledgeNode {
	result := make([]KnowledgeNode, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Len()
}

// =============================================================================
// Edges
// =============================================================================

// AddEdge inserts or replaces the edge with edge.ID. Endpoints need not
// exist. An edge without an ID is assigned a random one.
func (g *KnowledgeGraph) AddEdge(edge KnowledgeEdge) KnowledgeEdge {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.addEdgeLocked(edge)
	g.invalidate()
	return edge
}

func (g *KnowledgeGraph) addEdgeLocked(edge KnowledgeEdge) {
	if previous, exists := g.edges.Get(edge.ID); exists {
		removeIndex(g.bySource, previous.Source, previous.ID)
		removeIndex(g.byTarget, previous.Target, previous.ID)
	}
	g.edges.Set(edge.ID, edge)
	addIndex(g.bySource, edge.Source, edge.ID)
	addIndex(g.byTarget, edge.Target, edge.ID)
}

func addIndex(index map[string]map[string]struct{}, nodeID, edgeID string) {
	set, ok := index[nodeID]
	if !ok {
		set = make(map[string]struct{})
		index[nodeID] = set
	}
	set[edgeID] = struct{}{}
}

func removeIndex(index map[string]map[string]struct{}, nodeID, edgeID string) {
	set, ok := index[nodeID]
	if !ok {
		return
	}
	delete(set, edgeID)
	if len(set) == 0 {
		delete(index, nodeID)
	}
}

// Edges returns all edges in insertion order.
func (g *KnowledgeGraph) Edges() []KnowledgeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeListLocked()
}

func (g *KnowledgeGraph) edgeListLocked() []KnowledgeEdge {
	result := make([]KnowledgeEdge, 0, g.edges.Len())
	for pair := g.edges.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// EdgeCount returns the number of edges.
func (g *KnowledgeGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges.Len()
}

// OutgoingEdges returns the edges whose source is the resolved entity.
func (g *KnowledgeGraph) OutgoingEdges(termOrID string) []KnowledgeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.getNodeLocked(termOrID)
	if !ok {
		return nil
	}
	return g.outgoingLocked(node.ID)
}

func (g *KnowledgeGraph) outgoingLocked(nodeID string) []KnowledgeEdge {
	ids := g.bySource[nodeID]
	result := make([]KnowledgeEdge, 0, len(ids))
	for id := range ids {
		if edge, ok := g.edges.Get(id); ok {
			result = append(result, edge)
		}
	}
	slices.SortFunc(result, func(a, b KnowledgeEdge) int { return strings.Compare(a.ID, b.ID) })
	return result
}

// =============================================================================
// Neighbors
// =============================================================================

// Neighbors returns the IDs adjacent to the resolved entity in either
// direction, sorted.
func (g *KnowledgeGraph) Neighbors(termOrID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.getNodeLocked(termOrID)
	if !ok {
		return nil
	}
	set := g.neighborSetLocked(node.ID)
	result := make([]string, 0, len(set))
	for id := range set {
		result = append(result, id)
	}
	slices.Sort(result)
	return result
}

func (g *KnowledgeGraph) neighborSetLocked(nodeID string) map[string]struct{} {
	set := make(map[string]struct{}, len(g.bySource[nodeID])+len(g.byTarget[nodeID]))
	for edgeID := range g.bySource[nodeID] {
		if edge, ok := g.edges.Get(edgeID); ok {
			set[edge.Target] = struct{}{}
		}
	}
	for edgeID := range g.byTarget[nodeID] {
		if edge, ok := g.edges.Get(edgeID); ok {
			set[edge.Source] = struct{}{}
		}
	}
	return set
}

func (g *KnowledgeGraph) connectedLocked(a, b string) bool {
	for edgeID := range g.bySource[a] {
		if edge, ok := g.edges.Get(edgeID); ok && edge.Target == b {
			return true
		}
	}
	for edgeID := range g.bySource[b] {
		if edge, ok := g.edges.Get(edgeID); ok && edge.Target == a {
			return true
		}
	}
	return false
}
