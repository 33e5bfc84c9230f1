package semantic

import "github.com/adalundhe/topicalmap/core/eav"

// KnowledgeNode is an entity in the graph. Identity is ID; Term is the
// display name used for case-insensitive lookups.
type KnowledgeNode struct {
	ID   string `json:"id" yaml:"id"`
	Term string `json:"term" yaml:"term"`
	Type string `json:"type" yaml:"type"`
}

// EdgeMetadata carries the attribute category of a relation.
type EdgeMetadata struct {
	Category eav.AttributeCategory `json:"category,omitempty" yaml:"category,omitempty"`
}

// KnowledgeEdge is a directed relation. Source and Target are node IDs but
// are not required to reference nodes that exist: callers may add edges
// before their endpoints, and every query treats a dangling endpoint as an
// entity with no relationships.
type KnowledgeEdge struct {
	ID       string       `json:"id" yaml:"id"`
	Source   string       `json:"source" yaml:"source"`
	Target   string       `json:"target" yaml:"target"`
	Metadata EdgeMetadata `json:"metadata" yaml:"metadata"`
}

// Proximity describes how close two entities appeared in content.
type Proximity string

const (
	ProximitySameSentence Proximity = "same_sentence"
	ProximitySameSection  Proximity = "same_section"
	ProximitySamePage     Proximity = "same_page"
)

// rank orders proximities from loosest (1) to tightest (3). Unknown values
// rank 0 and never replace a recorded proximity.
func (p Proximity) rank() int {
	switch p {
	case ProximitySameSentence:
		return 3
	case ProximitySameSection:
		return 2
	case ProximitySamePage:
		return 1
	default:
		return 0
	}
}

// CoOccurrence records how often two entities appear together. EntityA and
// EntityB are lowercased and sorted, so (A,B) and (B,A) share one record.
type CoOccurrence struct {
	EntityA   string    `json:"entityA" yaml:"entity_a"`
	EntityB   string    `json:"entityB" yaml:"entity_b"`
	Count     int       `json:"count" yaml:"count"`
	Contexts  []string  `json:"contexts" yaml:"contexts"`
	Proximity Proximity `json:"proximity" yaml:"proximity"`
}

// Position is where on a page an entity was observed.
type Position string

const (
	PositionH1      Position = "h1"
	PositionH2      Position = "h2"
	PositionH3      Position = "h3"
	PositionBody    Position = "body"
	PositionAltText Position = "alt_text"
	PositionMeta    Position = "meta"
)

// EntityContext is one observation of an entity at a position on a page.
// Weight is fixed from the position table when the context is recorded.
type EntityContext struct {
	EntityID string   `json:"entityId" yaml:"entity_id"`
	Position Position `json:"position" yaml:"position"`
	PageURL  string   `json:"pageUrl" yaml:"page_url"`
	Weight   float64  `json:"weight" yaml:"weight"`
}

// SemanticDistanceResult is the outcome of comparing two entities.
type SemanticDistanceResult struct {
	EntityA            string       `json:"entityA" yaml:"entity_a"`
	EntityB            string       `json:"entityB" yaml:"entity_b"`
	Distance           float64      `json:"distance" yaml:"distance"`
	SemanticSimilarity float64      `json:"semanticSimilarity" yaml:"semantic_similarity"`
	ContextWeight      float64      `json:"contextWeight" yaml:"context_weight"`
	CoOccurrenceScore  float64      `json:"coOccurrenceScore" yaml:"co_occurrence_score"`
	ShouldLink         bool         `json:"shouldLink" yaml:"should_link"`
	Band               DistanceBand `json:"band" yaml:"band"`
	Recommendation     string       `json:"recommendation" yaml:"recommendation"`
}

// LinkingCandidate is a node worth linking to from the queried entity.
type LinkingCandidate struct {
	Node   KnowledgeNode          `json:"node" yaml:"node"`
	Result SemanticDistanceResult `json:"result" yaml:"result"`
}

// CannibalizationRisk is a pair of entities too close to coexist as
// separate pages.
type CannibalizationRisk struct {
	EntityA  KnowledgeNode `json:"entityA" yaml:"entity_a"`
	EntityB  KnowledgeNode `json:"entityB" yaml:"entity_b"`
	Distance float64       `json:"distance" yaml:"distance"`
}

// DistanceMatrix holds pairwise distances over all nodes in insertion order.
type DistanceMatrix struct {
	Entities   []string    `json:"entities" yaml:"entities"`
	Distances  [][]float64 `json:"distances" yaml:"distances"`
	ShouldLink [][]bool    `json:"shouldLink" yaml:"should_link"`
}

// KnowledgeGap lists the core categories an entity's outgoing edges do not
// cover.
type KnowledgeGap struct {
	EntityID          string                  `json:"entityId" yaml:"entity_id"`
	Entity            string                  `json:"entity" yaml:"entity"`
	MissingCategories []eav.AttributeCategory `json:"missingCategories" yaml:"missing_categories"`
	Suggestions       []string                `json:"suggestions" yaml:"suggestions"`
}

// Statistics summarises graph size and category coverage.
type Statistics struct {
	NodeCount        int            `json:"nodeCount" yaml:"node_count"`
	EdgeCount        int            `json:"edgeCount" yaml:"edge_count"`
	Categories       map[string]int `json:"categories" yaml:"categories"`
	AverageNeighbors float64        `json:"averageNeighbors" yaml:"average_neighbors"`
}

// ExtendedStatistics adds co-occurrence, context and cannibalization counts.
type ExtendedStatistics struct {
	Statistics               `yaml:",inline"`
	CoOccurrenceCount        int `json:"coOccurrenceCount" yaml:"co_occurrence_count"`
	EntitiesWithContext      int `json:"entitiesWithContext" yaml:"entities_with_context"`
	EntityContextCount       int `json:"entityContextCount" yaml:"entity_context_count"`
	CannibalizationRiskCount int `json:"cannibalizationRiskCount" yaml:"cannibalization_risk_count"`
}
