// Package criticality scores how central an entity is to a topical map.
//
// A score combines a base weight taken from the entity's attribute
// category with three bonuses: appearing in a core or monetization
// section, co-occurring across several topics, and bridging otherwise
// distant parts of the knowledge graph. Entities flagged as central always
// score 1.0.
package criticality

import (
	"math"
	"slices"

	"github.com/adalundhe/topicalmap/core/eav"
)

// CriticalityThreshold is the score at or above which an entity is critical.
const CriticalityThreshold = 0.7

// =============================================================================
// Weights
// =============================================================================

// Weights configures the scorer. The zero value is not useful; start from
// DefaultWeights.
type Weights struct {
	Category        map[eav.AttributeCategory]float64
	Unknown         float64
	CoreSection     float64
	PerExtraTopic   float64
	MaxCoOccurrence float64
	Bridge          float64
}

// DefaultWeights returns the standard category table and bonus sizes.
func DefaultWeights() Weights {
	return Weights{
		Category: map[eav.AttributeCategory]float64{
			eav.CategoryUnique: 0.9,
			eav.CategoryRoot:   0.8,
			eav.CategoryRare:   0.6,
			eav.CategoryCommon: 0.4,
		},
		Unknown:         0.4,
		CoreSection:     0.2,
		PerExtraTopic:   0.1,
		MaxCoOccurrence: 0.3,
		Bridge:          0.3,
	}
}

func (w Weights) base(category eav.AttributeCategory) float64 {
	canonical, ok := category.Canonical()
	if !ok {
		return w.Unknown
	}
	if weight, ok := w.Category[canonical]; ok {
		return weight
	}
	return w.Unknown
}

// =============================================================================
// Scoring
// =============================================================================

// Input describes one entity to score.
type Input struct {
	Entity                string                `json:"entity,omitempty" yaml:"entity,omitempty"`
	IsCentralEntity       bool                  `json:"isCentralEntity" yaml:"is_central_entity"`
	AttributeCategory     eav.AttributeCategory `json:"attributeCategory" yaml:"attribute_category"`
	IsCoreSectionEntity   bool                  `json:"isCoreSectionEntity" yaml:"is_core_section_entity"`
	TopicCount            int                   `json:"topicCount" yaml:"topic_count"`
	BetweennessCentrality float64               `json:"betweennessCentrality" yaml:"betweenness_centrality"`
}

// Breakdown exposes the components that made up a score. Raw is the
// uncapped sum.
type Breakdown struct {
	Base         float64 `json:"base" yaml:"base"`
	CoreSection  float64 `json:"coreSection" yaml:"core_section"`
	CoOccurrence float64 `json:"coOccurrence" yaml:"co_occurrence"`
	Bridge       float64 `json:"bridge" yaml:"bridge"`
	Raw          float64 `json:"raw" yaml:"raw"`
}

// Result is the scored entity.
type Result struct {
	Entity     string    `json:"entity,omitempty" yaml:"entity,omitempty"`
	Score      float64   `json:"score" yaml:"score"`
	IsCritical bool      `json:"isCritical" yaml:"is_critical"`
	Breakdown  Breakdown `json:"breakdown" yaml:"breakdown"`
}

// Scorer computes criticality with a fixed set of weights.
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer using w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

var defaultScorer = NewScorer(DefaultWeights())

// CalculateCriticalityScore scores in with the default weights.
func CalculateCriticalityScore(in Input) Result {
	return defaultScorer.Score(in)
}

// Score scores a single entity. Negative topic counts add nothing and
// betweenness is clamped to [0,1].
func (s *Scorer) Score(in Input) Result {
	if in.IsCentralEntity {
		return Result{Entity: in.Entity, Score: 1.0, IsCritical: true}
	}

	w := s.weights
	b := Breakdown{Base: w.base(in.AttributeCategory)}
	if in.IsCoreSectionEntity {
		b.CoreSection = w.CoreSection
	}
	extraTopics := max(in.TopicCount-1, 0)
	b.CoOccurrence = math.Min(float64(extraTopics)*w.PerExtraTopic, w.MaxCoOccurrence)
	b.Bridge = clamp(in.BetweennessCentrality, 0, 1) * w.Bridge
	b.Raw = b.Base + b.CoreSection + b.CoOccurrence + b.Bridge

	score := round2(math.Min(b.Raw, 1.0))
	return Result{
		Entity:     in.Entity,
		Score:      score,
		IsCritical: score >= CriticalityThreshold,
		Breakdown:  b,
	}
}

// Batch scores every input in order.
func (s *Scorer) Batch(inputs []Input) []Result {
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		results[i] = s.Score(in)
	}
	return results
}

// CalculateBatch scores inputs with the default weights.
func CalculateBatch(inputs []Input) []Result {
	return defaultScorer.Batch(inputs)
}

// FilterCritical returns the critical results, preserving order.
func FilterCritical(results []Result) []Result {
	var critical []Result
	for _, r := range results {
		if r.IsCritical {
			critical = append(critical, r)
		}
	}
	return critical
}

// SortByScore returns a copy of results ordered by descending score. Ties
// keep their input order.
func SortByScore(results []Result) []Result {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return sorted
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
