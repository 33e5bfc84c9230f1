package planner

import (
	"sort"

	"github.com/adalundhe/topicalmap/core/eav"
)

// scored is the planner's working record for one input topic.
type scored struct {
	index    int
	topic    Topic
	priority Priority
	matched  eav.CategoryCounts
}

func (s scored) hasDepthCategories() bool {
	return s.matched.Unique > 0 || s.matched.Rare > 0
}

// phaseAssignment is the outcome of assignPhases. Every input index lands
// in exactly one bucket.
type phaseAssignment struct {
	buckets       map[Phase][]int
	promoted      int
	floorUnmet    bool
	truncatedFrom int
}

func byScoreDesc(items []scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].priority.Score > items[j].priority.Score
	})
}

// assignPhases buckets topics in precedence order. Each rule only sees the
// topics earlier rules left unclaimed.
func assignPhases(items []scored, minPhase1, maxPhase1 int) phaseAssignment {
	result := phaseAssignment{buckets: make(map[Phase][]int, len(Phases))}
	claimed := make(map[int]bool, len(items))

	var phase1 []scored
	for _, s := range items {
		if s.topic.isMonetization() || s.topic.isPillar() ||
			(s.topic.isCore() && s.priority.Tier.atLeastHigh()) {
			phase1 = append(phase1, s)
		}
	}
	byScoreDesc(phase1)
	if len(phase1) > maxPhase1 {
		result.truncatedFrom = len(phase1)
		phase1 = phase1[:maxPhase1]
	}
	for _, s := range phase1 {
		claimed[s.index] = true
	}

	var phase2 []scored
	for _, s := range items {
		if claimed[s.index] {
			continue
		}
		if s.topic.isMonetization() || s.priority.Tier.atLeastHigh() {
			phase2 = append(phase2, s)
		}
	}
	byScoreDesc(phase2)

	if len(phase1) < minPhase1 {
		take := min(minPhase1-len(phase1), len(phase2))
		phase1 = append(phase1, phase2[:take]...)
		phase2 = phase2[take:]
		result.promoted = take
		result.floorUnmet = len(phase1) < minPhase1
		for _, s := range phase1 {
			claimed[s.index] = true
		}
	}
	for _, s := range phase2 {
		claimed[s.index] = true
	}

	var phase3, phase4 []scored
	for _, s := range items {
		if claimed[s.index] {
			continue
		}
		if s.hasDepthCategories() && s.priority.Tier != TierLow {
			phase3 = append(phase3, s)
		} else {
			phase4 = append(phase4, s)
		}
	}
	byScoreDesc(phase3)
	byScoreDesc(phase4)

	for phase, bucket := range map[Phase][]scored{
		PhaseAuthorityAnchor: phase1,
		PhaseContextualExpansion:  phase2,
		PhaseAuthorityDeepening:   phase3,
		PhaseLongTailCoverage:        phase4,
	} {
		indices := make([]int, len(bucket))
		for i, s := range bucket {
			indices[i] = s.index
		}
		result.buckets[phase] = indices
	}
	return result
}
