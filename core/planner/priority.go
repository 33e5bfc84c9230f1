package planner

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adalundhe/topicalmap/core/eav"
)

// =============================================================================
// Priority Weights
// =============================================================================

const (
	structuralCore         = 15.0
	structuralPillar       = 10.0
	structuralMonetization = 10.0
	structuralMax          = 35.0

	semanticUnique    = 8.0
	semanticUniqueCap = 16.0
	semanticRare      = 4.0
	semanticRareCap   = 8.0
	semanticRoot      = 2.0
	semanticRootCap   = 4.0
	semanticCommon    = 0.5
	semanticCommonCap = 2.0
	semanticMax       = 30.0

	dependencyHasChildren = 10.0
	dependencyRootLevel   = 10.0
	dependencyPerDepth    = 2.0
	dependencyDepthCap    = 10.0
	dependencyMax         = 20.0

	seasonalApproaching   = 15.0
	seasonalEvergreen     = 5.0
	seasonalTimeSensitive = 10.0
	seasonalDefault       = 2.0

	// Months ahead, counting the current one as 0, that still count as an
	// approaching peak.
	peakLookaheadMonths = 2

	tierCriticalCutoff = 75.0
	tierHighCutoff     = 50.0
	tierMediumCutoff   = 25.0
)

// =============================================================================
// Priority Calculation
// =============================================================================

// topicIndex resolves parent links. The first topic with a given ID wins.
type topicIndex struct {
	topics      []Topic
	byID        map[string]int
	hasChildren map[string]bool
}

func newTopicIndex(topics []Topic) topicIndex {
	idx := topicIndex{
		topics:      topics,
		byID:        make(map[string]int, len(topics)),
		hasChildren: make(map[string]bool),
	}
	for i, t := range topics {
		if _, exists := idx.byID[t.ID]; !exists {
			idx.byID[t.ID] = i
		}
	}
	for _, t := range topics {
		if t.ParentTopicID != "" && t.ParentTopicID != t.ID {
			idx.hasChildren[t.ParentTopicID] = true
		}
	}
	return idx
}

func (idx topicIndex) parent(t Topic) (Topic, bool) {
	if t.ParentTopicID == "" {
		return Topic{}, false
	}
	i, ok := idx.byID[t.ParentTopicID]
	if !ok {
		return Topic{}, false
	}
	return idx.topics[i], true
}

// depth counts parent hops. A parent missing from the set still counts as
// one hop.
func (idx topicIndex) depth(t Topic) int {
	depth := 0
	visited := map[string]bool{t.ID: true}
	current := t
	for current.ParentTopicID != "" && !visited[current.ParentTopicID] {
		depth++
		visited[current.ParentTopicID] = true
		next, ok := idx.parent(current)
		if !ok {
			break
		}
		current = next
	}
	return depth
}

func calculatePriority(t Topic, matched eav.CategoryCounts, idx topicIndex, now time.Time) Priority {
	p := Priority{
		Structural: structuralScore(t),
		Semantic:   semanticScore(matched),
		Dependency: dependencyScore(t, idx),
		Seasonal:   seasonalScore(t.Freshness, now),
	}
	p.Score = clamp(p.Structural+p.Semantic+p.Dependency+p.Seasonal, 0, 100)
	p.Tier = tierFor(p.Score)
	return p
}

func structuralScore(t Topic) float64 {
	score := 0.0
	if t.isCore() {
		score += structuralCore
	}
	if t.isPillar() {
		score += structuralPillar
	}
	if t.isMonetization() {
		score += structuralMonetization
	}
	return math.Min(score, structuralMax)
}

func semanticScore(c eav.CategoryCounts) float64 {
	score := math.Min(float64(c.Unique)*semanticUnique, semanticUniqueCap) +
		math.Min(float64(c.Rare)*semanticRare, semanticRareCap) +
		math.Min(float64(c.Root)*semanticRoot, semanticRootCap) +
		math.Min(float64(c.Common)*semanticCommon, semanticCommonCap)
	return math.Min(score, semanticMax)
}

// dependencyScore rewards hubs and roots and penalizes depth. It can be
// negative for deep leaves.
func dependencyScore(t Topic, idx topicIndex) float64 {
	score := 0.0
	if idx.hasChildren[t.ID] {
		score += dependencyHasChildren
	}
	if t.ParentTopicID == "" {
		score += dependencyRootLevel
	}
	score -= math.Min(dependencyPerDepth*float64(idx.depth(t)), dependencyDepthCap)
	return math.Min(score, dependencyMax)
}

func seasonalScore(f Freshness, now time.Time) float64 {
	switch f.Type {
	case FreshnessEvergreen:
		if peakApproaching(f.PeakSeasons, now) {
			return seasonalApproaching
		}
		return seasonalEvergreen
	case FreshnessTimeSensitive, FreshnessEvent:
		return seasonalTimeSensitive
	}
	return seasonalDefault
}

func tierFor(score float64) PriorityTier {
	switch {
	case score >= tierCriticalCutoff:
		return TierCritical
	case score >= tierHighCutoff:
		return TierHigh
	case score >= tierMediumCutoff:
		return TierMedium
	}
	return TierLow
}

// =============================================================================
// Peak Seasons
// =============================================================================

var seasonMonths = map[string][]time.Month{
	"spring": {time.March, time.April, time.May},
	"summer": {time.June, time.July, time.August},
	"fall":   {time.September, time.October, time.November},
	"autumn": {time.September, time.October, time.November},
	"winter": {time.December, time.January, time.February},
	"q1":     {time.January, time.February, time.March},
	"q2":     {time.April, time.May, time.June},
	"q3":     {time.July, time.August, time.September},
	"q4":     {time.October, time.November, time.December},
}

// parsePeakSeason maps a month name, a three-letter month, a season, a
// quarter, or a month number to the months it covers.
func parsePeakSeason(s string) []time.Month {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if months, ok := seasonMonths[s]; ok {
		return months
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return []time.Month{time.Month(n)}
		}
		return nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return []time.Month{m}
		}
	}
	return nil
}

func peakApproaching(seasons []string, now time.Time) bool {
	current := now.Month()
	for _, season := range seasons {
		for _, m := range parsePeakSeason(season) {
			ahead := (int(m) - int(current) + 12) % 12
			if ahead <= peakLookaheadMonths {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
