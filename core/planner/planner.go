// Package planner turns a topical map into a dated, four-phase publication
// plan.
//
// Generation is a one-shot pipeline: score every topic, bucket topics into
// phases, layer them by parent and pillar dependencies, then spread them
// across the calendar. The input slice is never modified.
package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adalundhe/topicalmap/core/eav"
)

// =============================================================================
// Configuration
// =============================================================================

// Config tunes phase sizes and publishing cadence.
type Config struct {
	Phase1MinTopics int      `json:"phase1MinTopics" yaml:"phase1_min_topics"`
	Phase1MaxTopics int      `json:"phase1MaxTopics" yaml:"phase1_max_topics"`
	Phase2Rate      RateBand `json:"phase2Rate" yaml:"phase2_rate"`
	Phase3Rate      RateBand `json:"phase3Rate" yaml:"phase3_rate"`
	Phase4Rate      RateBand `json:"phase4Rate" yaml:"phase4_rate"`
	// BatchLaunchDate is the day phase 1 goes live. Zero means today.
	BatchLaunchDate time.Time `json:"batchLaunchDate" yaml:"batch_launch_date"`
	Seed            uint64    `json:"seed" yaml:"seed"`
}

// DefaultConfig returns a 20 to 60 topic launch batch followed by 3-7, 2-5
// and 1-2 articles per week.
func DefaultConfig() Config {
	return Config{
		Phase1MinTopics: 20,
		Phase1MaxTopics: 60,
		Phase2Rate:      RateBand{Min: 3, Max: 7},
		Phase3Rate:      RateBand{Min: 2, Max: 5},
		Phase4Rate:      RateBand{Min: 1, Max: 2},
		Seed:            1,
	}
}

// Validate checks phase bounds and rate bands.
func (c Config) Validate() error {
	if c.Phase1MinTopics < 0 {
		return errors.Wrapf(ErrInvalidConfig, "phase1_min_topics must not be negative, got %d", c.Phase1MinTopics)
	}
	if c.Phase1MaxTopics < 1 || c.Phase1MaxTopics < c.Phase1MinTopics {
		return errors.Wrapf(ErrInvalidConfig, "phase1_max_topics must be at least 1 and at least phase1_min_topics, got %d", c.Phase1MaxTopics)
	}
	for name, band := range map[string]RateBand{
		"phase2_rate": c.Phase2Rate,
		"phase3_rate": c.Phase3Rate,
		"phase4_rate": c.Phase4Rate,
	} {
		if band.Min <= 0 || band.Max < band.Min || math.IsInf(band.Max, 0) || math.IsNaN(band.Max) {
			return errors.Wrapf(ErrInvalidConfig, "%s must satisfy 0 < min <= max, got %.2f-%.2f", name, band.Min, band.Max)
		}
	}
	return nil
}

func (c Config) rate(p Phase) RateBand {
	switch p {
	case PhaseContextualExpansion:
		return c.Phase2Rate
	case PhaseAuthorityDeepening:
		return c.Phase3Rate
	}
	return c.Phase4Rate
}

// =============================================================================
// Planner
// =============================================================================

type Planner struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Planner)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger.Named("planner")
		}
	}
}

// WithClock overrides the time source used for seasonal scoring, the
// default launch date and GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Planner {
	p := &Planner{cfg: cfg, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate builds a plan for topics. Triples feed the semantic sub-score
// through loose title matching. The only error is an invalid Config;
// empty input yields an empty plan and cycles degrade to a shared order.
func (p *Planner) Generate(topics []Topic, triples []eav.SemanticTriple) (*Plan, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	now := p.now()
	launch := dayOf(p.cfg.BatchLaunchDate)
	if p.cfg.BatchLaunchDate.IsZero() {
		launch = dayOf(now)
	}

	idx := newTopicIndex(topics)
	items := make([]scored, len(topics))
	scores := make([]float64, len(topics))
	for i, t := range topics {
		matched := eav.CountMatching(triples, t.Title)
		items[i] = scored{
			index:    i,
			topic:    t,
			matched:  matched,
			priority: calculatePriority(t, matched, idx, now),
		}
		scores[i] = items[i].priority.Score
	}

	assignment := assignPhases(items, p.cfg.Phase1MinTopics, p.cfg.Phase1MaxTopics)
	deps := resolveDependencies(idx)

	plan := &Plan{
		ID:                      uuid.NewString(),
		GeneratedAt:             now,
		Topics:                  make([]PlannedTopic, len(topics)),
		Phases:                  make([]PhaseSummary, 0, len(Phases)),
		HasCircularDependencies: HasCircularDependencies(topics),
		Warnings:                []string{},
	}

	sched := newScheduler(len(topics), deps.deps, deps.order, scores, p.cfg.Seed)
	for _, phase := range Phases {
		for _, i := range assignment.buckets[phase] {
			sched.phaseOf[i] = phase
		}
	}

	cursor := launch
	for _, phase := range Phases {
		indices := assignment.buckets[phase]
		summary := PhaseSummary{Phase: phase, Name: phase.String(), TopicIDs: make([]string, len(indices))}
		for j, i := range indices {
			summary.TopicIDs[j] = topics[i].ID
		}

		if len(indices) > 0 {
			if phase == PhaseAuthorityAnchor {
				sched.batch(indices, launch)
				summary.StartDate, summary.EndDate = launch, launch
			} else {
				start := cursor.AddDate(0, 0, 1)
				summary.StartDate = start
				summary.EndDate = sched.spread(indices, p.cfg.rate(phase), start)
				cursor = summary.EndDate
			}
		}
		plan.Phases = append(plan.Phases, summary)
	}

	for i, t := range topics {
		depIDs := make([]string, 0, len(deps.deps[i]))
		for _, d := range deps.deps[i] {
			depIDs = append(depIDs, topics[d].ID)
		}
		plan.Topics[i] = PlannedTopic{
			Topic:             t,
			Priority:          items[i].priority,
			MatchedCategories: items[i].matched,
			Phase:             sched.phaseOf[i],
			Dependencies:      depIDs,
			PublishOrder:      deps.order[i],
			PublishDate:       sched.dates[i],
			Status:            StatusPlanned,
		}
	}

	p.addWarnings(plan, topics, idx, assignment, deps)

	p.logger.Info("generated publication plan",
		zap.String("plan_id", plan.ID),
		zap.Int("topics", len(topics)),
		zap.Int("phase1", len(assignment.buckets[PhaseAuthorityAnchor])),
		zap.Int("phase2", len(assignment.buckets[PhaseContextualExpansion])),
		zap.Int("phase3", len(assignment.buckets[PhaseAuthorityDeepening])),
		zap.Int("phase4", len(assignment.buckets[PhaseLongTailCoverage])),
		zap.Bool("circular", plan.HasCircularDependencies),
	)
	return plan, nil
}

func (p *Planner) addWarnings(plan *Plan, topics []Topic, idx topicIndex, a phaseAssignment, deps dependencyGraph) {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		if seen[t.ID] {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("duplicate topic id %q", t.ID))
		}
		seen[t.ID] = true
		if t.ParentTopicID != "" {
			if _, ok := idx.byID[t.ParentTopicID]; !ok {
				plan.Warnings = append(plan.Warnings,
					fmt.Sprintf("topic %q references unknown parent %q", t.ID, t.ParentTopicID))
			}
		}
	}

	if deps.cyclic > 0 {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("%d topics are in dependency cycles and share publish order %d", deps.cyclic, deps.waves))
		p.logger.Warn("dependency cycle in topical map",
			zap.Int("topics", deps.cyclic),
			zap.Int("fallback_order", deps.waves),
		)
	}
	if a.truncatedFrom > 0 {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("phase 1 truncated from %d to %d topics", a.truncatedFrom, p.cfg.Phase1MaxTopics))
	}
	if a.floorUnmet && len(topics) > 0 {
		got := len(a.buckets[PhaseAuthorityAnchor])
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("phase 1 has %d topics, below the minimum of %d", got, p.cfg.Phase1MinTopics))
		p.logger.Info("phase 1 minimum not met",
			zap.Int("topics", got),
			zap.Int("minimum", p.cfg.Phase1MinTopics),
			zap.Int("promoted", a.promoted),
		)
	}
}
