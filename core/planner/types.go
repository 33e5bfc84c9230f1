package planner

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/adalundhe/topicalmap/core/eav"
)

// =============================================================================
// Topic input
// =============================================================================

type ClusterRole string

const (
	RolePillar         ClusterRole = "pillar"
	RoleClusterContent ClusterRole = "cluster_content"
)

type TopicType string

const (
	TypeCore  TopicType = "core"
	TypeOuter TopicType = "outer"
)

// TopicClass separates money pages from supporting content. An empty class
// is treated as informational.
type TopicClass string

const (
	ClassMonetization  TopicClass = "monetization"
	ClassInformational TopicClass = "informational"
)

type FreshnessType string

const (
	FreshnessEvergreen     FreshnessType = "evergreen"
	FreshnessSeasonal      FreshnessType = "seasonal"
	FreshnessTimeSensitive FreshnessType = "time_sensitive"
	FreshnessEvent         FreshnessType = "event"
)

func normalizeFreshness(s string) FreshnessType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return FreshnessType(s)
}

// Freshness describes how a topic ages. It decodes from either a bare
// string ("evergreen") or a profile object with peak seasons.
type Freshness struct {
	Type        FreshnessType `json:"type" yaml:"type"`
	PeakSeasons []string      `json:"peakSeasons,omitempty" yaml:"peak_seasons,omitempty"`
}

func (f *Freshness) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*f = Freshness{Type: normalizeFreshness(plain)}
		return nil
	}

	var profile struct {
		Type        string   `json:"type"`
		PeakSeasons []string `json:"peakSeasons"`
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return errors.Wrap(err, "freshness must be a string or a {type, peakSeasons} object")
	}
	*f = Freshness{Type: normalizeFreshness(profile.Type), PeakSeasons: profile.PeakSeasons}
	return nil
}

// Topic is one entry of a topical map. Parent links need not resolve.
type Topic struct {
	ID            string      `json:"id" yaml:"id"`
	Title         string      `json:"title" yaml:"title"`
	ParentTopicID string      `json:"parent_topic_id,omitempty" yaml:"parent_topic_id,omitempty"`
	ClusterRole   ClusterRole `json:"cluster_role,omitempty" yaml:"cluster_role,omitempty"`
	Type          TopicType   `json:"type" yaml:"type"`
	TopicClass    TopicClass  `json:"topic_class,omitempty" yaml:"topic_class,omitempty"`
	Freshness     Freshness   `json:"freshness" yaml:"freshness"`
}

func (t Topic) isMonetization() bool {
	return strings.EqualFold(string(t.TopicClass), string(ClassMonetization))
}

func (t Topic) isPillar() bool {
	return strings.EqualFold(string(t.ClusterRole), string(RolePillar))
}

func (t Topic) isClusterContent() bool {
	return strings.EqualFold(string(t.ClusterRole), string(RoleClusterContent))
}

func (t Topic) isCore() bool {
	return strings.EqualFold(string(t.Type), string(TypeCore))
}

// =============================================================================
// Plan output
// =============================================================================

type PriorityTier string

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
)

func (t PriorityTier) atLeastHigh() bool {
	return t == TierCritical || t == TierHigh
}

// Priority is a topic's score and the sub-scores it was built from.
type Priority struct {
	Structural float64      `json:"structural" yaml:"structural"`
	Semantic   float64      `json:"semantic" yaml:"semantic"`
	Dependency float64      `json:"dependency" yaml:"dependency"`
	Seasonal   float64      `json:"seasonal" yaml:"seasonal"`
	Score      float64      `json:"score" yaml:"score"`
	Tier       PriorityTier `json:"tier" yaml:"tier"`
}

// Phase is one of the four publication waves, numbered from 1.
type Phase int

const (
	PhaseAuthorityAnchor Phase = iota + 1
	PhaseContextualExpansion
	PhaseAuthorityDeepening
	PhaseLongTailCoverage
)

// Phases lists every phase in publication order.
var Phases = []Phase{PhaseAuthorityAnchor, PhaseContextualExpansion, PhaseAuthorityDeepening, PhaseLongTailCoverage}

func (p Phase) String() string {
	switch p {
	case PhaseAuthorityAnchor:
		return "Authority Anchor"
	case PhaseContextualExpansion:
		return "Contextual Expansion"
	case PhaseAuthorityDeepening:
		return "Authority Deepening"
	case PhaseLongTailCoverage:
		return "Long-tail Coverage"
	}
	return "Unknown"
}

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusPublished  Status = "published"
)

// ParseStatus accepts status names in any case, with "-" or spaces in
// place of "_".
func ParseStatus(s string) (Status, error) {
	switch status := Status(normalizeFreshness(s)); status {
	case StatusPlanned, StatusInProgress, StatusPublished:
		return status, nil
	}
	return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
}

// PlannedTopic is a topic with everything the planner decided about it.
type PlannedTopic struct {
	Topic             Topic              `json:"topic" yaml:"topic"`
	Priority          Priority           `json:"priority" yaml:"priority"`
	MatchedCategories eav.CategoryCounts `json:"matchedCategories" yaml:"matched_categories"`
	Phase             Phase              `json:"phase" yaml:"phase"`
	Dependencies      []string           `json:"dependencies" yaml:"dependencies"`
	PublishOrder      int                `json:"publishOrder" yaml:"publish_order"`
	PublishDate       time.Time          `json:"publishDate" yaml:"publish_date"`
	Status            Status             `json:"status" yaml:"status"`
}

// PhaseSummary describes one phase of a plan. Dates are zero for an empty
// phase.
type PhaseSummary struct {
	Phase     Phase     `json:"phase" yaml:"phase"`
	Name      string    `json:"name" yaml:"name"`
	TopicIDs  []string  `json:"topicIds" yaml:"topic_ids"`
	StartDate time.Time `json:"startDate" yaml:"start_date"`
	EndDate   time.Time `json:"endDate" yaml:"end_date"`
}

// Plan is the output of Planner.Generate. Topics keep their input order.
type Plan struct {
	ID                      string         `json:"id" yaml:"id"`
	GeneratedAt             time.Time      `json:"generatedAt" yaml:"generated_at"`
	Topics                  []PlannedTopic `json:"topics" yaml:"topics"`
	Phases                  []PhaseSummary `json:"phases" yaml:"phases"`
	HasCircularDependencies bool           `json:"hasCircularDependencies" yaml:"has_circular_dependencies"`
	Warnings                []string       `json:"warnings" yaml:"warnings"`
}
