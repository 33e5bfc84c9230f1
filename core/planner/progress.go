package planner

import (
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// PhaseProgress summarizes publishing progress for one phase. Due and
// Overdue are only filled by ProgressAt.
type PhaseProgress struct {
	Phase     Phase   `json:"phase" yaml:"phase"`
	Name      string  `json:"name" yaml:"name"`
	Total     int     `json:"total" yaml:"total"`
	Published int     `json:"published" yaml:"published"`
	Percent   float64 `json:"percent" yaml:"percent"`
	Due       int     `json:"due,omitempty" yaml:"due,omitempty"`
	Overdue   int     `json:"overdue,omitempty" yaml:"overdue,omitempty"`
}

// SetStatus updates the status of the topic with id.
func (p *Plan) SetStatus(id string, status Status) error {
	for i := range p.Topics {
		if p.Topics[i].Topic.ID == id {
			p.Topics[i].Status = status
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownTopic, "topic %q", id)
}

// Progress reports published counts per phase.
func (p *Plan) Progress() []PhaseProgress {
	return p.progress(time.Time{})
}

// ProgressAt is Progress plus how many topics were due, and overdue, as of
// now.
func (p *Plan) ProgressAt(now time.Time) []PhaseProgress {
	return p.progress(dayOf(now))
}

func (p *Plan) progress(today time.Time) []PhaseProgress {
	out := make([]PhaseProgress, len(Phases))
	for i, phase := range Phases {
		out[i] = PhaseProgress{Phase: phase, Name: phase.String()}
	}
	for _, t := range p.Topics {
		if t.Phase < PhaseAuthorityAnchor || t.Phase > PhaseLongTailCoverage {
			continue
		}
		pp := &out[t.Phase-1]
		pp.Total++
		published := t.Status == StatusPublished
		if published {
			pp.Published++
		}
		if today.IsZero() {
			continue
		}
		if !dayOf(t.PublishDate).After(today) {
			pp.Due++
			if !published && dayOf(t.PublishDate).Before(today) {
				pp.Overdue++
			}
		}
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].Percent = math.Round(float64(out[i].Published)/float64(out[i].Total)*10000) / 100
		}
	}
	return out
}

// OverdueTopics returns unpublished topics dated before now's day, oldest
// first.
func (p *Plan) OverdueTopics(now time.Time) []PlannedTopic {
	today := dayOf(now)
	return p.filterByDate(func(t PlannedTopic) bool {
		return t.Status != StatusPublished && dayOf(t.PublishDate).Before(today)
	})
}

// UpcomingTopics returns unpublished topics dated from now's day through
// the following days days, soonest first.
func (p *Plan) UpcomingTopics(now time.Time, days int) []PlannedTopic {
	today := dayOf(now)
	horizon := today.AddDate(0, 0, max(days, 0))
	return p.filterByDate(func(t PlannedTopic) bool {
		d := dayOf(t.PublishDate)
		return t.Status != StatusPublished && !d.Before(today) && !d.After(horizon)
	})
}

// TopicsByPhase returns the topics in phase, in plan order.
func (p *Plan) TopicsByPhase(phase Phase) []PlannedTopic {
	var out []PlannedTopic
	for _, t := range p.Topics {
		if t.Phase == phase {
			out = append(out, t)
		}
	}
	return out
}

func (p *Plan) filterByDate(keep func(PlannedTopic) bool) []PlannedTopic {
	var out []PlannedTopic
	for _, t := range p.Topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishDate.Before(out[j].PublishDate)
	})
	return out
}
