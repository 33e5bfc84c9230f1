package planner

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	recentWindow   = 3
	runningHigh    = 0.75
	runningLow     = 1.25
	jitterFloor    = 0.7
	jitterSpread   = 0.6
	seedStreamSalt = 0x9e3779b97f4a7c15
)

// RateBand is a weekly publishing rate range.
type RateBand struct {
	Min float64 `mapstructure:"min" json:"min" yaml:"min"`
	Max float64 `mapstructure:"max" json:"max" yaml:"max"`
}

func (r RateBand) mid() float64 {
	return (r.Min + r.Max) / 2
}

// dayOf truncates t to midnight UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scheduler spreads phased topics across calendar days.
type scheduler struct {
	deps    [][]int
	order   []int
	scores  []float64
	phaseOf []Phase
	dates   []time.Time
	dated   []bool
	rng     *rand.Rand
}

func newScheduler(n int, deps [][]int, order []int, scores []float64, seed uint64) *scheduler {
	return &scheduler{
		deps:    deps,
		order:   order,
		scores:  scores,
		phaseOf: make([]Phase, n),
		dates:   make([]time.Time, n),
		dated:   make([]bool, n),
		rng:     rand.New(rand.NewPCG(seed, seed^seedStreamSalt)),
	}
}

// batch puts every index on the same day.
func (s *scheduler) batch(indices []int, day time.Time) {
	for _, i := range indices {
		s.dates[i] = day
		s.dated[i] = true
	}
}

// spread schedules indices starting at start, aiming for band's midpoint
// on average. It returns the last day used, or start minus one day when
// indices is empty.
func (s *scheduler) spread(indices []int, band RateBand, start time.Time) time.Time {
	last := start.AddDate(0, 0, -1)
	if len(indices) == 0 {
		return last
	}

	remaining := append([]int(nil), indices...)
	sort.SliceStable(remaining, func(a, b int) bool {
		ia, ib := remaining[a], remaining[b]
		if s.order[ia] != s.order[ib] {
			return s.order[ia] < s.order[ib]
		}
		return s.scores[ia] > s.scores[ib]
	})

	plannedDays := max(int(math.Ceil(float64(len(indices))*7/band.mid())), 1)
	maxDaily := int(math.Ceil(band.Max/7)) + 1

	var recent []float64
	carry := 0.0
	day := start
	for dayIndex := 0; len(remaining) > 0; dayIndex++ {
		daysLeft := max(plannedDays-dayIndex, 1)
		avgNeeded := float64(len(remaining)) / float64(daysLeft)

		target := avgNeeded
		if len(recent) > 0 {
			window := recent[max(len(recent)-recentWindow, 0):]
			switch running := stat.Mean(window, nil); {
			case running > avgNeeded:
				target *= runningHigh
			case running < avgNeeded:
				target *= runningLow
			}
		}
		target *= jitterFloor + jitterSpread*s.rng.Float64()

		carry += target
		count := min(int(carry), maxDaily, len(remaining))
		carry = math.Min(carry-float64(count), 1)

		assigned := 0
		if count > 0 {
			assigned, remaining = s.assignDay(remaining, day, count)
			if assigned > 0 {
				last = day
			}
		}
		recent = append(recent, float64(assigned))
		day = day.AddDate(0, 0, 1)
	}
	return last
}

// assignDay dates up to count eligible topics on day and returns how many
// it placed plus what is left.
func (s *scheduler) assignDay(remaining []int, day time.Time, count int) (int, []int) {
	var placed []int
	waitingOnDate := false
	for _, i := range remaining {
		if len(placed) == count {
			break
		}
		switch s.readiness(i, day) {
		case ready:
			placed = append(placed, i)
		case blockedUntilLater:
			waitingOnDate = true
		}
	}

	// Every remaining topic waits on another undated one: a cycle.
	if len(placed) == 0 && !waitingOnDate {
		placed = append(placed, remaining[0])
	}

	taken := make(map[int]bool, len(placed))
	for _, i := range placed {
		s.dates[i] = day
		s.dated[i] = true
		taken[i] = true
	}
	rest := remaining[:0:0]
	for _, i := range remaining {
		if !taken[i] {
			rest = append(rest, i)
		}
	}
	return len(placed), rest
}

type readiness int

const (
	ready readiness = iota
	blockedUntilLater
	blockedOnUndated
)

// readiness checks i's dependencies against day. Dependencies scheduled in
// a later phase are ignored.
func (s *scheduler) readiness(i int, day time.Time) readiness {
	state := ready
	for _, d := range s.deps[i] {
		if s.phaseOf[d] > s.phaseOf[i] {
			continue
		}
		if !s.dated[d] {
			return blockedOnUndated
		}
		if !s.dates[d].Before(day) {
			state = blockedUntilLater
		}
	}
	return state
}
