// Package pagerank simulates how link equity flows through a site's
// internal links.
package pagerank

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// =============================================================================
// Inputs
// =============================================================================

// Edge is a directed, optionally weighted link between two pages. Weights
// that are missing or not positive count as 1.
type Edge struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

func (e Edge) weight() float64 {
	if e.Weight <= 0 || math.IsNaN(e.Weight) {
		return 1
	}
	return e.Weight
}

// Options controls the power iteration.
type Options struct {
	Damping              float64 `mapstructure:"damping" json:"damping" yaml:"damping"`
	MaxIterations        int     `mapstructure:"max_iterations" json:"maxIterations" yaml:"max_iterations"`
	ConvergenceThreshold float64 `mapstructure:"convergence_threshold" json:"convergenceThreshold" yaml:"convergence_threshold"`

	logger *zap.Logger
}

// DefaultOptions returns damping 0.85, 100 iterations and threshold 1e-4.
func DefaultOptions() Options {
	return Options{
		Damping:              0.85,
		MaxIterations:        100,
		ConvergenceThreshold: 1e-4,
	}
}

// Option adjusts Options.
type Option func(*Options)

// WithOptions replaces all numeric options at once.
func WithOptions(o Options) Option {
	return func(opts *Options) {
		opts.Damping = o.Damping
		opts.MaxIterations = o.MaxIterations
		opts.ConvergenceThreshold = o.ConvergenceThreshold
	}
}

func WithDamping(d float64) Option {
	return func(o *Options) { o.Damping = d }
}

func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

func WithConvergenceThreshold(t float64) Option {
	return func(o *Options) { o.ConvergenceThreshold = t }
}

// WithLogger sets the logger used for convergence warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.logger = logger.Named("pagerank")
		}
	}
}

// =============================================================================
// Report
// =============================================================================

const (
	hoardingTopFraction = 0.2
	hoardingMassShare   = 0.8
)

// PageScore is one page's result. NormalizedScore is relative to the best
// page, which scores 100.
type PageScore struct {
	URL             string  `json:"url" yaml:"url"`
	Score           float64 `json:"score" yaml:"score"`
	NormalizedScore float64 `json:"normalizedScore" yaml:"normalized_score"`
	InboundLinks    int     `json:"inboundLinks" yaml:"inbound_links"`
	OutboundLinks   int     `json:"outboundLinks" yaml:"outbound_links"`
}

// Report is the outcome of a simulation. Pages are ordered by descending
// score, ties by URL.
type Report struct {
	Pages           []PageScore `json:"pages" yaml:"pages"`
	OrphanPages     []string    `json:"orphanPages" yaml:"orphan_pages"`
	SinkPages       []string    `json:"sinkPages" yaml:"sink_pages"`
	HoardingWarning bool        `json:"hoardingWarning" yaml:"hoarding_warning"`
	TopShare        float64     `json:"topShare" yaml:"top_share"`
	Iterations      int         `json:"iterations" yaml:"iterations"`
	Converged       bool        `json:"converged" yaml:"converged"`
}

// Score returns the page's result, if present.
func (r Report) Score(url string) (PageScore, bool) {
	for _, p := range r.Pages {
		if p.URL == url {
			return p, true
		}
	}
	return PageScore{}, false
}

// =============================================================================
// Simulation
// =============================================================================

// linkGraph is the indexed form of an edge list.
type linkGraph struct {
	pages     []string
	inbound   [][]link
	outWeight []float64
	inCount   []int
	outCount  []int
}

type link struct {
	from   int
	weight float64
}

func buildLinkGraph(edges []Edge) linkGraph {
	index := make(map[string]int)
	for _, e := range edges {
		index[e.From] = 0
		index[e.To] = 0
	}
	pages := make([]string, 0, len(index))
	for page := range index {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	for i, page := range pages {
		index[page] = i
	}

	g := linkGraph{
		pages:     pages,
		inbound:   make([][]link, len(pages)),
		outWeight: make([]float64, len(pages)),
		inCount:   make([]int, len(pages)),
		outCount:  make([]int, len(pages)),
	}
	for _, e := range edges {
		from, to := index[e.From], index[e.To]
		w := e.weight()
		g.inbound[to] = append(g.inbound[to], link{from: from, weight: w})
		g.outWeight[from] += w
		g.outCount[from]++
		g.inCount[to]++
	}
	return g
}

// Simulate runs PageRank over edges. Pages without outbound links hand
// their whole share back to every page each iteration, so total mass stays
// at 1. Running out of iterations is reported through Converged, not as an
// error.
func Simulate(edges []Edge, opts ...Option) Report {
	o := DefaultOptions()
	o.logger = zap.NewNop()
	for _, opt := range opts {
		opt(&o)
	}

	if len(edges) == 0 {
		return Report{
			Pages:       []PageScore{},
			OrphanPages: []string{},
			SinkPages:   []string{},
			Converged:   true,
		}
	}

	g := buildLinkGraph(edges)
	ranks, iterations, converged := iterate(g, o)
	if !converged {
		o.logger.Warn("pagerank did not converge",
			zap.Int("pages", len(g.pages)),
			zap.Int("iterations", iterations),
			zap.Float64("threshold", o.ConvergenceThreshold),
		)
	}

	report := buildReport(g, ranks)
	report.Iterations = iterations
	report.Converged = converged
	return report
}

func iterate(g linkGraph, o Options) ([]float64, int, bool) {
	n := len(g.pages)
	ranks := make([]float64, n)
	for i := range ranks {
		ranks[i] = 1.0 / float64(n)
	}
	teleport := (1.0 - o.Damping) / float64(n)

	for iter := 1; iter <= o.MaxIterations; iter++ {
		next := computeIteration(g, ranks, o.Damping, teleport)
		if maxDelta(ranks, next) < o.ConvergenceThreshold {
			return next, iter, true
		}
		ranks = next
	}
	return ranks, o.MaxIterations, false
}

func computeIteration(g linkGraph, ranks []float64, damping, teleport float64) []float64 {
	n := len(ranks)
	sinkMass := 0.0
	for i, w := range g.outWeight {
		if w == 0 {
			sinkMass += ranks[i]
		}
	}
	base := teleport + damping*sinkMass/float64(n)

	next := make([]float64, n)
	for i := range next {
		next[i] = base
		for _, l := range g.inbound[i] {
			next[i] += damping * ranks[l.from] * (l.weight / g.outWeight[l.from])
		}
	}
	return next
}

func maxDelta(old, next []float64) float64 {
	delta := 0.0
	for i := range old {
		delta = math.Max(delta, math.Abs(next[i]-old[i]))
	}
	return delta
}

func buildReport(g linkGraph, ranks []float64) Report {
	best := floats.Max(ranks)
	report := Report{
		Pages:       make([]PageScore, len(g.pages)),
		OrphanPages: []string{},
		SinkPages:   []string{},
	}
	for i, page := range g.pages {
		normalized := 0.0
		if best > 0 {
			normalized = math.Round(ranks[i]/best*100*100) / 100
		}
		report.Pages[i] = PageScore{
			URL:             page,
			Score:           ranks[i],
			NormalizedScore: normalized,
			InboundLinks:    g.inCount[i],
			OutboundLinks:   g.outCount[i],
		}
		if g.inCount[i] == 0 {
			report.OrphanPages = append(report.OrphanPages, page)
		}
		if g.outCount[i] == 0 {
			report.SinkPages = append(report.SinkPages, page)
		}
	}

	sort.SliceStable(report.Pages, func(i, j int) bool {
		return report.Pages[i].Score > report.Pages[j].Score
	})
	report.TopShare, report.HoardingWarning = hoarding(report.Pages, floats.Sum(ranks))
	return report
}

// hoarding reports the share of mass held by the top fifth of pages and
// whether it crosses the warning line. Single-page sites never warn.
func hoarding(sorted []PageScore, total float64) (float64, bool) {
	n := len(sorted)
	if n <= 1 || total <= 0 {
		return 0, false
	}
	top := int(math.Ceil(float64(n) * hoardingTopFraction))
	held := 0.0
	for _, p := range sorted[:top] {
		held += p.Score
	}
	share := held / total
	return share, share > hoardingMassShare
}
