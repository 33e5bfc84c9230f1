package eav

import "strings"

// SemanticTriple is a single entity-attribute-value fact.
type SemanticTriple struct {
	Subject   Subject   `json:"subject" yaml:"subject"`
	Predicate Predicate `json:"predicate" yaml:"predicate"`
	Object    Object    `json:"object" yaml:"object"`
}

type Subject struct {
	Label string `json:"label" yaml:"label"`
}

type Predicate struct {
	Relation string            `json:"relation" yaml:"relation"`
	Category AttributeCategory `json:"category,omitempty" yaml:"category,omitempty"`
}

type Object struct {
	Value any `json:"value" yaml:"value"`
}

// MatchesTitle reports whether the triple's subject and the title contain
// one another, ignoring case. The match is deliberately loose: upstream
// data carries no foreign keys between triples and topics.
func (t SemanticTriple) MatchesTitle(title string) bool {
	subject := strings.ToLower(strings.TrimSpace(t.Subject.Label))
	target := strings.ToLower(strings.TrimSpace(title))
	if subject == "" || target == "" {
		return false
	}
	return strings.Contains(subject, target) || strings.Contains(target, subject)
}

// CategoryCounts tallies canonical categories.
type CategoryCounts struct {
	Unique int `json:"unique" yaml:"unique"`
	Rare   int `json:"rare" yaml:"rare"`
	Root   int `json:"root" yaml:"root"`
	Common int `json:"common" yaml:"common"`
}

// Add increments the bucket for c. Unknown categories are ignored.
func (cc *CategoryCounts) Add(c AttributeCategory) {
	canonical, ok := c.Canonical()
	if !ok {
		return
	}
	switch canonical {
	case CategoryUnique:
		cc.Unique++
	case CategoryRare:
		cc.Rare++
	case CategoryRoot:
		cc.Root++
	case CategoryCommon:
		cc.Common++
	}
}

// Total returns the number of counted triples.
func (cc CategoryCounts) Total() int {
	return cc.Unique + cc.Rare + cc.Root + cc.Common
}

// CountMatching tallies the categories of all triples whose subject matches
// title.
func CountMatching(triples []SemanticTriple, title string) CategoryCounts {
	var counts CategoryCounts
	for _, triple := range triples {
		if triple.MatchesTitle(title) {
			counts.Add(triple.Predicate.Category)
		}
	}
	return counts
}
