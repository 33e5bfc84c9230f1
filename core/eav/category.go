// Package eav holds the entity-attribute-value vocabulary shared by the
// knowledge graph, the criticality scorer and the publication planner.
package eav

import "strings"

// AttributeCategory classifies how important an attribute is for an entity.
type AttributeCategory string

const (
	CategoryRoot   AttributeCategory = "ROOT"
	CategoryUnique AttributeCategory = "UNIQUE"
	CategoryRare   AttributeCategory = "RARE"
	CategoryCommon AttributeCategory = "COMMON"

	// Legacy names still emitted by older topical maps.
	CategoryCoreDefinition       AttributeCategory = "CORE_DEFINITION"
	CategoryCompetitiveExpansion AttributeCategory = "COMPETITIVE_EXPANSION"
	CategorySearchDemand         AttributeCategory = "SEARCH_DEMAND"
	CategoryComposite            AttributeCategory = "COMPOSITE"
)

var legacyAliases = map[AttributeCategory]AttributeCategory{
	CategoryCoreDefinition:       CategoryRoot,
	CategoryCompetitiveExpansion: CategoryUnique,
	CategorySearchDemand:         CategoryRare,
	CategoryComposite:            CategoryCommon,
}

// Canonical normalizes case and whitespace and resolves legacy aliases to
// one of ROOT, UNIQUE, RARE or COMMON. The second return value is false
// for unknown or empty categories.
func (c AttributeCategory) Canonical() (AttributeCategory, bool) {
	normalized := AttributeCategory(strings.ToUpper(strings.TrimSpace(string(c))))
	switch normalized {
	case CategoryRoot, CategoryUnique, CategoryRare, CategoryCommon:
		return normalized, true
	}
	if alias, ok := legacyAliases[normalized]; ok {
		return alias, true
	}
	return "", false
}

// IsLegacy reports whether c is one of the legacy category names.
func (c AttributeCategory) IsLegacy() bool {
	_, ok := legacyAliases[AttributeCategory(strings.ToUpper(strings.TrimSpace(string(c))))]
	return ok
}

func (c AttributeCategory) String() string {
	return string(c)
}

// CoreCategories are the categories every well-described entity should have.
// Order is the order gaps are reported in.
var CoreCategories = []AttributeCategory{CategoryRoot, CategoryUnique, CategoryRare}
