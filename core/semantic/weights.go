package semantic

// =============================================================================
// Fixed Weights
// =============================================================================

const (
	// neutralScore is returned for entities with no recorded co-occurrence
	// or context.
	neutralScore = 0.5

	contextVarietyStep = 0.1
	contextVarietyCap  = 0.3

	// Similarity cascade values.
	similarityIdentical  = 1.0
	similarityDirectEdge = 0.9
	similarityJaccardMin = 0.3
	similarityJaccardAmp = 0.5
	similaritySameType   = 0.2
	similarityUnrelated  = 0.1

	// Linking sweet spot, inclusive on both ends.
	linkDistanceMin = 0.3
	linkDistanceMax = 0.7
	linkDistanceMid = 0.5

	// CannibalizationThreshold is the distance below which two entities
	// compete for the same intent.
	CannibalizationThreshold = 0.2

	defaultCacheSize = 4096
)

// positionWeights is the fixed position lookup table.
var positionWeights = map[Position]float64{
	PositionH1:      1.0,
	PositionH2:      0.8,
	PositionH3:      0.6,
	PositionBody:    0.4,
	PositionAltText: 0.5,
	PositionMeta:    0.3,
}

// PositionWeight returns the fixed weight for p. Unknown positions weigh
// the same as body text.
func PositionWeight(p Position) float64 {
	if w, ok := positionWeights[p]; ok {
		return w
	}
	return positionWeights[PositionBody]
}

func proximityMultiplier(p Proximity) float64 {
	switch p {
	case ProximitySameSentence:
		return 1.0
	case ProximitySameSection:
		return 0.7
	default:
		return 0.4
	}
}

// =============================================================================
// Distance Bands
// =============================================================================

// DistanceBand names the recommendation band a distance falls into.
type DistanceBand string

const (
	BandIdentical       DistanceBand = "identical"
	BandCannibalization DistanceBand = "cannibalization_risk"
	BandVeryClose       DistanceBand = "very_closely_related"
	BandStrong          DistanceBand = "strongly_related"
	BandModerate        DistanceBand = "moderately_related"
	BandLoose           DistanceBand = "loosely_related"
	BandTooDifferent    DistanceBand = "too_different"
)

type distanceBand struct {
	upper          float64
	band           DistanceBand
	recommendation string
}

// distanceBands are checked in ascending order with strict less-than, so a
// boundary value falls into the band above it.
var distanceBands = []distanceBand{
	{0.2, BandCannibalization, "Cannibalization risk: these entities compete for the same search intent. Consider merging or differentiating the pages."},
	{0.3, BandVeryClose, "Very closely related: link sparingly to avoid diluting topical focus."},
	{0.5, BandStrong, "Strongly related: ideal internal linking candidate."},
	{0.7, BandModerate, "Moderately related: good supporting link with descriptive anchor text."},
	{0.85, BandLoose, "Loosely related: link only when the surrounding context justifies it."},
}

const (
	tooDifferentRecommendation = "Too different: avoid linking these entities."
	identicalRecommendation    = "Same entity: no link needed."
)

func classifyDistance(distance float64) (DistanceBand, string) {
	for _, b := range distanceBands {
		if distance < b.upper {
			return b.band, b.recommendation
		}
	}
	return BandTooDifferent, tooDifferentRecommendation
}

func shouldLink(distance float64) bool {
	return distance >= linkDistanceMin && distance <= linkDistanceMax
}
