// Package matching scores candidate lost/found pairings and runs the matching
// pass that locks items into matches.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/reclaim-dev/reclaim/internal/geo"
	"github.com/reclaim-dev/reclaim/internal/model"
)

// Scoring weights. Category is a hard filter: a mismatch zeroes the whole
// score before any other factor is evaluated.
const (
	weightCategory    = 30
	weightName        = 40
	weightDescription = 20
	weightGeoMax      = 20
	weightTimeMax     = 10
)

// Threshold is the minimum confidence for the matching pass to create a match.
const Threshold = 50

// nameFromDescription caps how much of the description stands in for a
// missing item name.
const nameFromDescription = 50

// Score is the result of scoring one lost/found pair: an overall confidence
// in [0, 100] and a per-factor explanation.
type Score struct {
	Confidence int               `json:"confidence"`
	Details    map[string]string `json:"details"`
}

// ScoreMatch computes the confidence that a lost report and a found report
// describe the same item. Deterministic: identical inputs always produce an
// identical score.
func ScoreMatch(lost *model.LostItem, found *model.FoundItem) Score {
	details := make(map[string]string)

	// 1. Category: exact case-insensitive match required.
	if !strings.EqualFold(strings.TrimSpace(lost.Category), strings.TrimSpace(found.Category)) {
		details["category"] = fmt.Sprintf("mismatch: %q vs %q", lost.Category, found.Category)
		return Score{Confidence: 0, Details: details}
	}
	score := weightCategory
	details["category"] = "exact match"

	// 2. Item name similarity. Reports missing a name fall back to a summary
	// derived from the description.
	lostName := normalizeName(lost.ItemName, lost.Description)
	foundName := normalizeName(found.ItemName, found.Description)
	nameScore := int(math.Round(Similarity(lostName, foundName) * weightName))
	score += nameScore
	details["name"] = fmt.Sprintf("+%d of %d", nameScore, weightName)

	// 3. Secondary description similarity.
	descScore := int(math.Round(Similarity(lost.Description, found.Description) * weightDescription))
	score += descScore
	details["description"] = fmt.Sprintf("+%d of %d", descScore, weightDescription)

	// 4. Geo proximity, tiered.
	if lost.Lat != nil && lost.Lng != nil && found.Lat != nil && found.Lng != nil {
		dist := geo.Distance(*lost.Lat, *lost.Lng, *found.Lat, *found.Lng)
		geoScore := geoTier(dist)
		score += geoScore
		details["location"] = fmt.Sprintf("%.2fkm apart: +%d", dist, geoScore)
	} else {
		details["location"] = "coordinates unavailable"
	}

	// 5. Temporal proximity between the lost date and when the found report
	// was filed, tiered by absolute day difference.
	days := math.Abs(found.CreatedAt.Sub(lost.DateLost).Hours() / 24)
	timeScore := timeTier(days)
	score += timeScore
	details["time"] = fmt.Sprintf("%.1f days apart: +%d", days, timeScore)

	if score > 100 {
		score = 100
	}
	return Score{Confidence: score, Details: details}
}

func normalizeName(name, fallback string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	runes := []rune(fallback)
	if len(runes) > nameFromDescription {
		runes = runes[:nameFromDescription]
	}
	return string(runes)
}

func geoTier(km float64) int {
	switch {
	case km < 0.2:
		return 20
	case km < 1:
		return 15
	case km < 3:
		return 10
	case km < 10:
		return 5
	default:
		return 0
	}
}

func timeTier(days float64) int {
	switch {
	case days < 1:
		return 10
	case days < 5:
		return 5
	case days < 14:
		return 2
	default:
		return 0
	}
}
