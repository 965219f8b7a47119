package matching

import (
	"strings"
	"time"

	"github.com/campusfind/campusfind-backend/pkg/enums"
)

// Signal weights are fixed at design time. Their sum is the normalization
// divisor applied to every score.
const (
	weightType        = 0.4
	weightLocation    = 0.3
	weightDate        = 0.2
	weightDescription = 0.1

	// ScoreThreshold is the minimum similarity for a pending match.
	ScoreThreshold = 0.5
)

// ScoreInput carries the report fields the scorer reads. Date holds
// lost_date for lost items and found_date for found items.
type ScoreInput struct {
	ItemType    enums.ItemType
	Location    string
	Description string
	Date        time.Time
}

// Score computes the weighted similarity between a lost report and a found
// report. Pure and deterministic; always returns a value in [0,1].
func Score(lost, found ScoreInput) float64 {
	var sum float64

	if lost.ItemType == found.ItemType {
		sum += weightType
	}

	sum += locationComponent(lost.Location, found.Location)
	sum += dateComponent(lost.Date, found.Date)
	sum += weightDescription * jaccard(lost.Description, found.Description)

	// Every weight participates in the divisor whether or not its signal
	// applied, so the divisor is always 1.0.
	totalWeight := weightType + weightLocation + weightDate + weightDescription
	return sum / totalWeight
}

// locationComponent awards full weight for an exact (case-sensitive) match
// and half weight when the two locations share at least one token.
func locationComponent(a, b string) float64 {
	if a == b {
		return weightLocation
	}
	if sharesToken(a, b) {
		return weightLocation / 2
	}
	return 0
}

func dateComponent(a, b time.Time) float64 {
	days := dateDiffDays(a, b)
	switch {
	case days <= 1:
		return weightDate
	case days <= 3:
		return 0.15
	case days <= 7:
		return 0.1
	default:
		return 0
	}
}

// dateDiffDays compares at calendar-date granularity, dropping time of day.
func dateDiffDays(a, b time.Time) int {
	ta := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

func tokenize(s string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func sharesToken(a, b string) bool {
	tokensA := tokenize(a)
	if len(tokensA) == 0 {
		return false
	}
	for tok := range tokenize(b) {
		if _, ok := tokensA[tok]; ok {
			return true
		}
	}
	return false
}

// jaccard returns |intersection| / |union| over case-insensitive tokens.
// Two empty descriptions yield 0, not a division error.
func jaccard(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	union := len(tokensB)
	common := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
