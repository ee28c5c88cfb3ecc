// Package compliance computes the stock compliance percentage and maps it
// to a status bucket. It is the single source of truth for the banding:
// both item creation and item update classify through Classify, so a given
// (required, current) pair always lands in the same bucket regardless of
// which operation produced it.
package compliance

import (
	"math"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
)

// Band thresholds. Bands are contiguous and non-overlapping: every
// non-negative percentage maps to exactly one bucket.
const (
	optimalMin = 80
	optimalMax = 120
	excessMax  = 200
)

// Percent returns the compliance percentage for a count pair, rounded
// half-up to the nearest integer. Zero required stock means compliance is
// exactly 100 no matter the counted amount.
func Percent(current, required int) int {
	if required == 0 {
		return 100
	}
	return int(math.Round(float64(current) / float64(required) * 100))
}

// StatusFor maps a compliance percentage to its status bucket.
func StatusFor(percent int) model.StockStatusCode {
	switch {
	case percent < optimalMin:
		return model.StockStatusNeedsOrder
	case percent <= optimalMax:
		return model.StockStatusOptimal
	case percent <= excessMax:
		return model.StockStatusExcess
	default:
		return model.StockStatusHighExcess
	}
}

// Classify validates the count pair and derives both the percentage and the
// status bucket. Negative counts are the only rejected input.
func Classify(current, required int) (int, model.StockStatusCode, error) {
	if current < 0 || required < 0 {
		return 0, "", apperr.Validation("stock quantities must be non-negative")
	}
	percent := Percent(current, required)
	return percent, StatusFor(percent), nil
}
