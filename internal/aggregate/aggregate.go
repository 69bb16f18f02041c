// Package aggregate folds a customer's review set into aggregate scores and
// the flag decision.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/utafrali/PatronScore/internal/domain"
)

// FlagThreshold is the overall mean below which a customer is flagged. A mean
// exactly equal to the threshold is not flagged.
const FlagThreshold = 2.5

// IsFlagged applies FlagThreshold to an unrounded overall mean.
func IsFlagged(overallMean float64) bool {
	return overallMean < FlagThreshold
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Recompute folds reviews into AggregateScores for customerID. It holds no
// state, so racing calls over the same snapshot agree. Each dimension is
// summed in ascending order, which makes the result independent of the order
// of reviews down to the last bit.
func Recompute(customerID string, reviews []domain.Review) domain.AggregateScores {
	out := domain.AggregateScores{CustomerID: customerID}
	n := len(reviews)
	if n == 0 {
		return out
	}

	overall := make([]float64, n)
	behavior := make([]float64, n)
	payment := make([]float64, n)
	maintenance := make([]float64, n)
	var last, updated time.Time
	for i, r := range reviews {
		overall[i] = r.Overall
		behavior[i] = r.Behavior
		payment[i] = r.Payment
		maintenance[i] = r.Maintenance
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
		if r.UpdatedAt.After(updated) {
			updated = r.UpdatedAt
		}
	}

	overallMean := mean(overall)
	out.Overall = Round2(overallMean)
	out.Behavior = Round2(mean(behavior))
	out.Payment = Round2(mean(payment))
	out.Maintenance = Round2(mean(maintenance))
	out.ReviewCount = n
	out.Flagged = IsFlagged(overallMean)
	if !last.IsZero() {
		out.LastReviewAt = &last
	}
	if !updated.IsZero() {
		out.UpdatedThrough = &updated
	}
	return out
}

// mean sorts values in place.
func mean(values []float64) float64 {
	sort.Float64s(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
