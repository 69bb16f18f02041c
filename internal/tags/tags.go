// Package tags infers short descriptive labels for a review from its overall
// rating and comment.
package tags

import (
	"strings"
)

// Band boundaries, inclusive.
const (
	HighBandMin = 4.0
	LowBandMax  = 2.0
)

// Fallback labels emitted when a banded comment matches no keyword.
const (
	FallbackHigh = "Great Customer"
	FallbackLow  = "Difficult Customer"
)

type category struct {
	label    string
	keywords []string
}

// Categories are scanned in order; the output follows the same order.
var (
	highCategories = []category{
		{"Generous Tipper", []string{"tip", "generous"}},
		{"Polite", []string{"polite", "kind", "friendly", "nice", "sweet"}},
		{"Patient", []string{"patient", "understanding", "easygoing"}},
		{"Regular", []string{"regular", "loyal", "every week"}},
	}
	lowCategories = []category{
		{"Rude", []string{"rude", "difficult", "disrespectful", "yell"}},
		{"Bad Tipper", []string{"no tip", "didn't tip", "stiff", "cheap"}},
		{"Demanding", []string{"demand", "complain", "entitled"}},
		{"Messy", []string{"mess", "dirty", "spill"}},
		{"Intoxicated", []string{"drunk", "intoxicated", "wasted"}},
	}
)

// Infer returns the labels for a review. Ratings between the bands yield an
// empty slice. The result is never nil.
func Infer(rating float64, comment string) []string {
	var (
		cats     []category
		fallback string
	)
	switch {
	case rating >= HighBandMin:
		cats, fallback = highCategories, FallbackHigh
	case rating <= LowBandMax:
		cats, fallback = lowCategories, FallbackLow
	default:
		return []string{}
	}

	text := strings.ToLower(comment)
	out := make([]string, 0, 2)
	for _, c := range cats {
		if containsAny(text, c.keywords) {
			out = append(out, c.label)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
