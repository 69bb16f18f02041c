package domain

import (
	"time"

	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

// Rating bounds, inclusive.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Reviewer role constants.
const (
	RoleServer         = "server"
	RoleBartender      = "bartender"
	RoleHost           = "host"
	RoleManager        = "manager"
	RoleDeliveryDriver = "delivery_driver"
	RoleOther          = "other"
)

// ValidRoles returns the set of reviewer roles.
func ValidRoles() []string {
	return []string{RoleServer, RoleBartender, RoleHost, RoleManager, RoleDeliveryDriver, RoleOther}
}

// IsValidRole checks whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Ratings holds the four rating dimensions of a review, each in [1, 5].
type Ratings struct {
	Overall     float64 `json:"overall"`
	Behavior    float64 `json:"behavior"`
	Payment     float64 `json:"payment"`
	Maintenance float64 `json:"maintenance"`
}

// RatingInput is a rating payload as submitted. A zero dimension is unset.
type RatingInput struct {
	Overall     float64
	Behavior    float64
	Payment     float64
	Maintenance float64
}

// Materialize validates the input and fills every unset dimension with the
// overall rating. Overall itself is required.
func (in RatingInput) Materialize() (Ratings, error) {
	if in.Overall == 0 {
		return Ratings{}, apperrors.InvalidField("overall", "is required")
	}
	if !inRange(in.Overall) {
		return Ratings{}, apperrors.InvalidField("overall", "must be between 1 and 5")
	}

	out := Ratings{Overall: in.Overall}
	dims := []struct {
		name string
		in   float64
		out  *float64
	}{
		{"behavior", in.Behavior, &out.Behavior},
		{"payment", in.Payment, &out.Payment},
		{"maintenance", in.Maintenance, &out.Maintenance},
	}
	for _, d := range dims {
		switch {
		case d.in == 0:
			*d.out = in.Overall
		case !inRange(d.in):
			return Ratings{}, apperrors.InvalidField(d.name, "must be between 1 and 5")
		default:
			*d.out = d.in
		}
	}
	return out, nil
}

func inRange(v float64) bool {
	return v >= MinRating && v <= MaxRating
}

// Review is one rating event left by a service worker for a customer.
type Review struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Ratings
	Comment      string    `json:"comment"`
	Role         string    `json:"role"`
	BusinessName *string   `json:"business_name,omitempty"`
	Seq          int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
