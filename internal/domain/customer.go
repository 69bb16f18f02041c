package domain

import (
	"time"
)

// AnonymousDisplayName is shown when neither a phone number nor a display
// name override is available.
const AnonymousDisplayName = "Anonymous Customer"

// Customer is the identity anchor reviews attach to. The raw phone number is
// never stored; LookupKey is its one-way digest.
type Customer struct {
	ID          string    `json:"id"`
	LookupKey   string    `json:"-"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasDisplayName reports whether the customer carries a non-empty override.
func (c *Customer) HasDisplayName() bool {
	return c != nil && c.DisplayName != nil && *c.DisplayName != ""
}
