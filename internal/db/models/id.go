// Package models contains database model definitions.
package models

import (
	"github.com/oklog/ulid/v2"
)

// NewID generates a lexicographically sortable ULID used as the primary key
// for review entities (reviews, items, actions, schedules).
func NewID() string {
	return ulid.Make().String()
}
