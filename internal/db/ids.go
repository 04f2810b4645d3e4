package db

import "github.com/google/uuid"

// NewID returns a random identifier for locally created rows (submissions,
// mutations, LOIs). Remote documents use the same ids.
func NewID() string {
	return uuid.NewString()
}
