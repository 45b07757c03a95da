package ledger

import (
	"github.com/google/uuid"
)

// SeedGenerator supplies ticket seeds when a sale does not name its own.
// Each call must return a seed never returned before for the same class;
// a repeat makes the sale fail with ALREADY_EXISTS.
type SeedGenerator interface {
	Generate() string
}

// UUIDv7Seeds draws time-ordered UUIDv7 seeds, so ticket seeds sort in
// sale order when listed.
//
// Stateless and safe for concurrent use.
type UUIDv7Seeds struct{}

// Generate returns a hyphenated UUIDv7. Panics if the system random
// source fails.
func (UUIDv7Seeds) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
