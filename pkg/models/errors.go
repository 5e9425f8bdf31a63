package models

import "errors"

// Error kinds surfaced by the core. Callers test them with errors.Is;
// wrapping sites add context with fmt.Errorf("...: %w", err).
var (
	// ErrInvalidParameter marks out-of-range configuration or empty input.
	// It is always surfaced, never silently clamped.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDuplicateSong marks a rejected add of a song already registered.
	// The database is left unmodified.
	ErrDuplicateSong = errors.New("song already in database")

	// ErrPersistence marks a corrupt or unreadable snapshot. A failed load
	// never partially mutates in-memory state.
	ErrPersistence = errors.New("snapshot persistence failure")

	// ErrNoSnapshot is returned by a store whose backing medium holds no
	// snapshot yet. Distinct from ErrPersistence: it is the expected state
	// of a fresh store, not a corruption.
	ErrNoSnapshot = errors.New("no snapshot present")
)
