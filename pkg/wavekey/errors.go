package wavekey

import "github.com/ishaanbhide/WaveKey/pkg/models"

// Re-exported error kinds so facade callers don't need pkg/models.
var (
	ErrInvalidParameter = models.ErrInvalidParameter
	ErrDuplicateSong    = models.ErrDuplicateSong
	ErrPersistence      = models.ErrPersistence
	ErrNoSnapshot       = models.ErrNoSnapshot
)
