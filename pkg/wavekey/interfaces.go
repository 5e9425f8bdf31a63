package wavekey

import (
	"context"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// Service is the recognition facade: ingest songs, match unknown clips,
// manage the catalog, persist the database.
type Service interface {
	AddSongClip(ctx context.Context, samples []float64, name string) (uint32, error)
	AddSongFile(ctx context.Context, audioPath, name string) (uint32, error)
	MatchClip(ctx context.Context, samples []float64) (models.MatchResult, error)
	MatchFile(ctx context.Context, audioPath string) (models.MatchResult, error)
	DeleteSong(ctx context.Context, songID uint32) error
	ListSongs() []models.Song
	NumPostings() int
	SaveSnapshot(ctx context.Context) error
	Close() error
}

// SnapshotStore persists the database's two mappings and its ID allocator
// cursor. Load returns models.ErrNoSnapshot for a store that was never
// saved to, and wraps models.ErrPersistence for anything corrupt.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
	Close() error
}

// Logger is the logging surface the service writes through.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
