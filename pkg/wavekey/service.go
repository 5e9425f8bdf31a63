package wavekey

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ishaanbhide/WaveKey/internal/audio"
	"github.com/ishaanbhide/WaveKey/pkg/logger"
	"github.com/ishaanbhide/WaveKey/pkg/models"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey/db"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey/fingerprint"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey/storage"
)

// waveKeyService is the default implementation of the Service interface.
type waveKeyService struct {
	db     *db.Database
	store  SnapshotStore
	log    Logger
	config *Config
}

// NewService builds a service from the options, restoring any prior
// snapshot from the configured store. A store that has never been saved to
// just starts the service empty.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewGobFileStore(cfg.SnapshotPath)
	}

	s := &waveKeyService{
		db:     db.New(),
		store:  cfg.Store,
		log:    cfg.Logger,
		config: cfg,
	}

	snap, err := s.store.Load(context.Background())
	switch {
	case err == nil:
		s.db.Restore(snap)
		s.log.Infof("Restored %d songs from snapshot", len(snap.Names))
	case errors.Is(err, ErrNoSnapshot):
		s.log.Debugf("No snapshot found, starting empty")
	default:
		s.store.Close()
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}

	return s, nil
}

// fingerprintClip runs the full pipeline on a sample buffer: spectrogram,
// log compression, cutoff, peak extraction, fan-out pairing.
func (s *waveKeyService) fingerprintClip(samples []float64) (iter.Seq[models.Fingerprint], error) {
	spec, cutoff, err := fingerprint.Preprocess(samples, s.config.WindowSize, s.config.Overlap, s.config.FracCut)
	if err != nil {
		return nil, fmt.Errorf("preprocessing clip: %w", err)
	}

	peaks, err := fingerprint.ExtractPeaks(spec, cutoff, s.config.PeakRadius)
	if err != nil {
		return nil, fmt.Errorf("extracting peaks: %w", err)
	}
	s.log.Debugf("Extracted %d peaks (cutoff %.3f)", len(peaks), cutoff)

	fps, err := fingerprint.Fingerprints(peaks, s.config.FanOut)
	if err != nil {
		return nil, fmt.Errorf("generating fingerprints: %w", err)
	}
	return fps, nil
}

// AddSongClip fingerprints a sample buffer and stores it under name.
func (s *waveKeyService) AddSongClip(ctx context.Context, samples []float64, name string) (uint32, error) {
	s.log.Infof("Adding song: %s", name)

	fps, err := s.fingerprintClip(samples)
	if err != nil {
		return 0, err
	}

	songID, err := s.db.AddSong(fps, name)
	if err != nil {
		return 0, err
	}

	s.log.Infof("Added song %q with ID=%d", name, songID)
	return songID, nil
}

// AddSongFile converts an audio file to mono WAV, decodes it and ingests it.
func (s *waveKeyService) AddSongFile(ctx context.Context, audioPath, name string) (uint32, error) {
	samples, err := s.loadFile(ctx, audioPath)
	if err != nil {
		return 0, err
	}
	return s.AddSongClip(ctx, samples, name)
}

// MatchClip matches an unknown sample buffer against the database.
func (s *waveKeyService) MatchClip(ctx context.Context, samples []float64) (models.MatchResult, error) {
	fps, err := s.fingerprintClip(samples)
	if err != nil {
		return models.MatchResult{}, err
	}

	result := s.db.Match(fps)
	if result.Found() {
		s.log.Infof("Matched %q with %d votes at offset %d", result.SongName, result.Votes, result.Offset)
	} else {
		s.log.Infof("No match found")
	}
	return result, nil
}

// MatchFile converts and decodes an audio file, then matches it.
func (s *waveKeyService) MatchFile(ctx context.Context, audioPath string) (models.MatchResult, error) {
	samples, err := s.loadFile(ctx, audioPath)
	if err != nil {
		return models.MatchResult{}, err
	}
	return s.MatchClip(ctx, samples)
}

func (s *waveKeyService) loadFile(ctx context.Context, audioPath string) ([]float64, error) {
	wavPath, err := audio.ConvertToMonoWAV(ctx, audioPath, s.config.TempDir, audio.ConvertConfig{
		SampleRate: s.config.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("audio conversion failed: %w", err)
	}

	samples, _, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}
	return samples, nil
}

// DeleteSong removes a song's postings and name entry.
func (s *waveKeyService) DeleteSong(ctx context.Context, songID uint32) error {
	s.db.DeleteSong(songID)
	s.log.Infof("Deleted song ID=%d", songID)
	return nil
}

// ListSongs returns all registered songs ordered by ID.
func (s *waveKeyService) ListSongs() []models.Song {
	return s.db.Songs()
}

// NumPostings counts stored postings across all buckets.
func (s *waveKeyService) NumPostings() int {
	return s.db.NumPostings()
}

// SaveSnapshot persists the current database through the configured store.
func (s *waveKeyService) SaveSnapshot(ctx context.Context) error {
	snap := s.db.Snapshot()
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	s.log.Debugf("Saved snapshot with %d songs", len(snap.Names))
	return nil
}

// Close releases the snapshot store.
func (s *waveKeyService) Close() error {
	return s.store.Close()
}
