// Package storage provides interchangeable snapshot stores for the
// fingerprint database. Every store round-trips the snapshot verbatim: a
// saved-then-loaded database is observably identical to the original.
package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/ishaanbhide/WaveKey/pkg/models"
	"github.com/ishaanbhide/WaveKey/pkg/utils"
)

// GobFileStore persists snapshots as a single gob-encoded file prefixed
// with an xxhash64 checksum. A checksum mismatch or a truncated file
// surfaces as ErrPersistence on load; a missing file is ErrNoSnapshot.
type GobFileStore struct {
	path string
}

func NewGobFileStore(path string) *GobFileStore {
	return &GobFileStore{path: path}
}

// Save encodes the snapshot and writes it atomically: the payload goes to a
// temp file first and is renamed over the destination, so a crash mid-write
// never leaves a corrupt snapshot in place.
func (s *GobFileStore) Save(_ context.Context, snap *models.Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, xxhash.Checksum64(buf.Bytes()))

	if dir := filepath.Dir(s.path); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}

	return os.Rename(tmp, s.path)
}

// Load reads and verifies the snapshot file. It decodes fully into a fresh
// snapshot before returning, so a corrupt file never partially mutates
// anything the caller owns.
func (s *GobFileStore) Load(_ context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", s.path, models.ErrNoSnapshot)
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, models.ErrPersistence)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("%s truncated (%d bytes): %w", s.path, len(data), models.ErrPersistence)
	}

	want := binary.BigEndian.Uint64(data[:8])
	payload := data[8:]
	if got := xxhash.Checksum64(payload); got != want {
		return nil, fmt.Errorf("%s checksum mismatch: %w", s.path, models.ErrPersistence)
	}

	var snap models.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, models.ErrPersistence)
	}
	if snap.Buckets == nil {
		snap.Buckets = make(map[models.FingerprintKey][]models.Posting)
	}
	if snap.Names == nil {
		snap.Names = make(map[uint32]string)
	}
	return &snap, nil
}

func (s *GobFileStore) Close() error { return nil }
