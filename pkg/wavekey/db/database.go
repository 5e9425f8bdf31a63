// Package db holds the fingerprint database: a multimap from fingerprint
// key to postings plus a song-ID-to-name table. The database is the only
// shared mutable state in the pipeline; an RWMutex lets lookups run in
// parallel while writes stay serialized.
package db

import (
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// Database maps fingerprint keys to append-ordered posting lists and song
// IDs to names. Song IDs come from a strictly monotonic counter that is
// never reset by deletions, so an ID is never reused.
type Database struct {
	mu      sync.RWMutex
	buckets map[models.FingerprintKey][]models.Posting
	names   map[uint32]string
	nextID  uint32
}

// New returns an empty database.
func New() *Database {
	return &Database{
		buckets: make(map[models.FingerprintKey][]models.Posting),
		names:   make(map[uint32]string),
	}
}

// AddSong registers a song and appends one posting per fingerprint to the
// key's bucket. The assigned song ID is returned. A name that is already
// registered is rejected with ErrDuplicateSong before anything is mutated.
func (d *Database) AddSong(fps iter.Seq[models.Fingerprint], name string) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.names {
		if existing == name {
			return 0, fmt.Errorf("%q: %w", name, models.ErrDuplicateSong)
		}
	}

	id := d.nextID
	d.nextID++

	if fps != nil {
		for fp := range fps {
			d.buckets[fp.Key] = append(d.buckets[fp.Key], models.Posting{
				SongID:     id,
				AnchorTime: fp.AnchorTime,
			})
		}
	}
	d.names[id] = name

	return id, nil
}

// Lookup returns a copy of the postings stored under key, or nil when the
// key has no bucket. It never mutates the database.
func (d *Database) Lookup(key models.FingerprintKey) []models.Posting {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bucket := d.buckets[key]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]models.Posting, len(bucket))
	copy(out, bucket)
	return out
}

// DeleteSong removes every posting for the given ID and its name-table
// entry as one atomic operation. Other songs keep their IDs; buckets that
// end up empty stay behind as empty buckets. Deleting an unknown ID is a
// no-op, matching the append-only ID allocator's contract.
func (d *Database) DeleteSong(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, bucket := range d.buckets {
		kept := bucket[:0]
		for _, p := range bucket {
			if p.SongID != id {
				kept = append(kept, p)
			}
		}
		d.buckets[key] = kept
	}
	delete(d.names, id)
}

// SongName resolves a song ID.
func (d *Database) SongName(id uint32) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

// Songs lists all registered songs ordered by ID.
func (d *Database) Songs() []models.Song {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Song, 0, len(d.names))
	for id, name := range d.names {
		out = append(out, models.Song{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumPostings counts postings across all buckets.
func (d *Database) NumPostings() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, bucket := range d.buckets {
		n += len(bucket)
	}
	return n
}

// Snapshot deep-copies both mappings and the allocator cursor.
func (d *Database) Snapshot() *models.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := &models.Snapshot{
		Buckets: make(map[models.FingerprintKey][]models.Posting, len(d.buckets)),
		Names:   make(map[uint32]string, len(d.names)),
		NextID:  d.nextID,
	}
	for key, bucket := range d.buckets {
		cp := make([]models.Posting, len(bucket))
		copy(cp, bucket)
		snap.Buckets[key] = cp
	}
	for id, name := range d.names {
		snap.Names[id] = name
	}
	return snap
}

// Restore replaces the database contents with the snapshot's. The snapshot
// is deep-copied so later mutations never reach back into it.
func (d *Database) Restore(snap *models.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buckets = make(map[models.FingerprintKey][]models.Posting, len(snap.Buckets))
	for key, bucket := range snap.Buckets {
		cp := make([]models.Posting, len(bucket))
		copy(cp, bucket)
		d.buckets[key] = cp
	}
	d.names = make(map[uint32]string, len(snap.Names))
	for id, name := range snap.Names {
		d.names[id] = name
	}
	d.nextID = snap.NextID
}
