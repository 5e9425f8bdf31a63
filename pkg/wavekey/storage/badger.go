package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// BadgerStore persists snapshots in an embedded Badger key-value store.
// One "fp/" key per bucket holds the bucket's postings packed back to back
// in append order; "song/" keys hold the name table; a single meta key
// holds the ID allocator cursor.
type BadgerStore struct {
	db *badger.DB
}

var (
	prefixBucket = []byte("fp/")
	prefixSong   = []byte("song/")
	keyNextID    = []byte("meta/next_song_id")
)

const postingSize = 8 // songID uint32 + anchorTime uint32

func NewBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func bucketKey(key models.FingerprintKey) []byte {
	buf := make([]byte, len(prefixBucket)+12)
	copy(buf, prefixBucket)
	binary.BigEndian.PutUint32(buf[3:], uint32(key.AnchorFreq))
	binary.BigEndian.PutUint32(buf[7:], uint32(key.TargetFreq))
	binary.BigEndian.PutUint32(buf[11:], uint32(key.DeltaT))
	return buf
}

func encodeBucket(bucket []models.Posting) []byte {
	buf := make([]byte, 0, len(bucket)*postingSize)
	for _, p := range bucket {
		var entry [postingSize]byte
		binary.BigEndian.PutUint32(entry[0:], p.SongID)
		binary.BigEndian.PutUint32(entry[4:], uint32(p.AnchorTime))
		buf = append(buf, entry[:]...)
	}
	return buf
}

func decodeBucket(val []byte) ([]models.Posting, error) {
	if len(val)%postingSize != 0 {
		return nil, fmt.Errorf("bucket value length %d not a posting multiple: %w",
			len(val), models.ErrPersistence)
	}
	bucket := make([]models.Posting, 0, len(val)/postingSize)
	for i := 0; i+postingSize <= len(val); i += postingSize {
		bucket = append(bucket, models.Posting{
			SongID:     binary.BigEndian.Uint32(val[i:]),
			AnchorTime: int(binary.BigEndian.Uint32(val[i+4:])),
		})
	}
	return bucket, nil
}

// Save drops all existing keys and writes the snapshot in one batch.
func (s *BadgerStore) Save(_ context.Context, snap *models.Snapshot) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clearing badger store: %w: %v", models.ErrPersistence, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for key, bucket := range snap.Buckets {
		if err := wb.Set(bucketKey(key), encodeBucket(bucket)); err != nil {
			return fmt.Errorf("writing bucket: %w: %v", models.ErrPersistence, err)
		}
	}
	for id, name := range snap.Names {
		key := make([]byte, len(prefixSong)+4)
		copy(key, prefixSong)
		binary.BigEndian.PutUint32(key[len(prefixSong):], id)
		if err := wb.Set(key, []byte(name)); err != nil {
			return fmt.Errorf("writing song: %w: %v", models.ErrPersistence, err)
		}
	}

	nextID := make([]byte, 4)
	binary.BigEndian.PutUint32(nextID, snap.NextID)
	if err := wb.Set(keyNextID, nextID); err != nil {
		return fmt.Errorf("writing next id: %w: %v", models.ErrPersistence, err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w: %v", models.ErrPersistence, err)
	}
	return nil
}

// Load rebuilds a snapshot from the store. A store that was never saved to
// (no meta key) reports ErrNoSnapshot.
func (s *BadgerStore) Load(_ context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Buckets: make(map[models.FingerprintKey][]models.Posting),
		Names:   make(map[uint32]string),
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyNextID)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return models.ErrNoSnapshot
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("next id value length %d: %w", len(val), models.ErrPersistence)
			}
			snap.NextID = binary.BigEndian.Uint32(val)
			return nil
		}); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixBucket
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rawKey := item.KeyCopy(nil)
			if len(rawKey) != len(prefixBucket)+12 {
				it.Close()
				return fmt.Errorf("bucket key length %d: %w", len(rawKey), models.ErrPersistence)
			}
			key := models.FingerprintKey{
				AnchorFreq: int(binary.BigEndian.Uint32(rawKey[3:])),
				TargetFreq: int(binary.BigEndian.Uint32(rawKey[7:])),
				DeltaT:     int(binary.BigEndian.Uint32(rawKey[11:])),
			}
			if err := item.Value(func(val []byte) error {
				bucket, err := decodeBucket(val)
				if err != nil {
					return err
				}
				snap.Buckets[key] = bucket
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = prefixSong
		it = txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rawKey := item.KeyCopy(nil)
			if len(rawKey) != len(prefixSong)+4 {
				return fmt.Errorf("song key length %d: %w", len(rawKey), models.ErrPersistence)
			}
			id := binary.BigEndian.Uint32(rawKey[len(prefixSong):])
			if err := item.Value(func(val []byte) error {
				snap.Names[id] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
