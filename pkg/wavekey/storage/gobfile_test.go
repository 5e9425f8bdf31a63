package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Buckets: map[models.FingerprintKey][]models.Posting{
			{AnchorFreq: 100, TargetFreq: 200, DeltaT: 5}: {
				{SongID: 0, AnchorTime: 10},
				{SongID: 1, AnchorTime: 50},
			},
			{AnchorFreq: 7, TargetFreq: 8, DeltaT: 2}: {
				{SongID: 1, AnchorTime: 3},
			},
		},
		Names:  map[uint32]string{0: "alpha", 1: "beta"},
		NextID: 2,
	}
}

func assertSnapshotsEqual(t *testing.T, got, want *models.Snapshot) {
	t.Helper()
	if !reflect.DeepEqual(got.Buckets, want.Buckets) {
		t.Errorf("Buckets = %v, want %v", got.Buckets, want.Buckets)
	}
	if !reflect.DeepEqual(got.Names, want.Names) {
		t.Errorf("Names = %v, want %v", got.Names, want.Names)
	}
	if got.NextID != want.NextID {
		t.Errorf("NextID = %d, want %d", got.NextID, want.NextID)
	}
}

func TestGobFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.snapshot")
	store := NewGobFileStore(path)

	want := sampleSnapshot()
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSnapshotsEqual(t, got, want)
}

func TestGobFileMissing(t *testing.T) {
	store := NewGobFileStore(filepath.Join(t.TempDir(), "nope.snapshot"))
	_, err := store.Load(context.Background())
	if !errors.Is(err, models.ErrNoSnapshot) {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}
}

func TestGobFileChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.snapshot")
	store := NewGobFileStore(path)
	if err := store.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(context.Background()); !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("got %v, want ErrPersistence", err)
	}
}

func TestGobFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.snapshot")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewGobFileStore(path)
	if _, err := store.Load(context.Background()); !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("got %v, want ErrPersistence", err)
	}
}

func TestGobFileSaveCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "db.snapshot")
	store := NewGobFileStore(path)
	if err := store.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}
}

func TestGobFileOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.snapshot")
	store := NewGobFileStore(path)

	if err := store.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	want := &models.Snapshot{
		Buckets: map[models.FingerprintKey][]models.Posting{},
		Names:   map[uint32]string{},
		NextID:  9,
	}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSnapshotsEqual(t, got, want)
}
