package db

import (
	"errors"
	"iter"
	"reflect"
	"sync"
	"testing"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

func seqOf(fps ...models.Fingerprint) iter.Seq[models.Fingerprint] {
	return func(yield func(models.Fingerprint) bool) {
		for _, fp := range fps {
			if !yield(fp) {
				return
			}
		}
	}
}

func key(f1, f2, dt int) models.FingerprintKey {
	return models.FingerprintKey{AnchorFreq: f1, TargetFreq: f2, DeltaT: dt}
}

func TestAddSongAndLookup(t *testing.T) {
	d := New()

	id, err := d.AddSong(seqOf(
		models.Fingerprint{Key: key(100, 200, 5), AnchorTime: 10},
		models.Fingerprint{Key: key(100, 200, 5), AnchorTime: 42},
		models.Fingerprint{Key: key(50, 60, 1), AnchorTime: 7},
	), "first song")
	if err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}
	if id != 0 {
		t.Errorf("first song ID = %d, want 0", id)
	}

	postings := d.Lookup(key(100, 200, 5))
	want := []models.Posting{
		{SongID: 0, AnchorTime: 10},
		{SongID: 0, AnchorTime: 42},
	}
	if !reflect.DeepEqual(postings, want) {
		t.Errorf("Lookup = %v, want %v", postings, want)
	}

	if got := d.Lookup(key(1, 2, 3)); got != nil {
		t.Errorf("Lookup of unknown key = %v, want nil", got)
	}

	name, ok := d.SongName(id)
	if !ok || name != "first song" {
		t.Errorf("SongName(%d) = %q, %v", id, name, ok)
	}
}

func TestDuplicateSongRejected(t *testing.T) {
	d := New()

	if _, err := d.AddSong(seqOf(models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 0}), "song"); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	_, err := d.AddSong(seqOf(models.Fingerprint{Key: key(9, 9, 9), AnchorTime: 0}), "song")
	if !errors.Is(err, models.ErrDuplicateSong) {
		t.Fatalf("got %v, want ErrDuplicateSong", err)
	}

	// The rejected add must leave the database unmodified.
	if got := d.Lookup(key(9, 9, 9)); got != nil {
		t.Errorf("rejected add left postings behind: %v", got)
	}
	if songs := d.Songs(); len(songs) != 1 {
		t.Errorf("got %d songs, want 1", len(songs))
	}
}

func TestMonotonicIDsAcrossDelete(t *testing.T) {
	d := New()

	idA, _ := d.AddSong(nil, "a")
	idB, _ := d.AddSong(nil, "b")
	d.DeleteSong(idB)
	idC, err := d.AddSong(nil, "c")
	if err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}

	if idA != 0 || idB != 1 || idC != 2 {
		t.Errorf("IDs = %d, %d, %d, want 0, 1, 2", idA, idB, idC)
	}
}

func TestDeleteSong(t *testing.T) {
	d := New()

	shared := key(100, 200, 5)
	only := key(7, 8, 2)

	idA, _ := d.AddSong(seqOf(
		models.Fingerprint{Key: shared, AnchorTime: 10},
		models.Fingerprint{Key: only, AnchorTime: 3},
	), "a")
	idB, _ := d.AddSong(seqOf(
		models.Fingerprint{Key: shared, AnchorTime: 50},
	), "b")

	d.DeleteSong(idA)

	if got := d.Lookup(only); got != nil {
		t.Errorf("hash held only by deleted song still resolves: %v", got)
	}
	want := []models.Posting{{SongID: idB, AnchorTime: 50}}
	if got := d.Lookup(shared); !reflect.DeepEqual(got, want) {
		t.Errorf("shared hash = %v, want %v", got, want)
	}
	if _, ok := d.SongName(idA); ok {
		t.Error("deleted song still has a name entry")
	}
	if _, ok := d.SongName(idB); !ok {
		t.Error("surviving song lost its name entry")
	}

	// Deleting an unknown ID is a no-op.
	d.DeleteSong(999)
}

func TestSongsOrderedByID(t *testing.T) {
	d := New()
	for _, name := range []string{"c", "a", "b"} {
		if _, err := d.AddSong(nil, name); err != nil {
			t.Fatalf("AddSong(%q) failed: %v", name, err)
		}
	}

	songs := d.Songs()
	want := []models.Song{{ID: 0, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	if !reflect.DeepEqual(songs, want) {
		t.Errorf("Songs = %v, want %v", songs, want)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	d := New()
	d.AddSong(seqOf(
		models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 4},
		models.Fingerprint{Key: key(5, 6, 7), AnchorTime: 8},
	), "a")
	d.AddSong(seqOf(
		models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 9},
	), "b")

	snap := d.Snapshot()

	restored := New()
	restored.Restore(snap)

	for _, k := range []models.FingerprintKey{key(1, 2, 3), key(5, 6, 7)} {
		if got, want := restored.Lookup(k), d.Lookup(k); !reflect.DeepEqual(got, want) {
			t.Errorf("Lookup(%v) = %v, want %v", k, got, want)
		}
	}
	if !reflect.DeepEqual(restored.Songs(), d.Songs()) {
		t.Errorf("Songs = %v, want %v", restored.Songs(), d.Songs())
	}

	// The allocator cursor must survive: the next ID continues, never reuses.
	id, err := restored.AddSong(nil, "c")
	if err != nil {
		t.Fatalf("AddSong after restore failed: %v", err)
	}
	if id != 2 {
		t.Errorf("next ID after restore = %d, want 2", id)
	}

	// Snapshot must be a deep copy: mutating the original cannot leak in.
	d.DeleteSong(0)
	if got := restored.Lookup(key(5, 6, 7)); len(got) != 1 {
		t.Errorf("restored database shares state with original: %v", got)
	}
}

func TestNumPostings(t *testing.T) {
	d := New()
	d.AddSong(seqOf(
		models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 0},
		models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 1},
		models.Fingerprint{Key: key(4, 5, 6), AnchorTime: 2},
	), "a")

	if got := d.NumPostings(); got != 3 {
		t.Errorf("NumPostings = %d, want 3", got)
	}
}

func TestConcurrentReadsDuringWrite(t *testing.T) {
	d := New()
	d.AddSong(seqOf(models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 0}), "base")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Lookup(key(1, 2, 3))
				d.SongName(0)
				d.Match(seqOf(models.Fingerprint{Key: key(1, 2, 3), AnchorTime: 0}))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.AddSong(seqOf(models.Fingerprint{Key: key(1, 2, 4), AnchorTime: 5}), "writer")
		d.DeleteSong(1)
	}()
	wg.Wait()

	// The base song must be untouched by the concurrent add/delete pair.
	if name, ok := d.SongName(0); !ok || name != "base" {
		t.Errorf("SongName(0) = %q, %v", name, ok)
	}
}
