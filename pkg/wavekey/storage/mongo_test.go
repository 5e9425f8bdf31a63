package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// Set WAVEKEY_MONGO_URI to run these against a live server, e.g.
// WAVEKEY_MONGO_URI=mongodb://localhost:27017 go test ./pkg/wavekey/storage
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("WAVEKEY_MONGO_URI")
	if uri == "" {
		t.Skip("WAVEKEY_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("wavekey_test_%d", time.Now().UnixNano())
	store, err := NewMongoStore(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("NewMongoStore failed: %v", err)
	}
	t.Cleanup(func() {
		store.db.Drop(context.Background())
		store.Close()
	})
	return store
}

func TestMongoRoundTrip(t *testing.T) {
	store := newTestMongoStore(t)

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

func TestMongoEmpty(t *testing.T) {
	store := newTestMongoStore(t)
	_, err := store.Load(context.Background())
	if !errors.Is(err, models.ErrNoSnapshot) {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}
}
