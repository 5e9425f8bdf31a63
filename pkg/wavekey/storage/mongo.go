package storage

import (
	"context"
	"fmt"

	"github.com/ishaanbhide/WaveKey/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists snapshots in MongoDB: one document per posting, one
// per song, and a single meta document. Posting documents carry a save-time
// sequence number so buckets rebuild in append order on load.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type postingDoc struct {
	Seq        int64  `bson:"seq"`
	AnchorFreq int    `bson:"anchor_freq"`
	TargetFreq int    `bson:"target_freq"`
	DeltaT     int    `bson:"delta_t"`
	SongID     uint32 `bson:"song_id"`
	AnchorTime int    `bson:"anchor_time"`
}

type songDoc struct {
	ID   uint32 `bson:"_id"`
	Name string `bson:"name"`
}

type mongoMetaDoc struct {
	ID     string `bson:"_id"`
	NextID uint32 `bson:"next_id"`
}

const (
	collPostings = "postings"
	collSongs    = "songs"
	collMeta     = "meta"
)

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// Save drops the snapshot collections and rewrites them.
func (s *MongoStore) Save(ctx context.Context, snap *models.Snapshot) error {
	for _, name := range []string{collPostings, collSongs, collMeta} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("dropping %s: %w: %v", name, models.ErrPersistence, err)
		}
	}

	var seq int64
	postings := make([]any, 0, 1024)
	for key, bucket := range snap.Buckets {
		for _, p := range bucket {
			postings = append(postings, postingDoc{
				Seq:        seq,
				AnchorFreq: key.AnchorFreq,
				TargetFreq: key.TargetFreq,
				DeltaT:     key.DeltaT,
				SongID:     p.SongID,
				AnchorTime: p.AnchorTime,
			})
			seq++
		}
	}
	if len(postings) > 0 {
		if _, err := s.db.Collection(collPostings).InsertMany(ctx, postings); err != nil {
			return fmt.Errorf("inserting postings: %w: %v", models.ErrPersistence, err)
		}
	}

	songs := make([]any, 0, len(snap.Names))
	for id, name := range snap.Names {
		songs = append(songs, songDoc{ID: id, Name: name})
	}
	if len(songs) > 0 {
		if _, err := s.db.Collection(collSongs).InsertMany(ctx, songs); err != nil {
			return fmt.Errorf("inserting songs: %w: %v", models.ErrPersistence, err)
		}
	}

	_, err := s.db.Collection(collMeta).InsertOne(ctx, mongoMetaDoc{ID: "allocator", NextID: snap.NextID})
	if err != nil {
		return fmt.Errorf("inserting meta: %w: %v", models.ErrPersistence, err)
	}
	return nil
}

// Load rebuilds a snapshot from the collections. A database without the
// meta document reports ErrNoSnapshot.
func (s *MongoStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var meta mongoMetaDoc
	err := s.db.Collection(collMeta).FindOne(ctx, bson.D{{Key: "_id", Value: "allocator"}}).Decode(&meta)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("mongo store is empty: %w", models.ErrNoSnapshot)
		}
		return nil, fmt.Errorf("reading meta: %w: %v", models.ErrPersistence, err)
	}

	cur, err := s.db.Collection(collPostings).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w: %v", models.ErrPersistence, err)
	}
	var postings []postingDoc
	if err := cur.All(ctx, &postings); err != nil {
		return nil, fmt.Errorf("reading postings: %w: %v", models.ErrPersistence, err)
	}

	songCur, err := s.db.Collection(collSongs).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w: %v", models.ErrPersistence, err)
	}
	var songs []songDoc
	if err := songCur.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("reading songs: %w: %v", models.ErrPersistence, err)
	}

	snap := &models.Snapshot{
		Buckets: make(map[models.FingerprintKey][]models.Posting),
		Names:   make(map[uint32]string, len(songs)),
		NextID:  meta.NextID,
	}
	for _, doc := range postings {
		key := models.FingerprintKey{
			AnchorFreq: doc.AnchorFreq,
			TargetFreq: doc.TargetFreq,
			DeltaT:     doc.DeltaT,
		}
		snap.Buckets[key] = append(snap.Buckets[key], models.Posting{
			SongID:     doc.SongID,
			AnchorTime: doc.AnchorTime,
		})
	}
	for _, doc := range songs {
		snap.Names[doc.ID] = doc.Name
	}
	return snap, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
