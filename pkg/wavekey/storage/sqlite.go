package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ishaanbhide/WaveKey/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore persists snapshots into a SQLite file with one row per
// posting and per song. Postings are re-read ordered by row ID, which keeps
// each bucket's append order intact across a round trip. Buckets emptied by
// a delete are not representable as rows; lookups on them return empty
// either way, so pruning them is not observable.
type SQLiteStore struct {
	orm *gorm.DB
}

type songRow struct {
	ID   uint32 `gorm:"primaryKey;autoIncrement:false"`
	Name string
}

type postingRow struct {
	RowID      uint `gorm:"primaryKey;autoIncrement"`
	AnchorFreq int
	TargetFreq int
	DeltaT     int
	SongID     uint32
	AnchorTime int
}

type metaRow struct {
	Key   string `gorm:"primaryKey"`
	Value uint32
}

const metaNextID = "next_song_id"

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := orm.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := orm.AutoMigrate(&songRow{}, &postingRow{}, &metaRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{orm: orm}, nil
}

// Save replaces the stored snapshot inside one transaction, so readers of
// the file never see a half-written state.
func (s *SQLiteStore) Save(ctx context.Context, snap *models.Snapshot) error {
	err := s.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&postingRow{}, &songRow{}, &metaRow{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		rows := make([]postingRow, 0, 1024)
		for key, bucket := range snap.Buckets {
			for _, p := range bucket {
				rows = append(rows, postingRow{
					AnchorFreq: key.AnchorFreq,
					TargetFreq: key.TargetFreq,
					DeltaT:     key.DeltaT,
					SongID:     p.SongID,
					AnchorTime: p.AnchorTime,
				})
				if len(rows) >= 1000 {
					if err := tx.CreateInBatches(rows, 500).Error; err != nil {
						return err
					}
					rows = rows[:0]
				}
			}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return err
			}
		}

		songs := make([]songRow, 0, len(snap.Names))
		for id, name := range snap.Names {
			songs = append(songs, songRow{ID: id, Name: name})
		}
		if len(songs) > 0 {
			if err := tx.CreateInBatches(songs, 500).Error; err != nil {
				return err
			}
		}

		return tx.Create(&metaRow{Key: metaNextID, Value: snap.NextID}).Error
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w: %v", models.ErrPersistence, err)
	}
	return nil
}

// Load rebuilds a snapshot from the stored rows. A database that was never
// saved to reports ErrNoSnapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var meta metaRow
	err := s.orm.WithContext(ctx).Where("key = ?", metaNextID).First(&meta).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("sqlite store is empty: %w", models.ErrNoSnapshot)
		}
		return nil, fmt.Errorf("reading meta: %w: %v", models.ErrPersistence, err)
	}

	var rows []postingRow
	if err := s.orm.WithContext(ctx).Order("row_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading postings: %w: %v", models.ErrPersistence, err)
	}
	var songs []songRow
	if err := s.orm.WithContext(ctx).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("reading songs: %w: %v", models.ErrPersistence, err)
	}

	snap := &models.Snapshot{
		Buckets: make(map[models.FingerprintKey][]models.Posting),
		Names:   make(map[uint32]string, len(songs)),
		NextID:  meta.Value,
	}
	for _, row := range rows {
		key := models.FingerprintKey{
			AnchorFreq: row.AnchorFreq,
			TargetFreq: row.TargetFreq,
			DeltaT:     row.DeltaT,
		}
		snap.Buckets[key] = append(snap.Buckets[key], models.Posting{
			SongID:     row.SongID,
			AnchorTime: row.AnchorTime,
		})
	}
	for _, song := range songs {
		snap.Names[song.ID] = song.Name
	}
	return snap, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.orm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
