package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// checkpointRecord is the database row for one checkpoint version.
type checkpointRecord struct {
	ID        string `gorm:"primaryKey;size:128"`
	RunID     string `gorm:"index:idx_run_version,unique,priority:1;size:64;not null"`
	Version   int    `gorm:"index:idx_run_version,unique,priority:2;not null"`
	Position  string `gorm:"size:64;not null"`
	Status    string `gorm:"size:16;not null"`
	State     []byte `gorm:"type:blob"`
	LastError string
	CreatedAt time.Time
}

func (checkpointRecord) TableName() string {
	return "run_checkpoints"
}

// GormStore persists checkpoints in a SQL database, giving completed runs a
// durable archive that outlives the process.
type GormStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dsn and migrates
// the checkpoint table.
func NewSQLiteStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing gorm DB and migrates the checkpoint table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&checkpointRecord{}); err != nil {
		return nil, fmt.Errorf("migrate checkpoints: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, cp *Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	rec := &checkpointRecord{
		ID:        cp.ID,
		RunID:     cp.RunID,
		Version:   cp.Version,
		Position:  cp.Position,
		Status:    string(cp.Status),
		State:     stateJSON,
		LastError: cp.LastError,
		CreatedAt: cp.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *GormStore) LoadLatest(ctx context.Context, runID string) (*Checkpoint, error) {
	var rec checkpointRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("version DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("load latest checkpoint: %w", err)
	}
	return recordToCheckpoint(&rec)
}

func (s *GormStore) LoadVersion(ctx context.Context, runID string, version int) (*Checkpoint, error) {
	var rec checkpointRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND version = ?", runID, version).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint version: %w", err)
	}
	return recordToCheckpoint(&rec)
}

func (s *GormStore) ListVersions(ctx context.Context, runID string) ([]*Checkpoint, error) {
	var recs []checkpointRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("version ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	out := make([]*Checkpoint, 0, len(recs))
	for i := range recs {
		cp, err := recordToCheckpoint(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, runID string) error {
	return s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&checkpointRecord{}).Error
}

func recordToCheckpoint(rec *checkpointRecord) (*Checkpoint, error) {
	var state State
	if len(rec.State) > 0 {
		if err := json.Unmarshal(rec.State, &state); err != nil {
			return nil, fmt.Errorf("unmarshal state: %w", err)
		}
	}
	return &Checkpoint{
		ID:        rec.ID,
		RunID:     rec.RunID,
		Version:   rec.Version,
		Position:  rec.Position,
		Status:    RunStatus(rec.Status),
		State:     &state,
		LastError: rec.LastError,
		CreatedAt: rec.CreatedAt,
	}, nil
}
