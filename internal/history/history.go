// Package history persists one record per completed search run, so the
// dashboard can show what ran, when, and how it went.
package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record is one completed search run.
type Record struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	SearchKey     string `gorm:"index" json:"search_key"`
	Query         string `json:"query"`
	Country       string `json:"country"`
	Status        string `json:"status"`
	ResultCount   int    `json:"result_count"`
	RejectedCount int    `json:"rejected_count"`
	Error         string `json:"error,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName sets the table name.
func (Record) TableName() string {
	return "search_runs"
}

// Store wraps the run-log database.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the SQLite run log at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordRun appends one run record.
func (s *Store) RecordRun(ctx context.Context, rec Record) error {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent run records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	return records, nil
}
