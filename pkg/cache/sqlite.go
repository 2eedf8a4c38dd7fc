package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteCache stores entries in a single-file SQLite database.
// It suits a lone server process that should keep its cache across restarts.
type SQLiteCache struct {
	db *gorm.DB
}

type sqliteEntry struct {
	Key       string     `gorm:"column:key;primaryKey"`
	Data      []byte     `gorm:"column:data"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
}

func (sqliteEntry) TableName() string { return "provider_cache" }

// NewSQLiteCache opens (or creates) the database at path and migrates the schema.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&sqliteEntry{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get retrieves a value from the database.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row sqliteEntry
	err := c.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if row.ExpiresAt != nil && expired(*row.ExpiresAt, time.Now()) {
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}
	return row.Data, true, nil
}

// Set upserts the row for key.
func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	row := sqliteEntry{Key: key, Data: data}
	if exp := expiry(time.Now(), ttl); !exp.IsZero() {
		row.ExpiresAt = &exp
	}

	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&row).Error
}

// Delete removes the row for key.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	return c.db.WithContext(ctx).Where("key = ?", key).Delete(&sqliteEntry{}).Error
}

// Close closes the database handle.
func (c *SQLiteCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure SQLiteCache implements Cache.
var _ Cache = (*SQLiteCache)(nil)
