package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the row backing one slot in PostgreSQL.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"type:bytea;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name regardless of gorm naming strategy.
func (KVEntry) TableName() string { return "kv_entries" }

type postgresKV struct {
	gdb *gorm.DB
}

// NewPostgresKV migrates the kv_entries table and returns a store over it.
func NewPostgresKV(ctx context.Context, gdb *gorm.DB) (IKeyValueStore, error) {
	if err := gdb.WithContext(ctx).AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &postgresKV{gdb: gdb}, nil
}

func (p *postgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := p.gdb.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from PostgreSQL: %w", key, err)
	}
	return entry.Value, nil
}

func (p *postgresKV) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := p.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s to PostgreSQL: %w", key, err)
	}
	return nil
}
