package tablecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reconciler/core/table"

	"github.com/klauspost/compress/zstd"
	"gorm.io/gorm"
)

// Store persists decoded tables.
type Store interface {
	// Load returns the table stored under id, or ok=false if there is none.
	Load(ctx context.Context, id string) (t *table.Table, ok bool, err error)
	// Save stores t under k, replacing any older entry for the same file name.
	Save(ctx context.Context, k Key, t *table.Table, size int64) error
	// Delete removes the entry stored under id. Missing entries are not an error.
	Delete(ctx context.Context, id string) error
	// Trim deletes the least recently used entries until the stored size fits maxBytes.
	Trim(ctx context.Context, maxBytes int64) (int, error)
	// Purge removes every entry.
	Purge(ctx context.Context) error
	// List describes the stored entries, most recently used first.
	List(ctx context.Context) ([]EntryInfo, error)
}

// EntryInfo describes a stored table without its payload.
type EntryInfo struct {
	CacheKey   string    `json:"key"`
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	SizeBytes  int64     `json:"size_bytes"`
	AccessedAt time.Time `json:"accessed_at"`
}

// ParsedTable is the database row holding one decoded table.
type ParsedTable struct {
	CacheKey   string    `gorm:"primaryKey;size:512"`
	Name       string    `gorm:"size:255;index"`
	ModifiedAt time.Time
	SizeBytes  int64
	Payload    []byte
	AccessedAt time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// TableName overrides the GORM table name.
func (ParsedTable) TableName() string {
	return "parsed_tables"
}

// GormStore keeps tables in a SQL database through GORM.
type GormStore struct {
	db  *gorm.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// NewGormStore migrates the parsed_tables table and returns a store over db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ParsedTable{}); err != nil {
		return nil, fmt.Errorf("failed to migrate parsed_tables: %w", err)
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &GormStore{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

// Load implements Store.
func (s *GormStore) Load(ctx context.Context, id string) (*table.Table, bool, error) {
	var row ParsedTable
	err := s.db.WithContext(ctx).Where("cache_key = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	raw, err := s.dec.DecodeAll(row.Payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress %s: %w", id, err)
	}
	var t table.Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", id, err)
	}

	if err := s.db.WithContext(ctx).Model(&ParsedTable{}).
		Where("cache_key = ?", id).
		Update("accessed_at", s.now()).Error; err != nil {
		return nil, false, err
	}

	return &t, true, nil
}

// Save implements Store.
func (s *GormStore) Save(ctx context.Context, k Key, t *table.Table, size int64) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}

	now := s.now()
	row := ParsedTable{
		CacheKey:   k.String(),
		Name:       k.Name,
		ModifiedAt: k.ModTime,
		SizeBytes:  size,
		Payload:    s.enc.EncodeAll(raw, nil),
		AccessedAt: now,
		CreatedAt:  now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ? AND cache_key <> ?", row.Name, row.CacheKey).
			Delete(&ParsedTable{}).Error; err != nil {
			return err
		}
		return tx.Save(&row).Error
	})
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("cache_key = ?", id).Delete(&ParsedTable{}).Error
}

// Trim implements Store.
func (s *GormStore) Trim(ctx context.Context, maxBytes int64) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		total int64
		drop  []string
	)
	for _, e := range entries {
		total += e.SizeBytes
		if total > maxBytes {
			drop = append(drop, e.CacheKey)
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Where("cache_key IN ?", drop).Delete(&ParsedTable{}).Error; err != nil {
		return 0, err
	}
	return len(drop), nil
}

// Purge implements Store.
func (s *GormStore) Purge(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&ParsedTable{}).Error
}

// List implements Store.
func (s *GormStore) List(ctx context.Context) ([]EntryInfo, error) {
	var entries []EntryInfo
	err := s.db.WithContext(ctx).Model(&ParsedTable{}).
		Select("cache_key, name, modified_at, size_bytes, accessed_at").
		Order("accessed_at DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
