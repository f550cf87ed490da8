package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend implements the catalog over any gorm dialector. The sqlite and
// postgres backends wrap it via composition; the only driver-specific
// concern is opening the connection.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend wraps an open gorm connection.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Init migrates the schema.
func (b *GormBackend) Init() error {
	if err := b.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrating catalog schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Put upserts on the path column, keeping the row id stable across re-index
// runs.
func (b *GormBackend) Put(r *Record) error {
	return b.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"game_version", "save_version", "num_players",
			"map_width", "map_height", "duration_ms", "operations",
			"header", "indexed_at",
		}),
	}).Create(r).Error
}

func (b *GormBackend) Get(path string) (*Record, error) {
	var r Record
	err := b.db.Where("path = ?", path).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (b *GormBackend) List() ([]Record, error) {
	var out []Record
	if err := b.db.Order("path").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (b *GormBackend) Delete(path string) error {
	return b.db.Where("path = ?", path).Delete(&Record{}).Error
}
