package catalog

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteBackend persists the catalog in a single-file SQLite database.
type SQLiteBackend struct {
	*GormBackend
}

// NewSQLiteBackend opens (or creates) the database file at path. An empty
// path selects an in-memory database, used by tests.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite catalog %q: %w", path, err)
	}
	return &SQLiteBackend{GormBackend: NewGormBackend(db)}, nil
}
