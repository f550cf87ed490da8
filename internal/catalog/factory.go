package catalog

import (
	"fmt"

	"github.com/siegetools/recgame/internal/config"
)

// NewBackend creates a catalog backend based on configuration.
func NewBackend() (Backend, error) {
	switch backend := config.GetString("catalog.backend"); backend {
	case "memory":
		return NewMemoryBackend(), nil
	case "sqlite":
		return NewSQLiteBackend(config.GetString("catalog.sqlitePath"))
	case "postgres":
		return NewPostgresBackend(PostgresConfig{
			Host:     config.GetString("catalog.db.host"),
			Port:     config.GetString("catalog.db.port"),
			Username: config.GetString("catalog.db.username"),
			Password: config.GetString("catalog.db.password"),
			Database: config.GetString("catalog.db.database"),
		})
	default:
		return nil, fmt.Errorf("unknown catalog backend: %s", backend)
	}
}
