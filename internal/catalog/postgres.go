package catalog

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresConfig carries the connection parameters for a postgres catalog.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// PostgresBackend persists the catalog in a shared postgres database, for
// deployments indexing recordings from more than one machine.
type PostgresBackend struct {
	*GormBackend
}

// NewPostgresBackend connects to the configured database.
func NewPostgresBackend(cfg PostgresConfig) (*PostgresBackend, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres catalog: %w", err)
	}
	return &PostgresBackend{GormBackend: NewGormBackend(db)}, nil
}
