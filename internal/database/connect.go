package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/config"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// Connect opens the database selected by the configuration.
func Connect(cfg config.Config) (*gorm.DB, error) {
	switch cfg.DatabaseDriver {
	case config.DatabaseDriverSQLite:
		return ConnectSQLite(cfg.DatabaseURL)
	case config.DatabaseDriverPostgres, "":
		return ConnectPostgres(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
