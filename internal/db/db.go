package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sujalbistaa/anchorword/internal/logging"
)

// Open returns a GORM connection for a sqlite:// or postgres:// URL.
func Open(dbURL string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	maxOpen := 100

	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		// pgx accepts the URL form directly
		dialector = postgres.Open(dbURL)
		log.Info("Connecting to PostgreSQL database...")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		// one writer keeps sqlite from reporting "database is locked" under concurrent increments
		maxOpen = 1
		log.Info("Connecting to SQLite database", zap.String("dsn", dsn))
	default:
		return nil, fmt.Errorf("invalid database URL prefix %q: must start with 'postgres://' or 'sqlite://'", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(log),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)

	log.Info("Database connection established.")
	return db, nil
}
