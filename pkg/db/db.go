package db

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/orchard/pkg/model"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var).
	// postgres:// and postgresql:// URLs use the postgres driver; sqlite://
	// and file: URLs use sqlite.
	URL string
	// LogLevel is the application log level; "debug" turns on SQL logging
	LogLevel string
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	logMode := logger.Silent
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logMode = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	}

	dialector, err := dialectorFor(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if IsSQLite(dbURL) {
		if err := prepareSQLite(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func dialectorFor(dbURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), nil
	case IsSQLite(dbURL):
		return sqlite.Open(sqliteDSN(dbURL)), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %q", schemeOf(dbURL))
	}
}

// IsSQLite reports whether the URL selects the sqlite driver.
func IsSQLite(dbURL string) bool {
	return strings.HasPrefix(dbURL, "sqlite://") || strings.HasPrefix(dbURL, "file:")
}

func sqliteDSN(dbURL string) string {
	if strings.HasPrefix(dbURL, "sqlite://") {
		return strings.TrimPrefix(dbURL, "sqlite://")
	}
	return dbURL
}

// prepareSQLite turns on foreign keys (off by default in sqlite, and per
// connection) and creates the schema. golang-migrate's SQL files target
// postgres, so sqlite databases are migrated from the models instead.
func prepareSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	// In-memory databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

func schemeOf(dbURL string) string {
	if i := strings.Index(dbURL, "://"); i > 0 {
		return dbURL[:i]
	}
	return dbURL
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
