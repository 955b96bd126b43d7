package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

const (
	// sqliteParams enables WAL and waits on locks instead of failing at once.
	sqliteParams = "_journal_mode=WAL&_busy_timeout=5000"

	slowQueryThreshold = 200 * time.Millisecond
	dirPermissions     = 0o750
)

// Store owns the single database handle for the process.
type Store struct {
	db     *gorm.DB
	path   string
	logger logger.Logger
}

// Open opens (creating if needed) the SQLite database at path. The schema
// is not touched; call InitDB before first use.
func Open(path string, log logger.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.Newf("database path is empty").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	log = log.Module(componentName)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, errors.New(err).
				Component(componentName).
				Category(errors.CategoryFileIO).
				Context("operation", "create_db_directory").
				Context("directory", dir).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(buildDSN(path)), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log.Module("gorm"), slowQueryThreshold),
	})
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to open SQLite database: %w", err), "open", errors.PriorityHigh, "db_path", path)
	}

	log.Info("database opened", logger.String("path", path))
	return &Store{db: db, path: path, logger: log}, nil
}

func buildDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotOpen
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "ping", "")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping", "")
	}
	return nil
}

// Close releases the connection pool. Safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	s.db = nil
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", "")
	}
	s.logger.Debug("database closed", logger.String("path", s.path))
	return nil
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotOpen
	}
	return s.db.WithContext(ctx), nil
}
