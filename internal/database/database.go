package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tkwin-games/tkwin/internal/logging"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by repositories when a key or bucket is missing.
var ErrNotFound = fmt.Errorf("not found")

type Config struct {
	FilePath string `envconfig:"TKWIN_DB_PATH" default:"tkwin.db"`
	// how long to wait for the file lock held by another process
	OpenTimeout time.Duration `envconfig:"TKWIN_DB_OPEN_TIMEOUT" default:"3s"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening db %s", config.FilePath)

	db, err := bolt.Open(config.FilePath, 0600, &bolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", config.FilePath, err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing db")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
