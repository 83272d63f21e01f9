package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/tkwin-games/tkwin/internal/cache"
	"github.com/tkwin-games/tkwin/internal/database"
	"github.com/tkwin-games/tkwin/internal/database/tournament/model"
	"github.com/tkwin-games/tkwin/internal/logging"
	bolt "go.etcd.io/bbolt"
)

const bucket = "tournaments"

var ErrCorruptSnapshot = fmt.Errorf("corrupt snapshot")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{tDB: db, cache: cache}
}

// DB stores one JSON snapshot per tournament id. Encoded snapshots are
// cached, a save replaces the whole record in one transaction.
type DB struct {
	tDB *database.DB

	cache cache.Cache
}

func (db *DB) Save(ctx context.Context, s model.Snapshot) error {
	if s.ID == "" {
		return fmt.Errorf("save snapshot: empty tournament id")
	}

	bytes, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tx, err := db.tDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() //nolint

	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	if err := b.Put([]byte(s.ID), bytes); err != nil {
		return fmt.Errorf("put to bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(s.ID, bytes)
	}

	logging.FromContext(ctx).Named("tournament.DB").Debugf("saved %s, %d bytes", s.ID, len(bytes))
	return nil
}

func (db *DB) Load(ctx context.Context, id string) (model.Snapshot, error) {
	var s model.Snapshot
	bytes, err := db.fetch(id)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal(bytes, &s); err != nil {
		logging.FromContext(ctx).Named("tournament.DB").Errorf("decode %s: %v", id, err)
		return model.Snapshot{}, fmt.Errorf("%w %s: %v", ErrCorruptSnapshot, id, err)
	}
	if s.ID != id {
		return model.Snapshot{}, fmt.Errorf("%w %s: holds id %q", ErrCorruptSnapshot, id, s.ID)
	}

	return s, nil
}

func (db *DB) List(ctx context.Context) ([]model.Summary, error) {
	logger := logging.FromContext(ctx).Named("tournament.DB")
	var list []model.Summary
	if err := db.tDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var s model.Snapshot
			if err := json.Unmarshal(v, &s); err != nil {
				logger.Warnf("skip unreadable snapshot %s: %v", k, err)
				return nil
			}
			list = append(list, s.Summary())
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.After(list[j].SavedAt)
	})
	return list, nil
}

func (db *DB) Delete(ctx context.Context, id string) error {
	if err := db.tDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil || b.Get([]byte(id)) == nil {
			return database.ErrNotFound
		}
		return b.Delete([]byte(id))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	if db.cache != nil {
		db.cache.Delete(id)
	}
	return nil
}

func (db *DB) fetch(id string) ([]byte, error) {
	if db.cache != nil {
		if raw, ok := db.cache.Get(id); ok {
			return raw, nil
		}
	}

	var bytes []byte
	if err := db.tDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return database.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return database.ErrNotFound
		}
		bytes = append([]byte(nil), v...)
		return nil
	}); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("tournament %s: %w", id, err)
		}
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(id, bytes)
	}
	return bytes, nil
}
