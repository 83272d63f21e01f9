package database

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tkwin-games/tkwin/internal/bytespool"
	"github.com/tkwin-games/tkwin/internal/database"
	"github.com/tkwin-games/tkwin/internal/database/bout/model"
	bolt "go.etcd.io/bbolt"
)

const bucket = "bouts"

func New(db *database.DB) *DB {
	return &DB{bDB: db}
}

type DB struct {
	bDB *database.DB
}

func (db *DB) Add(m model.Bout) error {
	tx, err := db.bDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() //nolint

	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("can not create bucket %s: %w", bucket, err)
	}

	binaryID, err := m.ID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("uuid binary: %w", err)
	}

	buf := bytespool.Get()
	defer func() {
		buf.Reset()
		bytespool.Put(buf)
	}()

	// the buffer must outlive the commit, bolt reads values on commit
	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(binaryID, buf.Bytes()); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// FetchAll returns every archived bout, oldest first.
func (db *DB) FetchAll() ([]model.Bout, error) {
	var list []model.Bout
	if err := db.bDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var m model.Bout
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			id, err := uuid.FromBytes(k)
			if err != nil {
				return fmt.Errorf("decode key: %w", err)
			}
			m.ID = id
			list = append(list, m)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (db *DB) FetchByMatch(matchID string) ([]model.Bout, error) {
	all, err := db.FetchAll()
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	var list []model.Bout
	for _, m := range all {
		if m.MatchID == matchID {
			list = append(list, m)
		}
	}
	if len(list) == 0 {
		return nil, database.ErrNotFound
	}
	return list, nil
}
