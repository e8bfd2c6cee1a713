package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SpiritWalker84/trivia-web/internal/byteutil"
	"github.com/SpiritWalker84/trivia-web/internal/database"
	"github.com/SpiritWalker84/trivia-web/internal/database/sessionstate/model"
	bolt "go.etcd.io/bbolt"
)

const bucket = "sessions"

var (
	ErrEntryNotFound  = fmt.Errorf("not found")
	ErrBucketNotFound = fmt.Errorf("bucket not found")
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Add upserts the state keyed by user id.
func (db *DB) Add(s model.State) error {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("create bucket if not exists: %w", err)
	}

	bytes, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	if err := b.Put(byteutil.EncodeInt64ToBytes(s.UserID), bytes); err != nil {
		return fmt.Errorf("put to bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (db *DB) Fetch(userID int64) (model.State, error) {
	var s model.State
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrEntryNotFound
		}

		bytes := b.Get(byteutil.EncodeInt64ToBytes(userID))
		if len(bytes) == 0 {
			return ErrEntryNotFound
		}

		if err := json.Unmarshal(bytes, &s); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return s, err
		}
		return s, fmt.Errorf("view transaction error: %w", err)
	}

	return s, nil
}

func (db *DB) FetchAll() ([]model.State, error) {
	var list []model.State

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrEntryNotFound
		}

		if err := b.ForEach(func(k, v []byte) error {
			var s model.State
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, s)
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) Remove(userID int64) error {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return ErrBucketNotFound
	}

	if err := b.Delete(byteutil.EncodeInt64ToBytes(userID)); err != nil {
		return fmt.Errorf("delete from bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (db *DB) Clean() error {
	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	if err := tx.DeleteBucket([]byte(bucket)); err != nil {
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return ErrBucketNotFound
		}
		return fmt.Errorf("delete bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
