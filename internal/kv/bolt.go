package kv

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	bolt "go.etcd.io/bbolt"
)

var (
	_ Store   = (*BoltStore)(nil)
	_ Batcher = (*BoltStore)(nil)
)

const (
	boltFileName = "protorune.db"
	boltBucket   = "protorune"
)

// BoltStore is a Store on a single bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the bolt database file inside dir.
func NewBoltStore(dir string) (*BoltStore, error) {
	if dir == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "bolt directory path is required")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create bolt directory %q", dir)
	}
	db, err := bolt.Open(filepath.Join(dir, boltFileName), 0o660, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.Wrap(err, "cannot obtain bolt database lock, database may be in use by another process")
		}
		return nil, errors.Wrap(err, "failed to open bolt database")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create bolt bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// bolt values are only valid inside the transaction
		value = slices.Clone(tx.Bucket([]byte(boltBucket)).Get(key))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "bolt get")
	}
	if value == nil {
		return nil, errors.WithStack(errs.NotFound)
	}
	return value, nil
}

func (s *BoltStore) Put(_ context.Context, key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put(key, value)
	})
	return errors.Wrap(err, "bolt put")
}

func (s *BoltStore) Delete(_ context.Context, key []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete(key)
	})
	return errors.Wrap(err, "bolt delete")
}

func (s *BoltStore) WriteBatch(_ context.Context, entries []Entry) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))
		for _, entry := range entries {
			var err error
			if entry.Value == nil {
				err = bucket.Delete(entry.Key)
			} else {
				err = bucket.Put(entry.Key, entry.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "bolt write batch")
}

func (s *BoltStore) Close() error {
	return errors.WithStack(s.db.Close())
}
