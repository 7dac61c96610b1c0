package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	_ Store   = (*LevelDBStore)(nil)
	_ Batcher = (*LevelDBStore)(nil)
)

// LevelDBStore is a Store on a goleveldb database.
type LevelDBStore struct {
	db *leveldb.DB
}

func NewLevelDBStore(path string) (*LevelDBStore, error) {
	if path == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open leveldb at %q", path)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Get(_ context.Context, key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.WithStack(errs.NotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "leveldb get")
	}
	return value, nil
}

func (s *LevelDBStore) Put(_ context.Context, key, value []byte) error {
	return errors.Wrap(s.db.Put(key, value, nil), "leveldb put")
}

func (s *LevelDBStore) Delete(_ context.Context, key []byte) error {
	return errors.Wrap(s.db.Delete(key, nil), "leveldb delete")
}

func (s *LevelDBStore) WriteBatch(_ context.Context, entries []Entry) error {
	batch := new(leveldb.Batch)
	for _, entry := range entries {
		if entry.Value == nil {
			batch.Delete(entry.Key)
		} else {
			batch.Put(entry.Key, entry.Value)
		}
	}
	return errors.Wrap(s.db.Write(batch, nil), "leveldb write batch")
}

func (s *LevelDBStore) Close() error {
	return errors.WithStack(s.db.Close())
}
