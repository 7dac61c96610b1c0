package kv

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

var (
	_ Store   = (*BadgerStore)(nil)
	_ Batcher = (*BadgerStore)(nil)
)

// BadgerStore is a Store on a Badger database.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database at path. An empty path opens an in-memory database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, errors.Wrapf(err, "badger database at %q is locked by another process", path)
		}
		return nil, errors.Wrapf(err, "failed to open badger database at %q", path)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(_ context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.WithStack(errs.NotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "badger get")
	}
	return value, nil
}

func (b *BadgerStore) Put(_ context.Context, key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return errors.Wrap(err, "badger put")
}

func (b *BadgerStore) Delete(_ context.Context, key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return errors.Wrap(err, "badger delete")
}

// WriteBatch applies entries through a Badger write batch, which splits
// oversized blocks into several internal transactions.
func (b *BadgerStore) WriteBatch(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, entry := range entries {
		var err error
		if entry.Value == nil {
			err = wb.Delete(entry.Key)
		} else {
			err = wb.Set(entry.Key, entry.Value)
		}
		if err != nil {
			return errors.Wrap(err, "badger write batch")
		}
	}
	return errors.Wrap(wb.Flush(), "badger flush batch")
}

func (b *BadgerStore) Close() error {
	return errors.WithStack(b.db.Close())
}
