// Package kv provides the byte-keyed storage the indexer persists its tables in,
// and hierarchical pointers to address values within it.
package kv

import (
	"context"
)

// Store is a flat byte-keyed key-value store.
// Get returns errs.NotFound when the key is absent.
type Store interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Close() error
}

// Entry is a single pending write. A nil Value deletes the key.
type Entry struct {
	Key   []byte
	Value []byte
}

// Batcher is implemented by stores that can apply several writes atomically.
type Batcher interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

// writeEntries applies entries through Batcher if the store supports it.
func writeEntries(ctx context.Context, store Store, entries []Entry) error {
	if batcher, ok := store.(Batcher); ok {
		return batcher.WriteBatch(ctx, entries)
	}
	for _, entry := range entries {
		var err error
		if entry.Value == nil {
			err = store.Delete(ctx, entry.Key)
		} else {
			err = store.Put(ctx, entry.Key, entry.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
