package kv

import (
	"bytes"
	"context"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

var _ Store = (*Overlay)(nil)

// Overlay buffers writes on top of a base store until Commit.
// Reads see pending writes first. It is not safe for concurrent use.
type Overlay struct {
	base    Store
	pending map[string][]byte
	deleted map[string]struct{}
}

func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:    base,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, error) {
	k := string(key)
	if value, ok := o.pending[k]; ok {
		return slices.Clone(value), nil
	}
	if _, ok := o.deleted[k]; ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	value, err := o.base.Get(ctx, key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (o *Overlay) Put(_ context.Context, key, value []byte) error {
	k := string(key)
	delete(o.deleted, k)
	if value == nil {
		value = []byte{}
	}
	o.pending[k] = slices.Clone(value)
	return nil
}

func (o *Overlay) Delete(_ context.Context, key []byte) error {
	k := string(key)
	delete(o.pending, k)
	o.deleted[k] = struct{}{}
	return nil
}

// Size returns the number of buffered writes.
func (o *Overlay) Size() int {
	return len(o.pending) + len(o.deleted)
}

// Commit writes every buffered change to the base store in key order and resets the overlay.
func (o *Overlay) Commit(ctx context.Context) error {
	entries := make([]Entry, 0, o.Size())
	for k, v := range o.pending {
		entries = append(entries, Entry{Key: []byte(k), Value: v})
	}
	for k := range o.deleted {
		entries = append(entries, Entry{Key: []byte(k)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	if err := writeEntries(ctx, o.base, entries); err != nil {
		return errors.Wrap(err, "failed to commit overlay")
	}
	o.Discard()
	return nil
}

// Discard drops every buffered change.
func (o *Overlay) Discard() {
	o.pending = make(map[string][]byte)
	o.deleted = make(map[string]struct{})
}

// Close discards buffered changes. The base store stays open.
func (o *Overlay) Close() error {
	o.Discard()
	return nil
}
