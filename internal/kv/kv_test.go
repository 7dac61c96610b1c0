package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get_missing_key", func(t *testing.T) {
		_, err := store.Get(ctx, []byte("missing"))
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("put_get_delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, []byte("a"), []byte{1, 2, 3}))
		value, err := store.Get(ctx, []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, value)

		require.NoError(t, store.Put(ctx, []byte("a"), []byte{4}))
		value, err = store.Get(ctx, []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte{4}, value)

		require.NoError(t, store.Delete(ctx, []byte("a")))
		_, err = store.Get(ctx, []byte("a"))
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("write_batch", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, []byte("stale"), []byte{9}))
		require.NoError(t, writeEntries(ctx, store, []Entry{
			{Key: []byte("b1"), Value: []byte{1}},
			{Key: []byte("b2"), Value: []byte{2}},
			{Key: []byte("stale")},
		}))
		value, err := store.Get(ctx, []byte("b2"))
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, value)
		_, err = store.Get(ctx, []byte("stale"))
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("returned_value_is_a_copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, []byte("c"), []byte{7}))
		value, err := store.Get(ctx, []byte("c"))
		require.NoError(t, err)
		value[0] = 8
		value, err = store.Get(ctx, []byte("c"))
		require.NoError(t, err)
		assert.Equal(t, []byte{7}, value)
	})
}

func TestStores(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		testStore(t, NewMemoryStore())
	})
	t.Run("badger", func(t *testing.T) {
		store, err := NewBadgerStore("")
		require.NoError(t, err)
		defer store.Close()
		testStore(t, store)
	})
	t.Run("bolt", func(t *testing.T) {
		store, err := NewBoltStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()
		testStore(t, store)
	})
	t.Run("leveldb", func(t *testing.T) {
		store, err := NewLevelDBStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()
		testStore(t, store)
	})
	t.Run("overlay", func(t *testing.T) {
		testStore(t, NewOverlay(NewMemoryStore()))
	})
}

func TestOverlay(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	require.NoError(t, base.Put(ctx, []byte("kept"), []byte{1}))
	require.NoError(t, base.Put(ctx, []byte("removed"), []byte{2}))

	overlay := NewOverlay(base)
	require.NoError(t, overlay.Put(ctx, []byte("added"), []byte{3}))
	require.NoError(t, overlay.Delete(ctx, []byte("removed")))

	t.Run("reads_see_pending_writes", func(t *testing.T) {
		value, err := overlay.Get(ctx, []byte("added"))
		require.NoError(t, err)
		assert.Equal(t, []byte{3}, value)
		_, err = overlay.Get(ctx, []byte("removed"))
		assert.ErrorIs(t, err, errs.NotFound)
		value, err = overlay.Get(ctx, []byte("kept"))
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, value)
	})
	t.Run("base_is_untouched_before_commit", func(t *testing.T) {
		_, err := base.Get(ctx, []byte("added"))
		assert.ErrorIs(t, err, errs.NotFound)
		assert.Equal(t, 2, overlay.Size())
	})
	t.Run("commit", func(t *testing.T) {
		require.NoError(t, overlay.Commit(ctx))
		assert.Equal(t, 0, overlay.Size())
		value, err := base.Get(ctx, []byte("added"))
		require.NoError(t, err)
		assert.Equal(t, []byte{3}, value)
		_, err = base.Get(ctx, []byte("removed"))
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("discard", func(t *testing.T) {
		require.NoError(t, overlay.Put(ctx, []byte("dropped"), []byte{4}))
		overlay.Discard()
		_, err := overlay.Get(ctx, []byte("dropped"))
		assert.ErrorIs(t, err, errs.NotFound)
	})
}
