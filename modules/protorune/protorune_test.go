package protorune

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	protorunecfg "github.com/subfrost/runicbtcfederation/modules/protorune/config"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := openStore(ctx, protorunecfg.Config{Database: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &kv.MemoryStore{}, store)
		assert.NoError(t, store.Close())
	})
	t.Run("leveldb", func(t *testing.T) {
		store, err := openStore(ctx, protorunecfg.Config{
			Database: "leveldb",
			LevelDB:  protorunecfg.StoreConfig{Path: filepath.Join(t.TempDir(), "protorune")},
		})
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := openStore(ctx, protorunecfg.Config{Database: "mysql"})
		assert.ErrorIs(t, err, errs.Unsupported)
	})
}
