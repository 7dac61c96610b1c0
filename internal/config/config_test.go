package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common"
)

func TestParse(t *testing.T) {
	t.Run("config_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
network: regtest
bitcoin_node:
  host: localhost:18443
modules:
  protorune:
    database: memory
    protocols: ["1", "20000000"]
    receipts: true
`), 0o600))

		conf := Parse(path)
		assert.Equal(t, common.NetworkRegtest, conf.Network)
		assert.Equal(t, "localhost:18443", conf.BitcoinNode.Host)
		assert.Equal(t, "user", conf.BitcoinNode.User)
		assert.Equal(t, "memory", conf.Modules.Protorune.Database)
		assert.Equal(t, "bitcoin-node", conf.Modules.Protorune.Datasource)
		assert.Equal(t, []string{"1", "20000000"}, conf.Modules.Protorune.Protocols)
		assert.True(t, conf.Modules.Protorune.Receipts)
		assert.True(t, conf.Modules.Protorune.Payments)
		assert.Equal(t, "1:0", conf.Modules.Protorune.Federation.Rune)

		assert.Equal(t, conf, Load())
	})
}
