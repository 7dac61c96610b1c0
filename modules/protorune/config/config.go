package config

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/internal/postgres"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

type Config struct {
	Datasource string          `mapstructure:"datasource"` // Datasource to fetch bitcoin data for Meta-Protocol e.g. `bitcoin-node`
	Database   string          `mapstructure:"database"`   // Database to store protorune tables. `badger` | `bolt` | `leveldb` | `postgres` | `memory`
	Postgres   postgres.Config `mapstructure:"postgres"`
	Badger     StoreConfig     `mapstructure:"badger"`
	Bolt       StoreConfig     `mapstructure:"bolt"`
	LevelDB    StoreConfig     `mapstructure:"leveldb"`

	// Protocols is the allow-list of protocol tags (decimal u128) whose protostones are honored.
	Protocols []string `mapstructure:"protocols"`

	// Receipts enables the per-height, per-address deposit records.
	Receipts bool `mapstructure:"receipts"`

	// Payments enables the per-height index of BTC paid to each address by each funding address.
	Payments bool `mapstructure:"payments"`

	Federation FederationConfig `mapstructure:"federation"`
}

type FederationConfig struct {
	// Rune is the id ("block:tx") of the rune that backs federation proposals.
	Rune string `mapstructure:"rune"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

func (c Config) FederationRuneId() (runes.RuneId, error) {
	id, err := runes.NewRuneIdFromString(c.Federation.Rune)
	if err != nil {
		return runes.RuneId{}, errors.Wrapf(errs.InvalidArgument, "invalid federation rune %q: %v", c.Federation.Rune, err)
	}
	return id, nil
}

// ProtocolTags parses Protocols. Duplicates are kept once, in first-seen order.
func (c Config) ProtocolTags() ([]uint128.Uint128, error) {
	tags := make([]uint128.Uint128, 0, len(c.Protocols))
	seen := make(map[uint128.Uint128]struct{}, len(c.Protocols))
	for _, s := range c.Protocols {
		tag, err := uint128.FromString(s)
		if err != nil {
			return nil, errors.Wrapf(errs.InvalidArgument, "invalid protocol tag %q: %v", s, err)
		}
		if tag.IsZero() {
			return nil, errors.Wrap(errs.InvalidArgument, "protocol tag 0 is reserved")
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}
