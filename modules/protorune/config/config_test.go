package config

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

func TestProtocolTags(t *testing.T) {
	t.Run("parse_and_dedupe", func(t *testing.T) {
		tags, err := Config{Protocols: []string{"1", "340282366920938463463374607431768211455", "1"}}.ProtocolTags()
		require.NoError(t, err)
		assert.Equal(t, []uint128.Uint128{uint128.From64(1), uint128.Max}, tags)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := Config{Protocols: []string{"abc"}}.ProtocolTags()
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})
	t.Run("zero_reserved", func(t *testing.T) {
		_, err := Config{Protocols: []string{"0"}}.ProtocolTags()
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})
	t.Run("empty", func(t *testing.T) {
		tags, err := Config{}.ProtocolTags()
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestFederationRuneId(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		id, err := Config{Federation: FederationConfig{Rune: "840000:12"}}.FederationRuneId()
		require.NoError(t, err)
		assert.Equal(t, runes.RuneId{Block: 840000, Tx: 12}, id)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := Config{Federation: FederationConfig{Rune: "840000"}}.FederationRuneId()
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})
}
