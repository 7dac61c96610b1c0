package protorune

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/core/types"
)

func payValue(t *testing.T, addr btcutil.Address, value int64) *types.TxOut {
	t.Helper()
	out := payTo(t, addr)
	out.Value = value
	return out
}

func TestPayments(t *testing.T) {
	alice, bob, carol, dave := testAddress(t, 1), testAddress(t, 2), testAddress(t, 3), testAddress(t, 4)

	// pay spends 10000 from alice and 3000 from bob, paying 6000 to carol and 5000 to dave
	pay := func(c *testChain) *types.Transaction {
		c.t.Helper()
		funding := c.tx(nil, payValue(c.t, alice, 10000), payValue(c.t, bob, 3000))
		c.mine(funding)
		tx := c.tx([]wire.OutPoint{funding.OutPoint(0), funding.OutPoint(1)},
			payValue(c.t, carol, 6000),
			payValue(c.t, dave, 5000),
		)
		c.mine(tx)
		return tx
	}

	t.Run("inputs_fund_outputs_in_order", func(t *testing.T) {
		c := newTestChain(t, WithPayments(true))
		pay(c)
		height := uint64(c.height)

		senders, err := c.repo.GetPaymentSenders(c.ctx, height, carol.EncodeAddress())
		require.NoError(t, err)
		assert.Equal(t, []string{alice.EncodeAddress()}, senders)
		values, err := c.repo.GetPayments(c.ctx, height, carol.EncodeAddress(), alice.EncodeAddress())
		require.NoError(t, err)
		assert.Equal(t, []uint64{6000}, values)

		senders, err = c.repo.GetPaymentSenders(c.ctx, height, dave.EncodeAddress())
		require.NoError(t, err)
		assert.Equal(t, []string{alice.EncodeAddress(), bob.EncodeAddress()}, senders)
		values, err = c.repo.GetPayments(c.ctx, height, dave.EncodeAddress(), bob.EncodeAddress())
		require.NoError(t, err)
		assert.Equal(t, []uint64{5000}, values)
	})
	t.Run("unknown_inputs_fund_nothing", func(t *testing.T) {
		c := newTestChain(t, WithPayments(true))
		pay(c)

		// the funding tx spends an outpoint that was never indexed
		senders, err := c.repo.GetPaymentSenders(c.ctx, uint64(c.height-1), alice.EncodeAddress())
		require.NoError(t, err)
		assert.Empty(t, senders)
	})
	t.Run("disabled", func(t *testing.T) {
		c := newTestChain(t)
		pay(c)

		senders, err := c.repo.GetPaymentSenders(c.ctx, uint64(c.height), carol.EncodeAddress())
		require.NoError(t, err)
		assert.Empty(t, senders)
	})
}
