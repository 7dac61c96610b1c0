package protorune

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

var (
	protocolOne = uint128.From64(1)
	protocolTwo = uint128.From64(20_000_000)
)

func burnStone(tag uint128.Uint128, pointer uint32) runes.Protostone {
	fields := make(runes.Fields)
	fields.Add(runes.TagProtoBurn, tag)
	fields.Add(runes.TagProtoPointer, uint128.From64(uint64(pointer)))
	return runes.Protostone{ProtocolTag: tag, Fields: fields}
}

func messageStone(tag uint128.Uint128, calldata []byte, pointer, refund uint32, edicts ...runes.Edict) runes.Protostone {
	fields := make(runes.Fields)
	fields.Add(runes.TagProtoMessage, runes.PackBytes(calldata)...)
	fields.Add(runes.TagProtoPointer, uint128.From64(uint64(pointer)))
	fields.Add(runes.TagProtoRefund, uint128.From64(uint64(refund)))
	return runes.Protostone{ProtocolTag: tag, Fields: fields, Edicts: edicts}
}

// protoburn moves the whole balance of id at outPoint into the table of tag, at output 0 of the returned tx.
func (c *testChain) protoburn(outPoint wire.OutPoint, id runes.RuneId, amount uint64, tag uint128.Uint128) *types.Transaction {
	c.t.Helper()
	tx := c.tx([]wire.OutPoint{outPoint},
		payTo(c.t, testAddress(c.t, 1)),
		runestoneOut(c.t, runes.Runestone{
			Edicts:    []runes.Edict{{Id: id, Amount: u128(amount), Output: 1}},
			Protorune: runes.EncodeProtostones([]runes.Protostone{burnStone(tag, 0)}),
		}),
	)
	c.mine(tx)
	return tx
}

func TestProtoburn(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		c := newTestChain(t, WithProtocols(protocolOne))
		etching, id := c.etch("TESTTESTTESTTEST", 1000, nil)
		tx := c.protoburn(etching.OutPoint(0), id, 1000, protocolOne)

		proto := c.repo.Protocol(protocolOne)
		assert.Equal(t, u128(1000), c.sheet(proto, tx, 0).Get(id))
		assert.True(t, c.sheet(c.repo.Base(), tx, 0).IsEmpty())

		base := c.entry(c.repo.Base(), id)
		migrated := c.entry(proto, id)
		assert.Equal(t, &runes.RuneEntry{
			RuneId:        base.RuneId,
			SpacedRune:    base.SpacedRune,
			Divisibility:  base.Divisibility,
			Symbol:        base.Symbol,
			EtchingHeight: base.EtchingHeight,
		}, migrated)

		etchings, err := proto.GetEtchings(c.ctx)
		require.NoError(t, err)
		assert.Equal(t, []runes.Rune{base.SpacedRune.Rune}, etchings)
	})
	t.Run("migrates_metadata_once", func(t *testing.T) {
		c := newTestChain(t, WithProtocols(protocolOne))
		etching, id := c.etch("TESTTESTTESTTEST", 1000, nil)

		split := c.tx([]wire.OutPoint{etching.OutPoint(0)},
			payTo(t, testAddress(t, 1)),
			payTo(t, testAddress(t, 2)),
			runestoneOut(t, runes.Runestone{
				Edicts: []runes.Edict{{Id: id, Amount: u128(400), Output: 1}},
			}),
		)
		c.mine(split)
		c.protoburn(split.OutPoint(0), id, 600, protocolOne)
		c.protoburn(split.OutPoint(1), id, 400, protocolOne)

		etchings, err := c.repo.Protocol(protocolOne).GetEtchings(c.ctx)
		require.NoError(t, err)
		assert.Len(t, etchings, 1)
	})
	t.Run("multiple_runes_and_burns", func(t *testing.T) {
		c := newTestChain(t, WithProtocols(protocolOne, protocolTwo))
		etchingX, x := c.etch("XXXXXXXXXXXXXXXX", 1000, nil)
		etchingY, y := c.etch("YYYYYYYYYYYYYYYY", 1000, nil)

		tx := c.tx([]wire.OutPoint{etchingX.OutPoint(0), etchingY.OutPoint(0)},
			payTo(t, testAddress(t, 1)),
			payTo(t, testAddress(t, 2)),
			runestoneOut(t, runes.Runestone{
				Edicts: []runes.Edict{
					{Id: x, Amount: u128(100), Output: 2},
					{Id: y, Amount: u128(50), Output: 2},
					{Id: x, Amount: u128(200), Output: 2},
				},
				Protorune: runes.EncodeProtostones([]runes.Protostone{
					burnStone(protocolOne, 0),
					burnStone(protocolTwo, 1),
				}),
			}),
		)
		c.mine(tx)

		one := c.sheet(c.repo.Protocol(protocolOne), tx, 0)
		assert.Equal(t, u128(100), one.Get(x))
		assert.Equal(t, u128(50), one.Get(y))

		two := c.sheet(c.repo.Protocol(protocolTwo), tx, 1)
		assert.Equal(t, u128(200), two.Get(x))
		assert.True(t, two.Get(y).IsZero())

		// remainders stay in the base table at the default output
		base := c.sheet(c.repo.Base(), tx, 0)
		assert.Equal(t, u128(700), base.Get(x))
		assert.Equal(t, u128(950), base.Get(y))
	})
	t.Run("protocol_not_indexed", func(t *testing.T) {
		c := newTestChain(t, WithProtocols(protocolOne))
		etching, id := c.etch("TESTTESTTESTTEST", 1000, nil)
		tx := c.protoburn(etching.OutPoint(0), id, 1000, protocolTwo)

		assert.True(t, c.sheet(c.repo.Protocol(protocolTwo), tx, 0).IsEmpty())
		_, err := c.repo.Protocol(protocolTwo).GetRuneEntryByRuneId(c.ctx, id)
		assert.Error(t, err)
	})
	t.Run("cenotaph_skips_burns", func(t *testing.T) {
		c := newTestChain(t, WithProtocols(protocolOne))
		etching, id := c.etch("TESTTESTTESTTEST", 1000, nil)
		tx := c.protoburn(etching.OutPoint(0), id, 5000, protocolOne)

		assert.True(t, c.sheet(c.repo.Protocol(protocolOne), tx, 0).IsEmpty())
	})
}

func TestProtocolMessages(t *testing.T) {
	// setup burns 1000 of a rune into protocolOne and returns the outpoint holding it
	setup := func(t *testing.T, opts ...Option) (*testChain, wire.OutPoint, runes.RuneId) {
		t.Helper()
		c := newTestChain(t, append([]Option{WithProtocols(protocolOne)}, opts...)...)
		etching, id := c.etch("TESTTESTTESTTEST", 1000, nil)
		burn := c.protoburn(etching.OutPoint(0), id, 1000, protocolOne)
		return c, burn.OutPoint(0), id
	}
	// call spends outPoint with one message forwarding 400 of id, pointer 1 and refund 0
	call := func(c *testChain, outPoint wire.OutPoint, id runes.RuneId) *types.Transaction {
		c.t.Helper()
		return c.tx([]wire.OutPoint{outPoint},
			payTo(c.t, testAddress(c.t, 1)),
			payTo(c.t, testAddress(c.t, 2)),
			runestoneOut(c.t, runes.Runestone{
				Protorune: runes.EncodeProtostones([]runes.Protostone{
					messageStone(protocolOne, []byte("hello"), 1, 0, runes.Edict{Id: id, Amount: u128(400), Output: 3}),
				}),
			}),
		)
	}

	t.Run("recorded_and_accepted", func(t *testing.T) {
		c, outPoint, id := setup(t)
		tx := call(c, outPoint, id)
		c.mine(tx)

		proto := c.repo.Protocol(protocolOne)
		assert.Equal(t, u128(400), c.sheet(proto, tx, 1).Get(id))
		assert.Equal(t, u128(600), c.sheet(proto, tx, 0).Get(id))

		messages, err := proto.GetMessages(c.ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("hello")}, messages)
	})
	t.Run("rejected_refunds", func(t *testing.T) {
		var seen *MessageContext
		c, outPoint, id := setup(t, WithHandler(protocolOne, MessageHandlerFunc(func(_ context.Context, mc *MessageContext) (bool, error) {
			seen = mc
			return false, nil
		})))
		tx := call(c, outPoint, id)
		c.mine(tx)

		require.NotNil(t, seen)
		assert.Equal(t, uint32(3), seen.Vout)
		assert.Equal(t, []byte("hello"), seen.Calldata)
		assert.Equal(t, protocolOne, seen.ProtocolTag)

		proto := c.repo.Protocol(protocolOne)
		assert.Equal(t, u128(1000), c.sheet(proto, tx, 0).Get(id))
		assert.True(t, c.sheet(proto, tx, 1).IsEmpty())
	})
	t.Run("handler_error_aborts_block", func(t *testing.T) {
		c, outPoint, id := setup(t, WithHandler(protocolOne, MessageHandlerFunc(func(context.Context, *MessageContext) (bool, error) {
			return false, errors.New("boom")
		})))
		before := c.height
		tx := call(c, outPoint, id)
		require.Error(t, c.tryMine(tx))

		latest, err := c.repo.GetLatestBlock(c.ctx)
		require.NoError(t, err)
		assert.Equal(t, before, latest.Height)
		_, err = c.repo.GetOutPointOutput(c.ctx, tx.OutPoint(0))
		assert.Error(t, err, "writes of a failed block must not persist")
	})
	t.Run("edict_out_of_range_ignored", func(t *testing.T) {
		c, outPoint, id := setup(t)
		tx := c.tx([]wire.OutPoint{outPoint},
			payTo(t, testAddress(t, 1)),
			runestoneOut(t, runes.Runestone{
				Protorune: runes.EncodeProtostones([]runes.Protostone{{
					ProtocolTag: protocolOne,
					Edicts:      []runes.Edict{{Id: id, Amount: u128(1), Output: 7}},
				}}),
			}),
		)
		c.mine(tx)

		assert.Equal(t, u128(1000), c.sheet(c.repo.Protocol(protocolOne), tx, 0).Get(id))
	})
	t.Run("plain_edict", func(t *testing.T) {
		c, outPoint, id := setup(t)
		tx := c.tx([]wire.OutPoint{outPoint},
			payTo(t, testAddress(t, 1)),
			payTo(t, testAddress(t, 2)),
			runestoneOut(t, runes.Runestone{
				Pointer: lo.ToPtr(uint32(1)),
				Protorune: runes.EncodeProtostones([]runes.Protostone{{
					ProtocolTag: protocolOne,
					Edicts:      []runes.Edict{{Id: id, Amount: u128(250), Output: 0}},
				}}),
			}),
		)
		c.mine(tx)

		proto := c.repo.Protocol(protocolOne)
		assert.Equal(t, u128(250), c.sheet(proto, tx, 0).Get(id))
		assert.Equal(t, u128(750), c.sheet(proto, tx, 1).Get(id))
	})
	t.Run("implicit_transfer", func(t *testing.T) {
		c, outPoint, id := setup(t)
		tx := c.tx([]wire.OutPoint{outPoint}, opReturnOut(), payTo(t, testAddress(t, 2)))
		c.mine(tx)

		assert.Equal(t, u128(1000), c.sheet(c.repo.Protocol(protocolOne), tx, 1).Get(id))
	})
}
