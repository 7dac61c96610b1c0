package types

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMsgBlock(t *testing.T) {
	prev := chainhash.Hash{1}
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex), nil, nil))
	coinbase.AddTxOut(wire.NewTxOut(50, []byte{txscript.OP_TRUE}))

	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{2}, 3), nil, nil))
	spend.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_RETURN, txscript.OP_13}))
	spend.AddTxOut(wire.NewTxOut(10, []byte{txscript.OP_TRUE}))

	msg := wire.NewMsgBlock(wire.NewBlockHeader(1, &prev, &chainhash.Hash{}, 0, 0))
	msg.Header.Timestamp = time.Unix(1700000000, 0)
	require.NoError(t, msg.AddTransaction(coinbase))
	require.NoError(t, msg.AddTransaction(spend))

	block := ParseMsgBlock(msg, 840000)
	assert.Equal(t, msg.Header.BlockHash(), block.Header.Hash)
	assert.Equal(t, prev, block.Header.PrevBlock)
	assert.EqualValues(t, 840000, block.Header.Height)
	require.Len(t, block.Transactions, 2)

	t.Run("transaction_index", func(t *testing.T) {
		for i, tx := range block.Transactions {
			assert.EqualValues(t, i, tx.Index)
			assert.Equal(t, block.Header.Hash, tx.BlockHash)
		}
	})
	t.Run("coinbase", func(t *testing.T) {
		assert.True(t, block.Transactions[0].IsCoinbase())
		assert.False(t, block.Transactions[1].IsCoinbase())
	})
	t.Run("outputs", func(t *testing.T) {
		tx := block.Transactions[1]
		assert.True(t, tx.TxOut[0].IsOpReturn())
		assert.False(t, tx.TxOut[1].IsOpReturn())
		assert.Equal(t, wire.OutPoint{Hash: chainhash.Hash{2}, Index: 3}, tx.TxIn[0].PreviousOutPoint())
		assert.Equal(t, wire.OutPoint{Hash: spend.TxHash(), Index: 1}, tx.OutPoint(1))
	})
}
