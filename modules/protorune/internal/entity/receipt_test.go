package entity

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

func TestReceiptBytes(t *testing.T) {
	receipt := Receipt{
		TxHash: chainhash.DoubleHashH([]byte("tx")),
		Vout:   3,
		RuneId: runes.RuneId{Block: 840000, Tx: 7},
		Amount: uint128.New(5, 1),
		Sender: "bc1qsender",
	}
	decoded, err := ReceiptFromBytes(receipt.Bytes())
	require.NoError(t, err)
	assert.Equal(t, receipt, decoded)

	t.Run("no_sender", func(t *testing.T) {
		receipt := receipt
		receipt.Sender = ""
		decoded, err := ReceiptFromBytes(receipt.Bytes())
		require.NoError(t, err)
		assert.Equal(t, receipt, decoded)
	})
	t.Run("short", func(t *testing.T) {
		_, err := ReceiptFromBytes(receipt.Bytes()[:10])
		assert.ErrorIs(t, err, errs.InternalError)
	})
}

func TestProposalBytes(t *testing.T) {
	proposal := Proposal{
		Height:  840123,
		TxIndex: 12,
		TxHash:  chainhash.DoubleHashH([]byte("proposal")),
		Vout:    4,
		Payload: [2]uint128.Uint128{uint128.From64(3), uint128.Max},
		Content: []byte("raise the threshold"),
	}
	decoded, err := ProposalFromBytes(proposal.Bytes())
	require.NoError(t, err)
	assert.Equal(t, proposal, decoded)

	t.Run("no_content", func(t *testing.T) {
		proposal := proposal
		proposal.Content = nil
		decoded, err := ProposalFromBytes(proposal.Bytes())
		require.NoError(t, err)
		assert.Equal(t, proposal, decoded)
	})
	t.Run("short", func(t *testing.T) {
		_, err := ProposalFromBytes(proposal.Bytes()[:20])
		assert.ErrorIs(t, err, errs.InternalError)
	})
}
