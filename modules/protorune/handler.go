package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

// MessageContext is one protocol message as seen by its handler.
type MessageContext struct {
	ProtocolTag uint128.Uint128
	Transaction *types.Transaction
	Height      uint64
	// Vout is the virtual output holding the message's sub-balance: the number of
	// real outputs plus the position of the message among its protocol's messages.
	Vout     uint32
	Calldata []byte
	// Balances is the sub-balance forwarded to the message. It must not be modified.
	Balances *runes.BalanceSheet
	// Table is the rune table of the message's protocol, bound to the block being indexed.
	Table datagateway.RuneTableDataGateway
	// Writer persists protocol state alongside the block being indexed.
	Writer datagateway.ProtoruneWriterDataGateway
}

// MessageHandler executes the messages of one sub-protocol.
type MessageHandler interface {
	// Handle reports whether the message is accepted. The sub-balance of an accepted message
	// goes to the message pointer, that of a rejected one to its refund output.
	// A returned error aborts the block.
	Handle(ctx context.Context, mc *MessageContext) (accepted bool, err error)
}

type MessageHandlerFunc func(ctx context.Context, mc *MessageContext) (bool, error)

func (f MessageHandlerFunc) Handle(ctx context.Context, mc *MessageContext) (bool, error) {
	return f(ctx, mc)
}

var _ MessageHandler = RecordingHandler{}

// RecordingHandler appends the calldata to the protocol table's message log and accepts every message.
// It is used for allow-listed protocols without a registered handler.
type RecordingHandler struct{}

func (RecordingHandler) Handle(ctx context.Context, mc *MessageContext) (bool, error) {
	if err := mc.Table.AppendMessage(ctx, mc.Calldata); err != nil {
		return false, errors.Wrap(err, "failed to record message")
	}
	return true, nil
}
