package datagateway

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
)

type ProtoruneDataGateway interface {
	ProtoruneReaderDataGateway
	ProtoruneWriterDataGateway

	// Base returns the rune table of the base runes protocol.
	Base() RuneTableDataGateway
	// Protocol returns the rune table of the sub-protocol identified by tag.
	Protocol(tag uint128.Uint128) RuneTableDataGateway

	// BeginProtoruneTx returns a new ProtoruneDataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginProtoruneTx(ctx context.Context) (ProtoruneDataGatewayWithTx, error)
}

type ProtoruneDataGatewayWithTx interface {
	ProtoruneDataGateway
	Tx
}

type ProtoruneReaderDataGateway interface {
	// GetLatestBlock returns the last indexed block. Returns errs.NotFound if nothing is indexed.
	GetLatestBlock(ctx context.Context) (types.BlockHeader, error)
	// GetIndexedBlockByHeight returns errs.NotFound if the height is not indexed.
	GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error)
	// GetBlockHeightByHash returns errs.NotFound if the block is not indexed.
	GetBlockHeightByHash(ctx context.Context, hash chainhash.Hash) (int64, error)
	// GetOutPointHeight returns the height of the block that created outPoint. Returns errs.NotFound if unknown.
	GetOutPointHeight(ctx context.Context, outPoint wire.OutPoint) (uint64, error)
	// GetOutPointOutput returns the output at outPoint. Returns errs.NotFound if unknown.
	GetOutPointOutput(ctx context.Context, outPoint wire.OutPoint) (*types.TxOut, error)
	// GetReceipts returns the receipts credited to address at height, in credit order.
	GetReceipts(ctx context.Context, height uint64, address string) ([]entity.Receipt, error)
	// GetPaymentSenders returns the addresses that funded outputs paying recipient at height, in first-seen order.
	GetPaymentSenders(ctx context.Context, height uint64, recipient string) ([]string, error)
	// GetPayments returns the values of the outputs paying recipient at height that sender funded.
	GetPayments(ctx context.Context, height uint64, recipient, sender string) ([]uint64, error)
	// GetProposals returns every accepted federation proposal, in acceptance order.
	GetProposals(ctx context.Context) ([]entity.Proposal, error)
}

type ProtoruneWriterDataGateway interface {
	// CreateIndexedBlock records the block in both directions of the height/hash index and marks it as the latest block.
	CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error
	CreateOutPoint(ctx context.Context, outPoint wire.OutPoint, height uint64, output *types.TxOut) error
	AppendReceipt(ctx context.Context, height uint64, address string, receipt entity.Receipt) error
	// AppendPayment records value under recipient and sender at height, adding sender to the recipient's senders on first sight.
	AppendPayment(ctx context.Context, height uint64, recipient, sender string, value uint64) error
	CreateProposal(ctx context.Context, proposal *entity.Proposal) error
}

// RuneTableDataGateway is one namespace of rune metadata and outpoint balances.
type RuneTableDataGateway interface {
	// GetRuneIdFromRune returns the RuneId for the given rune. Returns errs.NotFound if the rune entry is not found.
	GetRuneIdFromRune(ctx context.Context, rune runes.Rune) (runes.RuneId, error)
	// GetRuneEntryByRuneId returns the RuneEntry for the given runeId. Returns errs.NotFound if the rune entry is not found.
	GetRuneEntryByRuneId(ctx context.Context, runeId runes.RuneId) (*runes.RuneEntry, error)
	// CreateRuneEntry registers entry under both directions of the name index and appends its name to the etchings log.
	CreateRuneEntry(ctx context.Context, entry *runes.RuneEntry) error
	UpdateMintsRemaining(ctx context.Context, runeId runes.RuneId, remaining uint128.Uint128) error
	// GetEtchings returns every etched name of the table, in etching order.
	GetEtchings(ctx context.Context) ([]runes.Rune, error)

	// GetBalanceSheet returns the sheet at outPoint. Missing and cenotaph sheets load as empty.
	GetBalanceSheet(ctx context.Context, outPoint wire.OutPoint) (*runes.BalanceSheet, error)
	// GetBalanceSheetWithFlag returns the sheet at outPoint as stored, with its cenotaph flag.
	GetBalanceSheetWithFlag(ctx context.Context, outPoint wire.OutPoint) (*runes.BalanceSheet, bool, error)
	SaveBalanceSheet(ctx context.Context, outPoint wire.OutPoint, sheet *runes.BalanceSheet, cenotaph bool) error

	// AppendMessage appends calldata to the table's message log.
	AppendMessage(ctx context.Context, calldata []byte) error
	GetMessages(ctx context.Context) ([][]byte, error)
}
