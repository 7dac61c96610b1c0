package protorune

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
	"github.com/subfrost/runicbtcfederation/common"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/indexer"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/constants"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

var _ indexer.Processor[*types.Block] = (*Processor)(nil)

type Processor struct {
	protoruneDg   datagateway.ProtoruneDataGateway
	indexerInfoDg datagateway.IndexerInfoDataGateway
	network       common.Network
	chainParams   *chaincfg.Params
	genesisHeight uint64
	protocols     []uint128.Uint128
	allowed       map[uint128.Uint128]struct{}
	handlers      map[uint128.Uint128]MessageHandler
	receipts      bool
	payments      bool
	cleanupFuncs  []func(context.Context) error
}

type Option func(*Processor)

// WithProtocols sets the allow-list of protocol tags whose protostones are honored.
func WithProtocols(tags ...uint128.Uint128) Option {
	return func(p *Processor) {
		for _, tag := range tags {
			if _, ok := p.allowed[tag]; ok {
				continue
			}
			p.allowed[tag] = struct{}{}
			p.protocols = append(p.protocols, tag)
		}
	}
}

// WithHandler registers the message handler of protocol tag.
func WithHandler(tag uint128.Uint128, handler MessageHandler) Option {
	return func(p *Processor) {
		p.handlers[tag] = handler
	}
}

func WithReceipts(enabled bool) Option {
	return func(p *Processor) {
		p.receipts = enabled
	}
}

// WithPayments enables the per-height index of BTC paid to each address by each funding address.
func WithPayments(enabled bool) Option {
	return func(p *Processor) {
		p.payments = enabled
	}
}

// WithGenesisHeight overrides the network's genesis height.
func WithGenesisHeight(height uint64) Option {
	return func(p *Processor) {
		p.genesisHeight = height
	}
}

func WithCleanupFuncs(funcs ...func(context.Context) error) Option {
	return func(p *Processor) {
		p.cleanupFuncs = append(p.cleanupFuncs, funcs...)
	}
}

func NewProcessor(protoruneDg datagateway.ProtoruneDataGateway, indexerInfoDg datagateway.IndexerInfoDataGateway, network common.Network, opts ...Option) *Processor {
	p := &Processor{
		protoruneDg:   protoruneDg,
		indexerInfoDg: indexerInfoDg,
		network:       network,
		chainParams:   network.ChainParams(),
		genesisHeight: constants.GenesisHeight[network],
		allowed:       make(map[uint128.Uint128]struct{}),
		handlers:      make(map[uint128.Uint128]MessageHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) VerifyStates(ctx context.Context) error {
	if err := p.ensureValidState(ctx); err != nil {
		return errors.Wrap(err, "error during ensureValidState")
	}
	return nil
}

func (p *Processor) ensureValidState(ctx context.Context) error {
	state, err := p.indexerInfoDg.GetIndexerState(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "failed to get indexer state")
		}
		if err := p.indexerInfoDg.SetIndexerState(ctx, entity.IndexerState{
			DBVersion: constants.DBVersion,
			Network:   p.network,
		}); err != nil {
			return errors.Wrap(err, "failed to set indexer state")
		}
		return nil
	}
	if state.DBVersion != constants.DBVersion {
		return errors.Wrapf(errs.InvalidArgument, "db version mismatch: current version is %d. Please upgrade to version %d", state.DBVersion, constants.DBVersion)
	}
	if state.Network != p.network {
		return errors.Wrapf(errs.InvalidArgument, "network mismatch: latest indexed network is %q, configured network is %q. If you want to change the network, please reset the database", state.Network, p.network)
	}
	return nil
}

var genesisRuneId = runes.RuneId{Block: 1, Tx: 0}

// etchGenesisRune registers UNCOMMON•GOODS in the base table, once.
func (p *Processor) etchGenesisRune(ctx context.Context, table datagateway.RuneTableDataGateway) error {
	_, err := table.GetRuneEntryByRuneId(ctx, genesisRuneId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get genesis rune entry")
	}
	entry := &runes.RuneEntry{
		RuneId:        genesisRuneId,
		SpacedRune:    runes.NewSpacedRune(runes.NewRune(2055900680524219742), 0b10000000),
		Divisibility:  1,
		Symbol:        '⧉',
		EtchingHeight: p.genesisHeight,
		Terms: &runes.Terms{
			Amount:    lo.ToPtr(uint128.From64(1)),
			Cap:       &uint128.Max,
			OffsetEnd: lo.ToPtr(uint64(common.HalvingInterval)),
		},
		MintsRemaining: uint128.Max,
	}
	if err := table.CreateRuneEntry(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to create genesis rune entry")
	}
	return nil
}

func (p *Processor) Name() string {
	return "protorune"
}

func (p *Processor) CurrentBlock(ctx context.Context) (types.BlockHeader, error) {
	blockHeader, err := p.protoruneDg.GetLatestBlock(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			if header, ok := constants.StartingBlockHeader[p.network]; ok {
				return header, nil
			}
		}
		return types.BlockHeader{}, errors.Wrap(err, "failed to get latest block")
	}
	return blockHeader, nil
}

// GetIndexedBlock returns a types.BlockHeader with only Height, Hash and PrevBlock populated.
func (p *Processor) GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error) {
	block, err := p.protoruneDg.GetIndexedBlockByHeight(ctx, height)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to get indexed block")
	}
	return types.BlockHeader{
		Height:    block.Height,
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
	}, nil
}

// RevertData is not supported: blocks must be replayed in strictly increasing height order.
func (p *Processor) RevertData(ctx context.Context, from int64) error {
	return errors.Wrapf(errs.Unsupported, "cannot revert protorune tables to height %d, reindex from scratch", from)
}

func (p *Processor) Shutdown(ctx context.Context) error {
	var errList []error
	for _, cleanup := range p.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

func (p *Processor) handler(tag uint128.Uint128) MessageHandler {
	if handler, ok := p.handlers[tag]; ok {
		return handler
	}
	return RecordingHandler{}
}

func (p *Processor) isAllowed(tag uint128.Uint128) bool {
	_, ok := p.allowed[tag]
	return ok
}

// addressOf returns the encoded address of pkScript, or "" if it has none.
func (p *Processor) addressOf(ctx context.Context, pkScript []byte) string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, p.chainParams)
	if err != nil {
		logger.DebugContext(ctx, "can't extract address from pkScript", slogx.Error(err))
		return ""
	}
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0].EncodeAddress()
}
