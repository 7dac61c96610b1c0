package protorune

import (
	"bytes"
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/ordinals"
	"github.com/subfrost/runicbtcfederation/modules/protorune/runes"
	"github.com/subfrost/runicbtcfederation/pkg/logger"
	"github.com/subfrost/runicbtcfederation/pkg/logger/slogx"
)

// FederationProtocolTag is the protocol tag of federation governance messages.
var FederationProtocolTag = uint128.From64(88)

// Fields of a federation message, decoded from its calldata.
const (
	TagFederationProposal runes.Tag = 101
	TagFederationVote     runes.Tag = 103
)

// ProposalMinimum is the amount of the federation rune a message must carry to submit a proposal.
var ProposalMinimum = uint128.From64(10_000)

// ProposalPrefix starts the inscription body of every proposal.
var ProposalPrefix = []byte("FEDERATION Proposal:\n")

// InscriptionFinder returns the body of the inscription revealed by a transaction.
type InscriptionFinder interface {
	FindInscription(tx *types.Transaction) (body []byte, ok bool)
}

type InscriptionFinderFunc func(tx *types.Transaction) ([]byte, bool)

func (f InscriptionFinderFunc) FindInscription(tx *types.Transaction) ([]byte, bool) {
	return f(tx)
}

// OrdinalsInscriptions finds the first ord envelope in the taproot script-path spends of a transaction.
var OrdinalsInscriptions InscriptionFinder = InscriptionFinderFunc(func(tx *types.Transaction) ([]byte, bool) {
	inscription, ok := ordinals.FindInscription(tx)
	if !ok || inscription.Body == nil {
		return nil, false
	}
	return inscription.Body, true
})

var _ MessageHandler = (*FederationHandler)(nil)

// FederationHandler executes federation messages. A proposal is accepted when the message carries at least
// ProposalMinimum of the federation rune, its PROPOSAL field has exactly two values and the transaction
// reveals an inscription starting with ProposalPrefix. Votes are accepted and carry no state.
type FederationHandler struct {
	federationRune runes.RuneId
	inscriptions   InscriptionFinder
}

func NewFederationHandler(federationRune runes.RuneId, inscriptions InscriptionFinder) *FederationHandler {
	return &FederationHandler{
		federationRune: federationRune,
		inscriptions:   inscriptions,
	}
}

func (h *FederationHandler) Handle(ctx context.Context, mc *MessageContext) (bool, error) {
	action, err := runes.DecodeMessage(mc.Calldata)
	if err != nil {
		logger.DebugContext(ctx, "rejected federation message: invalid calldata", slogx.Error(err))
		return false, nil
	}
	switch {
	case action.Fields.Has(TagFederationProposal):
		return h.propose(ctx, mc, action.Fields[TagFederationProposal])
	case action.Fields.Has(TagFederationVote):
		logger.DebugContext(ctx, "accepted federation vote", slogx.Uint32("vout", mc.Vout))
	}
	return true, nil
}

func (h *FederationHandler) propose(ctx context.Context, mc *MessageContext, payload []uint128.Uint128) (bool, error) {
	if amount := mc.Balances.Get(h.federationRune); amount.Cmp(ProposalMinimum) < 0 {
		logger.DebugContext(ctx, "rejected federation proposal: not enough federation rune",
			slogx.RuneId(h.federationRune),
			slogx.Stringer("amount", amount),
		)
		return false, nil
	}
	body, ok := h.inscriptions.FindInscription(mc.Transaction)
	if !ok || !bytes.HasPrefix(body, ProposalPrefix) {
		logger.DebugContext(ctx, "rejected federation proposal: missing proposal inscription")
		return false, nil
	}
	if len(payload) != 2 {
		logger.DebugContext(ctx, "rejected federation proposal: payload must have two values", slogx.Int("values", len(payload)))
		return false, nil
	}

	proposal := &entity.Proposal{
		Height:  mc.Height,
		TxIndex: mc.Transaction.Index,
		TxHash:  mc.Transaction.TxHash,
		Vout:    mc.Vout,
		Payload: [2]uint128.Uint128{payload[0], payload[1]},
		Content: bytes.Clone(body[len(ProposalPrefix):]),
	}
	if err := mc.Writer.CreateProposal(ctx, proposal); err != nil {
		return false, errors.Wrap(err, "failed to save proposal")
	}
	logger.DebugContext(ctx, "accepted federation proposal", slogx.Uint32("vout", mc.Vout))
	return true, nil
}
