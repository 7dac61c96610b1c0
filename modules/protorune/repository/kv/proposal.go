package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
)

const proposalsKey = "/proposals"

func (r *Repository) CreateProposal(ctx context.Context, proposal *entity.Proposal) error {
	return errors.WithStack(r.pointer(proposalsKey).Append(ctx, proposal.Bytes()))
}

func (r *Repository) GetProposals(ctx context.Context) ([]entity.Proposal, error) {
	items, err := r.pointer(proposalsKey).List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	proposals := make([]entity.Proposal, 0, len(items))
	for _, item := range items {
		proposal, err := entity.ProposalFromBytes(item)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}
