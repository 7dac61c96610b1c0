package datagateway

import (
	"context"

	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
)

type IndexerInfoDataGateway interface {
	// GetIndexerState returns errs.NotFound on a fresh database.
	GetIndexerState(ctx context.Context) (entity.IndexerState, error)
	SetIndexerState(ctx context.Context, state entity.IndexerState) error
}
