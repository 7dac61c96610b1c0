package kv

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/internal/kv"
	"github.com/subfrost/runicbtcfederation/modules/protorune/internal/entity"
)

const receiptsKey = "/receipts/"

func (r *Repository) receipts(height uint64, address string) kv.Pointer {
	return r.pointer(receiptsKey).SelectUint64(height).Keyword("/" + address)
}

func (r *Repository) AppendReceipt(ctx context.Context, height uint64, address string, receipt entity.Receipt) error {
	return errors.WithStack(r.receipts(height, address).Append(ctx, receipt.Bytes()))
}

func (r *Repository) GetReceipts(ctx context.Context, height uint64, address string) ([]entity.Receipt, error) {
	items, err := r.receipts(height, address).List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	receipts := make([]entity.Receipt, 0, len(items))
	for _, item := range items {
		receipt, err := entity.ReceiptFromBytes(item)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
