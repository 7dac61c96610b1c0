package kv

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/internal/kv"
)

const paymentsKey = "/payments/"

// payments points to the senders list of recipient at height. The values of each sender
// live under "<senders>/<sender>".
func (r *Repository) payments(height uint64, recipient string) kv.Pointer {
	return r.pointer(paymentsKey).SelectUint64(height).Keyword("/" + recipient)
}

func (r *Repository) AppendPayment(ctx context.Context, height uint64, recipient, sender string, value uint64) error {
	senders := r.payments(height, recipient)
	values := senders.Keyword("/" + sender)
	length, err := values.Length(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if length == 0 {
		if err := senders.Append(ctx, []byte(sender)); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(values.Append(ctx, binary.LittleEndian.AppendUint64(nil, value)))
}

func (r *Repository) GetPaymentSenders(ctx context.Context, height uint64, recipient string) ([]string, error) {
	items, err := r.payments(height, recipient).List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	senders := make([]string, 0, len(items))
	for _, item := range items {
		senders = append(senders, string(item))
	}
	return senders, nil
}

func (r *Repository) GetPayments(ctx context.Context, height uint64, recipient, sender string) ([]uint64, error) {
	items, err := r.payments(height, recipient).Keyword("/" + sender).List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	values := make([]uint64, 0, len(items))
	for _, item := range items {
		if len(item) != 8 {
			return nil, errors.Wrapf(errs.InternalError, "payment value has %d bytes, expected 8", len(item))
		}
		values = append(values, binary.LittleEndian.Uint64(item))
	}
	return values, nil
}
