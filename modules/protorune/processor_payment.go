package protorune

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
	"github.com/subfrost/runicbtcfederation/core/types"
	"github.com/subfrost/runicbtcfederation/modules/protorune/datagateway"
)

// indexPayments attributes the outputs of tx to the inputs funding them, consuming input value in order.
// Each (recipient, sender) pair of an output records the output's value once per funding input.
// Inputs whose previous output is unknown carry no value.
func (p *Processor) indexPayments(ctx context.Context, dg datagateway.ProtoruneDataGatewayWithTx, tx *types.Transaction, height uint64) error {
	if !p.payments || tx.IsCoinbase() {
		return nil
	}

	values := make([]int64, len(tx.TxIn))
	senders := make([]string, len(tx.TxIn))
	for i, in := range tx.TxIn {
		output, err := dg.GetOutPointOutput(ctx, in.PreviousOutPoint())
		if err != nil {
			if errors.Is(err, errs.NotFound) {
				continue
			}
			return errors.Wrapf(err, "failed to get output of input %d", i)
		}
		values[i] = output.Value
		senders[i] = p.addressOf(ctx, output.PkScript)
	}

	input := 0
	for vout, output := range tx.TxOut {
		recipient := p.addressOf(ctx, output.PkScript)
		remaining := output.Value
		for remaining > 0 && input < len(values) {
			used := min(remaining, values[input])
			remaining -= used
			values[input] -= used
			sender := senders[input]
			if values[input] == 0 {
				input++
			}
			if used == 0 || recipient == "" || sender == "" {
				continue
			}
			if err := dg.AppendPayment(ctx, height, recipient, sender, uint64(output.Value)); err != nil {
				return errors.Wrapf(err, "failed to append payment of output %d", vout)
			}
		}
	}
	return nil
}
