package runes

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// BalanceSheet maps token ids to amounts and remembers the order ids were first credited.
type BalanceSheet struct {
	order    []RuneId
	balances map[RuneId]uint128.Uint128
}

type BalanceEntry struct {
	Id     RuneId
	Amount uint128.Uint128
}

func NewBalanceSheet() *BalanceSheet {
	return &BalanceSheet{balances: make(map[RuneId]uint128.Uint128)}
}

func (s *BalanceSheet) Get(id RuneId) uint128.Uint128 {
	return s.balances[id]
}

// Credit adds amount to id. On overflow the sheet is unchanged.
func (s *BalanceSheet) Credit(id RuneId, amount uint128.Uint128) error {
	if amount.IsZero() {
		return nil
	}
	current, ok := s.balances[id]
	sum, overflow := current.AddOverflow(amount)
	if overflow {
		return errors.Wrapf(errs.OverflowUint128, "credit %s", id)
	}
	if !ok {
		s.order = append(s.order, id)
	}
	s.balances[id] = sum
	return nil
}

// Debit subtracts amount from id and reports whether the balance covered it.
// The sheet is unchanged when it did not.
func (s *BalanceSheet) Debit(id RuneId, amount uint128.Uint128) bool {
	current := s.balances[id]
	if current.Cmp(amount) < 0 {
		return false
	}
	if amount.IsZero() {
		return true
	}
	s.balances[id] = current.Sub(amount)
	return true
}

// Merge credits every balance of other into s.
func (s *BalanceSheet) Merge(other *BalanceSheet) error {
	if other == nil {
		return nil
	}
	for _, entry := range other.Entries() {
		if err := s.Credit(entry.Id, entry.Amount); err != nil {
			return err
		}
	}
	return nil
}

// MergeBalanceSheets sums sheets into a new sheet.
func MergeBalanceSheets(sheets ...*BalanceSheet) (*BalanceSheet, error) {
	merged := NewBalanceSheet()
	for _, sheet := range sheets {
		if err := merged.Merge(sheet); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// Entries returns the nonzero balances in order of first credit.
func (s *BalanceSheet) Entries() []BalanceEntry {
	entries := make([]BalanceEntry, 0, len(s.order))
	for _, id := range s.order {
		if amount := s.balances[id]; !amount.IsZero() {
			entries = append(entries, BalanceEntry{Id: id, Amount: amount})
		}
	}
	return entries
}

func (s *BalanceSheet) IsEmpty() bool {
	for _, amount := range s.balances {
		if !amount.IsZero() {
			return false
		}
	}
	return true
}

func (s *BalanceSheet) Clone() *BalanceSheet {
	clone := NewBalanceSheet()
	for _, entry := range s.Entries() {
		clone.order = append(clone.order, entry.Id)
		clone.balances[entry.Id] = entry.Amount
	}
	return clone
}

const balanceEntrySize = 32 + 16

// Encode serializes the sheet as a cenotaph byte, a u32 big-endian entry count and
// entries of a rune id key followed by a 16-byte big-endian amount.
func (s *BalanceSheet) Encode(cenotaph bool) []byte {
	entries := s.Entries()
	b := make([]byte, 5, 5+len(entries)*balanceEntrySize)
	if cenotaph {
		b[0] = 1
	}
	binary.BigEndian.PutUint32(b[1:5], uint32(len(entries)))
	for _, entry := range entries {
		b = append(b, entry.Id.Bytes()...)
		amount := make([]byte, 16)
		entry.Amount.PutBytesBE(amount)
		b = append(b, amount...)
	}
	return b
}

// DecodeBalanceSheet parses the output of [BalanceSheet.Encode].
// Empty input is an empty sheet.
func DecodeBalanceSheet(b []byte) (sheet *BalanceSheet, cenotaph bool, err error) {
	sheet = NewBalanceSheet()
	if len(b) == 0 {
		return sheet, false, nil
	}
	if len(b) < 5 {
		return nil, false, errors.Wrap(errs.InternalError, "balance sheet header is truncated")
	}
	cenotaph = b[0] != 0
	count := binary.BigEndian.Uint32(b[1:5])
	body := b[5:]
	if uint64(len(body)) != uint64(count)*balanceEntrySize {
		return nil, false, errors.Wrapf(errs.InternalError, "balance sheet has %d bytes for %d entries", len(body), count)
	}
	for i := 0; i < int(count); i++ {
		entry := body[i*balanceEntrySize : (i+1)*balanceEntrySize]
		id, err := RuneIdFromBytes(entry[:32])
		if err != nil {
			return nil, false, errors.Wrap(err, "cannot decode balance sheet entry")
		}
		if err := sheet.Credit(id, uint128.FromBytesBE(entry[32:])); err != nil {
			return nil, false, errors.Wrap(err, "cannot decode balance sheet entry")
		}
	}
	return sheet, cenotaph, nil
}
