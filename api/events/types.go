// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/lsd/logdb"
	"github.com/vechain/lsd/lsd"
)

type Range struct {
	From *uint32 `json:"from"`
	To   *uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	Range    *Range       `json:"range"`
	Kinds    []string     `json:"kinds"`
	Account  *lsd.Address `json:"account"`
	Provider *lsd.Address `json:"provider"`
	OpID     *uint64      `json:"opID"`
	Options  *Options     `json:"options"`
	Order    logdb.Order  `json:"order"`
}

type FilteredEvent struct {
	Height   uint32                `json:"height"`
	Index    uint32                `json:"index"`
	Epoch    uint64                `json:"epoch"`
	Kind     string                `json:"kind"`
	Account  *lsd.Address          `json:"account,omitempty"`
	Provider *lsd.Address          `json:"provider,omitempty"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
	Extra    *math.HexOrDecimal256 `json:"extra"`
	OpID     uint64                `json:"opID,omitempty"`
}

func convertFilter(f *EventFilter) *logdb.EventFilter {
	out := &logdb.EventFilter{
		Kinds:    f.Kinds,
		Account:  f.Account,
		Provider: f.Provider,
		OpID:     f.OpID,
		Order:    f.Order,
	}
	if f.Range != nil {
		r := &logdb.Range{}
		if f.Range.From != nil {
			r.From = *f.Range.From
		}
		if f.Range.To != nil {
			r.To = *f.Range.To
		} else if r.From > 0 {
			// open ended
			r.To = r.From - 1
		} else {
			r = nil
		}
		out.Range = r
	}
	if f.Options != nil {
		out.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return out
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Height: e.Height,
		Index:  e.Index,
		Epoch:  e.Epoch,
		Kind:   e.Kind,
		Amount: hex(e.Amount),
		Extra:  hex(e.Extra),
		OpID:   e.OpID,
	}
	if !e.Account.IsZero() {
		account := e.Account
		fe.Account = &account
	}
	if !e.Provider.IsZero() {
		provider := e.Provider
		fe.Provider = &provider
	}
	return fe
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	h := math.HexOrDecimal256(*v)
	return &h
}
