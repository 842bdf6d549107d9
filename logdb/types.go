// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/lsd/lsd"
)

// Event is a pool event as stored in the db.
type Event struct {
	Height   uint32
	Index    uint32
	Epoch    uint64
	Kind     string
	Account  lsd.Address
	Provider lsd.Address
	Amount   *big.Int
	Extra    *big.Int // shares or reserve points
	OpID     uint64
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of block heights. To below From means unbounded.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventFilter selects events. Empty criteria match everything.
type EventFilter struct {
	Range    *Range
	Kinds    []string
	Account  *lsd.Address
	Provider *lsd.Address
	OpID     *uint64
	Options  *Options
	Order    Order // default asc
}
