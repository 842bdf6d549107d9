// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package undelegation

import (
	"math/big"
	"sort"
)

// Entry is an amount becoming payable at Epoch.
type Entry struct {
	Amount *big.Int
	Epoch  uint64
}

// Queue is a list of entries sorted by strictly increasing epoch.
type Queue []Entry

// Total returns the sum of all entries.
func (q Queue) Total() *big.Int {
	sum := new(big.Int)
	for _, e := range q {
		sum.Add(sum, e.Amount)
	}
	return sum
}

// Matured returns the sum of entries payable at epoch.
func (q Queue) Matured(epoch uint64) *big.Int {
	sum := new(big.Int)
	for _, e := range q {
		if e.Epoch > epoch {
			break
		}
		sum.Add(sum, e.Amount)
	}
	return sum
}

// insert merges amount into the entry of the same epoch, or inserts a new entry in sorted position.
func (q Queue) insert(amount *big.Int, epoch uint64) Queue {
	i := sort.Search(len(q), func(i int) bool { return q[i].Epoch >= epoch })
	if i < len(q) && q[i].Epoch == epoch {
		q[i].Amount = new(big.Int).Add(q[i].Amount, amount)
		return q
	}
	q = append(q, Entry{})
	copy(q[i+1:], q[i:])
	q[i] = Entry{Amount: new(big.Int).Set(amount), Epoch: epoch}
	return q
}

// compact folds every entry payable at current into a single entry at current.
func (q Queue) compact(current uint64) Queue {
	n := 0
	merged := new(big.Int)
	for n < len(q) && q[n].Epoch <= current {
		merged.Add(merged, q[n].Amount)
		n++
	}
	if n == 0 || merged.Sign() == 0 {
		return q[n:]
	}
	rest := q[n:]
	out := make(Queue, 0, len(rest)+1)
	out = append(out, Entry{Amount: merged, Epoch: current})
	return append(out, rest...)
}

// settle consumes available from the front for entries payable at asOf.
// It returns the remaining queue, the consumed amount and the residual.
func (q Queue) settle(available *big.Int, asOf uint64) (Queue, *big.Int, *big.Int) {
	residual := new(big.Int).Set(available)
	consumed := new(big.Int)
	i := 0
	for ; i < len(q) && residual.Sign() > 0; i++ {
		e := q[i]
		if e.Epoch > asOf {
			break
		}
		if residual.Cmp(e.Amount) < 0 {
			q[i].Amount = new(big.Int).Sub(e.Amount, residual)
			consumed.Add(consumed, residual)
			residual = new(big.Int)
			break
		}
		residual.Sub(residual, e.Amount)
		consumed.Add(consumed, e.Amount)
	}
	return q[i:], consumed, residual
}
