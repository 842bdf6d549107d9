// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package undelegation

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
	"github.com/vechain/lsd/state"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.NewStater(db, 0).NewState()
	return New(storage.NewContext(lsd.BytesToAddress([]byte("pool")), st))
}

func entries(t *testing.T, s *Service, q QueueID) []Entry {
	got, err := s.Entries(q)
	require.NoError(t, err)
	return got
}

// assertAmount compares amounts by value, zeros built differently differ in representation.
func assertAmount(t *testing.T, want, got *big.Int) {
	t.Helper()
	assert.Equal(t, want.String(), got.String())
}

func e(amount int64, epoch uint64) Entry {
	return Entry{Amount: big.NewInt(amount), Epoch: epoch}
}

func TestEnqueue(t *testing.T) {
	s := newService(t)
	q := User(lsd.BytesToAddress([]byte("alice")))

	require.NoError(t, s.Enqueue(q, big.NewInt(10), 15, 5))
	require.NoError(t, s.Enqueue(q, big.NewInt(20), 12, 5))
	require.NoError(t, s.Enqueue(q, big.NewInt(5), 15, 5))
	require.NoError(t, s.Enqueue(q, big.NewInt(1), 20, 5))
	assert.Equal(t, []Entry{e(20, 12), e(15, 15), e(1, 20)}, entries(t, s, q))

	// zero amounts are ignored
	require.NoError(t, s.Enqueue(q, big.NewInt(0), 13, 5))
	assert.Len(t, entries(t, s, q), 3)

	// epochs 12 and 15 matured, folded into the head at 16
	require.NoError(t, s.Enqueue(q, big.NewInt(2), 25, 16))
	assert.Equal(t, []Entry{e(35, 16), e(1, 20), e(2, 25)}, entries(t, s, q))

	total, err := s.Total(q)
	require.NoError(t, err)
	assertAmount(t, big.NewInt(38), total)

	// the other queues are untouched
	assert.Empty(t, entries(t, s, TotalUsers))
	assert.Empty(t, entries(t, s, Reserve))
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		asOf      uint64
		consumed  int64
		residual  int64
		remaining []Entry
	}{
		{"nothing matured", 100, 9, 0, 100, []Entry{e(10, 10), e(20, 11), e(30, 12)}},
		{"partial head", 4, 10, 4, 0, []Entry{e(6, 10), e(20, 11), e(30, 12)}},
		{"full head stops at maturity", 100, 10, 10, 90, []Entry{e(20, 11), e(30, 12)}},
		{"two entries then partial", 35, 12, 35, 0, []Entry{e(25, 12)}},
		{"everything", 100, 12, 60, 40, nil},
		{"ignore maturity", 45, lsd.MaxEpoch, 45, 0, []Entry{e(15, 12)}},
		{"zero available", 0, 12, 0, 0, []Entry{e(10, 10), e(20, 11), e(30, 12)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(t)
			for _, en := range []Entry{e(10, 10), e(20, 11), e(30, 12)} {
				require.NoError(t, s.Enqueue(TotalUsers, en.Amount, en.Epoch, 0))
			}
			consumed, residual, err := s.Settle(TotalUsers, big.NewInt(tt.available), tt.asOf)
			require.NoError(t, err)
			assertAmount(t, big.NewInt(tt.consumed), consumed)
			assertAmount(t, big.NewInt(tt.residual), residual)

			got := entries(t, s, TotalUsers)
			if tt.remaining == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.remaining, []Entry(got))
			}
		})
	}
}

func TestSettleIdempotentOnSnapshot(t *testing.T) {
	q := Queue{e(10, 1), e(20, 2)}
	a := append(Queue(nil), q...)
	b := append(Queue(nil), q...)

	ra, ca, resA := a.settle(big.NewInt(15), 2)
	rb, cb, resB := b.settle(big.NewInt(15), 2)
	assert.Equal(t, ra, rb)
	assertAmount(t, ca, cb)
	assertAmount(t, resA, resB)
}

type op struct {
	Enqueue bool
	Amount  uint32
	Epoch   uint8
	Advance uint8
}

func TestQueueProperties(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 64)

	for round := 0; round < 50; round++ {
		var ops []op
		f.Fuzz(&ops)

		s := newService(t)
		var current uint64
		expected := new(big.Int)

		for _, o := range ops {
			current += uint64(o.Advance % 3)
			if o.Enqueue {
				amount := big.NewInt(int64(o.Amount))
				require.NoError(t, s.Enqueue(Reserve, amount, current+uint64(o.Epoch%10), current))
				expected.Add(expected, amount)
			} else {
				before, err := s.Total(Reserve)
				require.NoError(t, err)
				available := big.NewInt(int64(o.Amount))
				consumed, residual, err := s.Settle(Reserve, available, current)
				require.NoError(t, err)

				// settlement conservation
				assertAmount(t, available, new(big.Int).Add(consumed, residual))
				after, err := s.Total(Reserve)
				require.NoError(t, err)
				assertAmount(t, before, new(big.Int).Add(after, consumed))
				expected.Sub(expected, consumed)
			}

			// ordering invariant
			q := entries(t, s, Reserve)
			for i := 1; i < len(q); i++ {
				assert.Less(t, q[i-1].Epoch, q[i].Epoch)
			}
			for _, en := range q {
				assert.Positive(t, en.Amount.Sign())
			}
			total, err := s.Total(Reserve)
			require.NoError(t, err)
			assertAmount(t, expected, total)
		}
	}
}

func TestMergeLaw(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 50; i++ {
		var a1, a2 uint32
		var epoch, current uint8
		f.Fuzz(&a1)
		f.Fuzz(&a2)
		f.Fuzz(&epoch)
		f.Fuzz(&current)
		if a1 == 0 || a2 == 0 {
			continue
		}

		split := newService(t)
		require.NoError(t, split.Enqueue(Reserve, big.NewInt(3), 200, uint64(current)))
		require.NoError(t, split.Enqueue(Reserve, big.NewInt(int64(a1)), uint64(epoch), uint64(current)))
		require.NoError(t, split.Enqueue(Reserve, big.NewInt(int64(a2)), uint64(epoch), uint64(current)))

		once := newService(t)
		require.NoError(t, once.Enqueue(Reserve, big.NewInt(3), 200, uint64(current)))
		require.NoError(t, once.Enqueue(Reserve, big.NewInt(int64(a1)+int64(a2)), uint64(epoch), uint64(current)))

		assert.Equal(t, entries(t, once, Reserve), entries(t, split, Reserve))
	}
}
