// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
	"github.com/vechain/lsd/state"
)

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.NewStater(db, 0).NewState()
	return NewContext(lsd.BytesToAddress([]byte("module")), st)
}

type record struct {
	Amount *big.Int
	Epoch  uint64
}

func TestBigInt(t *testing.T) {
	ctx := newContext(t)
	v := NewBigInt(ctx, Slot("total"))

	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Sign())

	// wider than 256 bits
	huge := new(big.Int).Lsh(big.NewInt(1), 300)
	require.NoError(t, v.Set(huge))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, huge, got)

	require.NoError(t, v.Add(big.NewInt(5)))
	require.NoError(t, v.Sub(new(big.Int).Lsh(big.NewInt(1), 300)))
	got, _ = v.Get()
	assert.Equal(t, big.NewInt(5), got)

	assert.ErrorIs(t, v.Sub(big.NewInt(6)), ErrUnderflow)
	got, _ = v.Get()
	assert.Equal(t, big.NewInt(5), got)

	require.NoError(t, v.Set(new(big.Int)))
	raw, err := ctx.State().GetRawStorage(ctx.Address(), Slot("total"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestUint64AndAddress(t *testing.T) {
	ctx := newContext(t)

	u := NewUint64(ctx, Slot("counter"))
	n, err := u.Add(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	_, err = u.Sub(4)
	assert.ErrorIs(t, err, ErrUnderflow)
	n, err = u.Sub(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	a := NewAddress(ctx, Slot("owner"))
	owner := lsd.BytesToAddress([]byte("owner"))
	require.NoError(t, a.Set(owner))
	got, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestMapping(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[lsd.Address, *record](ctx, Slot("records"))
	key := lsd.BytesToAddress([]byte("key"))

	empty, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Nil(t, empty.Amount)

	has, err := m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.Set(key, &record{Amount: big.NewInt(42), Epoch: 7}))
	got, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), got.Amount)
	assert.Equal(t, uint64(7), got.Epoch)

	m.Delete(key)
	has, _ = m.Has(key)
	assert.False(t, has)
}

func TestMappingDecodeError(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[lsd.Address, *record](ctx, Slot("records"))
	key := lsd.BytesToAddress([]byte("key"))

	ctx.State().SetRawStorage(ctx.Address(), m.position(key), rlp.RawValue{0xFF})
	_, err := m.Get(key)
	assert.Error(t, err)
}

func TestCheckpointRevert(t *testing.T) {
	ctx := newContext(t)
	v := NewBigInt(ctx, Slot("total"))
	require.NoError(t, v.Set(big.NewInt(1)))

	cp := ctx.State().NewCheckpoint()
	require.NoError(t, v.Set(big.NewInt(2)))
	ctx.State().RevertTo(cp)

	got, _ := v.Get()
	assert.Equal(t, big.NewInt(1), got)
}
