// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
)

func newStater(t *testing.T) *Stater {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return NewStater(db, 0)
}

func TestStateReadWrite(t *testing.T) {
	st := newStater(t).NewState()

	addr := lsd.BytesToAddress([]byte("account1"))
	key := lsd.BytesToBytes32([]byte("key"))

	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(uint64(42))
	}))

	var v uint64
	require.NoError(t, st.DecodeStorage(addr, key, func(b []byte) error {
		return rlp.DecodeBytes(b, &v)
	}))
	assert.Equal(t, uint64(42), v)

	// other addresses do not see the slot
	raw, err = st.GetRawStorage(lsd.BytesToAddress([]byte("account2")), key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStateErrors(t *testing.T) {
	st := newStater(t).NewState()
	addr := lsd.BytesToAddress([]byte("a"))
	key := lsd.BytesToBytes32([]byte("k"))

	cause := errors.New("boom")
	err := st.EncodeStorage(addr, key, func() ([]byte, error) { return nil, cause })
	var stateErr *Error
	require.ErrorAs(t, err, &stateErr)
	assert.ErrorIs(t, err, cause)

	err = st.DecodeStorage(addr, key, func([]byte) error { return cause })
	assert.ErrorIs(t, err, cause)
}

func TestStateRevert(t *testing.T) {
	st := newStater(t).NewState()
	addr := lsd.BytesToAddress([]byte("a"))
	key := lsd.BytesToBytes32([]byte("k"))

	get := func() rlp.RawValue {
		raw, err := st.GetRawStorage(addr, key)
		require.NoError(t, err)
		return raw
	}

	st.SetRawStorage(addr, key, rlp.RawValue{0x01})
	chk := st.NewCheckpoint()
	st.SetRawStorage(addr, key, rlp.RawValue{0x02})
	inner := st.NewCheckpoint()
	st.SetRawStorage(addr, key, rlp.RawValue{0x03})
	assert.Equal(t, rlp.RawValue{0x03}, get())

	st.RevertTo(inner)
	assert.Equal(t, rlp.RawValue{0x02}, get())

	st.RevertTo(chk)
	assert.Equal(t, rlp.RawValue{0x01}, get())
}

func TestStageCommit(t *testing.T) {
	stater := newStater(t)
	st := stater.NewState()

	addr := lsd.BytesToAddress([]byte("a"))
	k1 := lsd.BytesToBytes32([]byte("k1"))
	k2 := lsd.BytesToBytes32([]byte("k2"))

	st.SetRawStorage(addr, k1, rlp.RawValue{0x01})
	st.SetRawStorage(addr, k2, rlp.RawValue{0x02})
	st.SetRawStorage(addr, k1, rlp.RawValue{0x03})

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit())

	// a new state reads committed values
	st2 := stater.NewState()
	raw, err := st2.GetRawStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x03}, raw)

	// clearing a slot deletes it
	st2.SetRawStorage(addr, k2, nil)
	require.NoError(t, st2.Stage().Commit())

	raw, err = stater.NewState().GetRawStorage(addr, k2)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStageReadsFromStore(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	addr := lsd.BytesToAddress([]byte("a"))
	key := lsd.BytesToBytes32([]byte("k"))

	st := NewStater(db, 16).NewState()
	st.SetRawStorage(addr, key, rlp.RawValue{0x07})
	require.NoError(t, st.Stage().Commit())

	// a stater with a cold cache over the same store
	raw, err := NewStater(db, 16).NewState().GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x07}, raw)
}
