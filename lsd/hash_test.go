// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlake2b(t *testing.T) {
	data := []byte("liquid staking")

	single := Blake2b(data)
	split := Blake2b(data[:6], data[6:])
	assert.Equal(t, single, split)

	h := NewBlake2b()
	h.Write(data)
	assert.Equal(t, single.Bytes(), h.Sum(nil))

	assert.NotEqual(t, Blake2b([]byte("a"), []byte("b")), Blake2b([]byte("b"), []byte("a")))
}

func TestBytes32(t *testing.T) {
	b := BytesToBytes32([]byte("total-staked"))
	assert.False(t, b.IsZero())
	assert.True(t, Bytes32{}.IsZero())
	assert.Len(t, b.Bytes(), 32)
	assert.Equal(t, "0x", b.String()[:2])
}

func TestEpochOf(t *testing.T) {
	assert.Equal(t, uint64(0), EpochOf(EpochLength()-1))
	assert.Equal(t, uint64(1), EpochOf(EpochLength()))
	assert.Equal(t, Tokens(3).String(), "3000000000000000000")
}
