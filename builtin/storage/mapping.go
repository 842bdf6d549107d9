// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/vechain/lsd/lsd"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction for native modules.
// Values live at Blake2b(key, basePos) and are rlp encoded.
type Mapping[K Key, V any] struct {
	context *Context
	basePos lsd.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos lsd.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) lsd.Bytes32 {
	return lsd.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = decode(m.context, m.position(key), &value)
	return
}

// Has reports whether a value is stored for key.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return encode(m.context, m.position(key), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
