// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/lsd/lsd"
)

// Raw is a single slot holding a rlp encoded value.
// An empty slot decodes to the zero value, or a newly allocated value if V is a pointer.
type Raw[V any] struct {
	context *Context
	pos     lsd.Bytes32
}

func NewRaw[V any](context *Context, pos lsd.Bytes32) *Raw[V] {
	return &Raw[V]{context: context, pos: pos}
}

func (r *Raw[V]) Get() (value V, err error) {
	err = decode(r.context, r.pos, &value)
	return
}

func (r *Raw[V]) Set(value V) error {
	return encode(r.context, r.pos, value)
}

// Clear empties the slot.
func (r *Raw[V]) Clear() {
	r.context.state.SetRawStorage(r.context.address, r.pos, nil)
}

func decode[V any](ctx *Context, pos lsd.Bytes32, value *V) error {
	return ctx.state.DecodeStorage(ctx.address, pos, func(raw []byte) error {
		if reflect.ValueOf(*value).Kind() == reflect.Ptr {
			*value = reflect.New(reflect.TypeOf(*value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
}

func encode[V any](ctx *Context, pos lsd.Bytes32, value V) error {
	return ctx.state.EncodeStorage(ctx.address, pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
