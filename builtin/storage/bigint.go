// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/lsd"
)

// ErrUnderflow is returned when a subtraction would make an unsigned slot negative.
var ErrUnderflow = errors.New("storage: unsigned value underflow")

// BigInt is a slot holding an arbitrary-precision unsigned integer.
// Unlike a 32 bytes word the value is never truncated.
type BigInt struct {
	raw *Raw[*big.Int]
}

func NewBigInt(context *Context, pos lsd.Bytes32) *BigInt {
	return &BigInt{raw: NewRaw[*big.Int](context, pos)}
}

// Get returns the value, zero if never set. The result is never nil.
func (b *BigInt) Get() (*big.Int, error) {
	return b.raw.Get()
}

func (b *BigInt) Set(value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		b.raw.Clear()
		return nil
	}
	if value.Sign() < 0 {
		return ErrUnderflow
	}
	return b.raw.Set(value)
}

func (b *BigInt) Add(value *big.Int) error {
	v, err := b.Get()
	if err != nil {
		return err
	}
	return b.Set(v.Add(v, value))
}

func (b *BigInt) Sub(value *big.Int) error {
	v, err := b.Get()
	if err != nil {
		return err
	}
	if v.Cmp(value) < 0 {
		return ErrUnderflow
	}
	return b.Set(v.Sub(v, value))
}

// Uint64 is a slot holding an uint64.
type Uint64 struct {
	raw *Raw[uint64]
}

func NewUint64(context *Context, pos lsd.Bytes32) *Uint64 {
	return &Uint64{raw: NewRaw[uint64](context, pos)}
}

func (u *Uint64) Get() (uint64, error) {
	return u.raw.Get()
}

func (u *Uint64) Set(value uint64) error {
	if value == 0 {
		u.raw.Clear()
		return nil
	}
	return u.raw.Set(value)
}

// Add adds delta to the value and returns the new value.
func (u *Uint64) Add(delta uint64) (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	v += delta
	return v, u.Set(v)
}

func (u *Uint64) Sub(delta uint64) (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	if v < delta {
		return 0, ErrUnderflow
	}
	v -= delta
	return v, u.Set(v)
}

// Address is a slot holding an address.
type Address struct {
	raw *Raw[lsd.Address]
}

func NewAddress(context *Context, pos lsd.Bytes32) *Address {
	return &Address{raw: NewRaw[lsd.Address](context, pos)}
}

func (a *Address) Get() (lsd.Address, error) {
	return a.raw.Get()
}

func (a *Address) Set(addr lsd.Address) error {
	if addr.IsZero() {
		a.raw.Clear()
		return nil
	}
	return a.raw.Set(addr)
}
