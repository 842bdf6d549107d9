// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/state"
)

// Context binds storage wrappers to a module address within a state.
type Context struct {
	address lsd.Address
	state   *state.State
}

func NewContext(address lsd.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() lsd.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Slot derives a storage position from a readable name.
func Slot(name string) lsd.Bytes32 {
	return lsd.BytesToBytes32([]byte(name))
}
