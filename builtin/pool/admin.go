// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/lsd"
)

// Init sets the owner of a fresh pool. The pool starts inactive.
func (p *Pool) Init(owner lsd.Address) error {
	return p.atomic("init", func() error {
		if owner.IsZero() {
			return reverts.ErrInvalidParam
		}
		current, err := p.owner.Get()
		if err != nil {
			return err
		}
		if !current.IsZero() {
			return reverts.ErrUnauthorized
		}
		if err := p.owner.Set(owner); err != nil {
			return err
		}
		if err := p.poolState.Set(StateInactive); err != nil {
			return err
		}
		logger.Info("initialized pool", "owner", owner)
		return nil
	})
}

// Owner returns the pool owner, zero before Init.
func (p *Pool) Owner() (lsd.Address, error) {
	return p.owner.Get()
}

// AddProvider registers a provider and requests every view of it.
// Providers can only be added while the pool is inactive.
func (p *Pool) AddProvider(caller, addr lsd.Address) error {
	return p.atomic("add-provider", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if err := p.requireInactive(); err != nil {
			return err
		}
		if err := p.providers.Add(addr); err != nil {
			return err
		}
		for _, k := range provider.Kinds {
			if err := p.issueRefresh(addr, k); err != nil {
				return err
			}
		}
		p.emit(newEvent(EventProviderAdded, caller, addr, nil, nil, 0))
		logger.Info("added provider", "provider", addr)
		return nil
	})
}

// RemoveProvider unregisters a provider holding no pool funds. Removing the last
// provider deactivates the pool.
func (p *Pool) RemoveProvider(caller, addr lsd.Address) error {
	return p.atomic("remove-provider", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		c, err := p.clock()
		if err != nil {
			return err
		}
		if err := p.providers.Remove(addr, c); err != nil {
			return err
		}
		count, err := p.providers.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			if err := p.setState(caller, StateInactive); err != nil {
				return err
			}
		}
		p.emit(newEvent(EventProviderRemoved, caller, addr, nil, nil, 0))
		logger.Info("removed provider", "provider", addr, "left", count)
		return nil
	})
}

// SetProviderState activates or deactivates a provider. Any change makes every view stale.
func (p *Pool) SetProviderState(caller, addr lsd.Address, state provider.State) error {
	return p.atomic("set-provider-state", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if err := p.providers.SetState(addr, state); err != nil {
			return err
		}
		p.emit(newEvent(EventProviderState, caller, addr, big.NewInt(int64(state)), nil, 0))
		logger.Info("set provider state", "provider", addr, "state", state)
		return nil
	})
}

// SetUnbondPeriod sets the unbond period in epochs, only while the pool is inactive.
func (p *Pool) SetUnbondPeriod(caller lsd.Address, period uint64) error {
	return p.SetParam(caller, params.KeyUnbondPeriod, new(big.Int).SetUint64(period))
}

// SetUndelegateNowFee sets the instant redemption fee in basis points, only while the pool is inactive.
func (p *Pool) SetUndelegateNowFee(caller lsd.Address, fee uint64) error {
	return p.SetParam(caller, params.KeyUndelegateNowFee, new(big.Int).SetUint64(fee))
}

// SetParam sets a governance parameter.
func (p *Pool) SetParam(caller lsd.Address, key lsd.Bytes32, value *big.Int) error {
	return p.atomic("set-param", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if value == nil || value.Sign() < 0 {
			return reverts.ErrInvalidParam
		}
		switch key {
		case params.KeyUnbondPeriod:
			if err := p.requireInactive(); err != nil {
				return err
			}
			if value.Sign() == 0 || value.Cmp(new(big.Int).SetUint64(lsd.MaxUnbondPeriod)) > 0 {
				return reverts.ErrInvalidParam
			}
		case params.KeyUndelegateNowFee:
			if err := p.requireInactive(); err != nil {
				return err
			}
			if value.Cmp(new(big.Int).SetUint64(lsd.MaxPercent)) >= 0 {
				return reverts.ErrInvalidParam
			}
		case params.KeyServiceFee:
			if value.Cmp(new(big.Int).SetUint64(lsd.MaxPercent)) >= 0 {
				return reverts.ErrInvalidParam
			}
		case params.KeyMaxProviderFee:
			if value.Cmp(new(big.Int).SetUint64(lsd.MaxPercent)) > 0 {
				return reverts.ErrInvalidParam
			}
		case params.KeyNodeBaseStake, params.KeyFreshnessWindow, params.KeyMinBlocksBetweenDelegations:
		default:
			return reverts.ErrInvalidParam
		}
		if err := p.params.Set(key, value); err != nil {
			return err
		}
		p.emit(newEvent(EventParamSet, caller, lsd.Address{}, value, nil, 0))
		logger.Info("set param", "key", key, "value", value)
		return nil
	})
}

// Params returns every governance parameter by name.
func (p *Pool) Params() (map[string]*big.Int, error) {
	out := make(map[string]*big.Int)
	for _, name := range params.Names() {
		key, _ := params.KeyByName(name)
		v, err := p.params.Get(key)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Activate opens the pool to users. It needs at least one provider and an unbond period.
func (p *Pool) Activate(caller lsd.Address) error {
	return p.atomic("activate", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		count, err := p.providers.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			return reverts.ErrNoProviders
		}
		if _, err := p.unbondEpoch(0); err != nil {
			return err
		}
		return p.setState(caller, StateActive)
	})
}

// Deactivate closes the pool to users. Pending operations still resolve.
func (p *Pool) Deactivate(caller lsd.Address) error {
	return p.atomic("deactivate", func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		return p.setState(caller, StateInactive)
	})
}

func (p *Pool) setState(caller lsd.Address, st State) error {
	current, err := p.State()
	if err != nil {
		return err
	}
	if current == st {
		return nil
	}
	if err := p.poolState.Set(st); err != nil {
		return err
	}
	p.emit(newEvent(EventStateChanged, caller, lsd.Address{}, big.NewInt(int64(st)), nil, 0))
	logger.Info("pool state changed", "state", st)
	return nil
}
