// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package provider

import (
	"math/big"
)

type State uint8

const (
	StateUnregistered State = iota
	StateActive
	StateInactive
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	default:
		return "unregistered"
	}
}

// Kind is one of the independently refreshed views of a provider.
type Kind uint8

const (
	KindConfig Kind = iota + 1
	KindStake
	KindNodes
	KindFunds
)

// Kinds lists every view in refresh order.
var Kinds = []Kind{KindConfig, KindStake, KindNodes, KindFunds}

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindStake:
		return "stake"
	case KindNodes:
		return "nodes"
	case KindFunds:
		return "funds"
	default:
		return "unknown"
	}
}

// Clock is the host time a freshness check is made against.
type Clock struct {
	Height uint64
	Epoch  uint64
	Window uint64 // number of blocks a view stays fresh
}

// Provider is the cached view of an external delegation provider.
type Provider struct {
	State State

	// provider wide, refreshed by config/stake/nodes requests
	StakedNodes uint64
	TotalStake  *big.Int
	MaxCap      *big.Int
	HasCap      bool
	Fee         uint64

	// the pool's own claims, refreshed by funds requests
	PoolStake        *big.Int
	PoolRewards      *big.Int
	PoolUndelegated  *big.Int
	PoolWithdrawable *big.Int

	// heights of the last successful refresh, 0 when stale
	ConfigUpdated uint64
	StakeUpdated  uint64
	NodesUpdated  uint64
	FundsUpdated  uint64
	FundsEpoch    uint64
}

func newProvider() *Provider {
	return &Provider{
		State:            StateActive,
		TotalStake:       new(big.Int),
		MaxCap:           new(big.Int),
		PoolStake:        new(big.Int),
		PoolRewards:      new(big.Int),
		PoolUndelegated:  new(big.Int),
		PoolWithdrawable: new(big.Int),
	}
}

func (p *Provider) Exists() bool {
	return p.State != StateUnregistered
}

func (p *Provider) IsActive() bool {
	return p.State == StateActive
}

func fresh(marker uint64, c Clock) bool {
	return marker != 0 && marker+c.Window >= c.Height
}

func (p *Provider) IsConfigFresh(c Clock) bool {
	return fresh(p.ConfigUpdated, c)
}

func (p *Provider) IsStakeFresh(c Clock) bool {
	return fresh(p.StakeUpdated, c)
}

func (p *Provider) AreNodesFresh(c Clock) bool {
	return fresh(p.NodesUpdated, c)
}

// AreFundsFresh also requires the funds view to be taken in the current epoch,
// since rewards and withdrawable amounts move with epochs.
func (p *Provider) AreFundsFresh(c Clock) bool {
	return fresh(p.FundsUpdated, c) && p.FundsEpoch == c.Epoch
}

// IsFresh reports whether the given view is fresh.
func (p *Provider) IsFresh(k Kind, c Clock) bool {
	switch k {
	case KindConfig:
		return p.IsConfigFresh(c)
	case KindStake:
		return p.IsStakeFresh(c)
	case KindNodes:
		return p.AreNodesFresh(c)
	case KindFunds:
		return p.AreFundsFresh(c)
	}
	return false
}

// IsUpToDate reports whether every view is fresh.
func (p *Provider) IsUpToDate(c Clock) bool {
	for _, k := range Kinds {
		if !p.IsFresh(k, c) {
			return false
		}
	}
	return true
}

// StaleKinds returns the views needing a refresh.
func (p *Provider) StaleKinds(c Clock) []Kind {
	var out []Kind
	for _, k := range Kinds {
		if !p.IsFresh(k, c) {
			out = append(out, k)
		}
	}
	return out
}

func (p *Provider) invalidate(k Kind) {
	switch k {
	case KindConfig:
		p.ConfigUpdated = 0
	case KindStake:
		p.StakeUpdated = 0
	case KindNodes:
		p.NodesUpdated = 0
	case KindFunds:
		p.FundsUpdated = 0
		p.FundsEpoch = 0
	}
}

// IsEligible reports whether new stake may be placed with the provider.
func (p *Provider) IsEligible(maxFee uint64) bool {
	return p.Fee <= maxFee && p.StakedNodes > 0
}

// HasFreeSpace reports whether the provider's cap leaves room for more stake.
func (p *Provider) HasFreeSpace() bool {
	return !p.HasCap || p.TotalStake.Cmp(p.MaxCap) < 0
}

// Topup returns the stake per node above baseStake, floored at zero.
func (p *Provider) Topup(baseStake *big.Int) *big.Int {
	if p.StakedNodes == 0 {
		return new(big.Int)
	}
	topup := new(big.Int).Quo(p.TotalStake, new(big.Int).SetUint64(p.StakedNodes))
	if topup.Cmp(baseStake) <= 0 {
		return topup.SetInt64(0)
	}
	return topup.Sub(topup, baseStake)
}

// HasClaims reports whether the pool still has any funds with the provider.
func (p *Provider) HasClaims() bool {
	return p.PoolStake.Sign() > 0 ||
		p.PoolRewards.Sign() > 0 ||
		p.PoolUndelegated.Sign() > 0 ||
		p.PoolWithdrawable.Sign() > 0
}
