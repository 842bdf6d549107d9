// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package provider

import (
	"math/big"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/lsd"
)

// Policy holds the governance parameters used by allocation.
type Policy struct {
	MaxFee    uint64
	BaseStake *big.Int
}

// Allocation is the provider chosen for an amount, and the part of the amount it takes.
// Amount is zero when the provider cannot take at least lsd.MinAmount.
type Allocation struct {
	Provider lsd.Address
	Amount   *big.Int
}

type candidate struct {
	addr  lsd.Address
	p     *Provider
	topup *big.Int
}

type scan struct {
	toDelegate   *candidate // lowest topup with free space
	maxTopup     *big.Int   // highest topup with free space
	toUndelegate *candidate // highest topup holding pool stake
	ineligible   *candidate // active, not eligible, holding pool stake
}

func (s *Service) scan(policy Policy) (*scan, error) {
	out := &scan{}
	err := s.Each(func(addr lsd.Address, p *Provider) error {
		if !p.IsActive() {
			return nil
		}
		if !p.IsEligible(policy.MaxFee) {
			if p.PoolStake.Sign() > 0 && out.ineligible == nil {
				out.ineligible = &candidate{addr: addr, p: p}
			}
			return nil
		}
		c := &candidate{addr: addr, p: p, topup: p.Topup(policy.BaseStake)}
		if p.HasFreeSpace() {
			// strict comparisons keep the earliest provider on ties
			if out.toDelegate == nil || c.topup.Cmp(out.toDelegate.topup) < 0 {
				out.toDelegate = c
			}
			if out.maxTopup == nil || c.topup.Cmp(out.maxTopup) > 0 {
				out.maxTopup = c.topup
			}
		}
		if p.PoolStake.Sign() > 0 {
			if out.toUndelegate == nil || c.topup.Cmp(out.toUndelegate.topup) > 0 {
				out.toUndelegate = c
			}
		}
		return nil
	})
	return out, err
}

// capByGap bounds amount by the stake needed to lift a provider's topup from low to high,
// never below lsd.MinAmount.
func capByGap(amount, low, high *big.Int, nodes uint64) *big.Int {
	out := new(big.Int).Set(amount)
	if high.Cmp(low) <= 0 {
		return out
	}
	maxAmount := new(big.Int).Sub(high, low)
	maxAmount.Mul(maxAmount, new(big.Int).SetUint64(nodes))
	if maxAmount.Cmp(lsd.MinAmount) < 0 {
		maxAmount.Set(lsd.MinAmount)
	}
	if out.Cmp(maxAmount) > 0 {
		out.Set(maxAmount)
	}
	return out
}

// SelectForDelegation picks the active, eligible provider with free space and the lowest topup.
// The amount is bounded so the provider does not overshoot the highest topup, and by its cap.
func (s *Service) SelectForDelegation(amount *big.Int, policy Policy) (*Allocation, error) {
	sc, err := s.scan(policy)
	if err != nil {
		return nil, err
	}
	c := sc.toDelegate
	if c == nil {
		return nil, reverts.ErrNoEligibleProvider
	}

	out := capByGap(amount, c.topup, sc.maxTopup, c.p.StakedNodes)
	if c.p.HasCap {
		room := new(big.Int).Sub(c.p.MaxCap, c.p.TotalStake)
		if out.Cmp(room) > 0 {
			out.Set(room)
		}
	}
	if out.Cmp(lsd.MinAmount) < 0 {
		out.SetInt64(0)
	}
	return &Allocation{Provider: c.addr, Amount: out}, nil
}

// SelectForUndelegation prefers an active provider that became ineligible while holding pool stake.
// Otherwise it picks the provider with the highest topup holding pool stake, never leaving it
// with a non-zero stake below lsd.MinAmount.
func (s *Service) SelectForUndelegation(amount *big.Int, policy Policy) (*Allocation, error) {
	sc, err := s.scan(policy)
	if err != nil {
		return nil, err
	}

	if c := sc.ineligible; c != nil {
		out := new(big.Int).Set(amount)
		if out.Cmp(c.p.PoolStake) > 0 {
			out.Set(c.p.PoolStake)
		}
		return &Allocation{Provider: c.addr, Amount: out}, nil
	}

	c := sc.toUndelegate
	if c == nil {
		return nil, reverts.ErrNoEligibleProvider
	}
	low := new(big.Int)
	if sc.toDelegate != nil {
		low = sc.toDelegate.topup
	}
	out := capByGap(amount, low, c.topup, c.p.StakedNodes)
	if out.Cmp(c.p.PoolStake) > 0 {
		out.Set(c.p.PoolStake)
	}
	left := new(big.Int).Sub(c.p.PoolStake, out)
	if left.Sign() > 0 && left.Cmp(lsd.MinAmount) < 0 {
		out.Sub(c.p.PoolStake, lsd.MinAmount)
	}
	if out.Cmp(lsd.MinAmount) < 0 {
		out.SetInt64(0)
	}
	return &Allocation{Provider: c.addr, Amount: out}, nil
}
