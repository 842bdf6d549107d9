// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/pool/undelegation"
	"github.com/vechain/lsd/lsd"
)

// DelegateAll sends part of the pending delegation buffer to the provider with the lowest
// topup. Pending delegations and undelegations are netted first. It returns the amount sent,
// zero when nothing could be placed or provider views had to be refreshed first.
func (p *Pool) DelegateAll() (sent *big.Int, err error) {
	sent = new(big.Int)
	err = p.atomic("delegate-all", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		toDelegate, err := p.toDelegate.Get()
		if err != nil {
			return err
		}
		if toDelegate.Cmp(lsd.MinAmount) < 0 {
			return reverts.ErrInsufficientAmount
		}
		minBlocks, err := p.params.GetUint64(params.KeyMinBlocksBetweenDelegations)
		if err != nil {
			return err
		}
		last, err := p.lastDelegationBlock.Get()
		if err != nil {
			return err
		}
		if last != 0 && last+minBlocks > p.env.Height {
			return reverts.ErrDelegateTooSoon
		}
		if err := p.lastDelegationBlock.Set(p.env.Height); err != nil {
			return err
		}

		if toDelegate, _, err = p.net(); err != nil {
			return err
		}
		if toDelegate.Sign() == 0 {
			return nil
		}
		if ready, err := p.refreshIfStale(); err != nil || !ready {
			return err
		}

		alloc, err := p.selectForDelegation(toDelegate)
		if err != nil || alloc == nil || alloc.Amount.Sign() == 0 {
			return err
		}
		if err := p.toDelegate.Sub(alloc.Amount); err != nil {
			return err
		}
		id, err := p.issue(&operation.Operation{
			Kind:     operation.KindDelegateAll,
			Provider: alloc.Provider,
			Amount:   alloc.Amount,
		})
		if err != nil {
			return err
		}
		sent.Set(alloc.Amount)
		p.emit(newEvent(EventDelegateAll, lsd.Address{}, alloc.Provider, alloc.Amount, nil, id))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

// UndelegateAll requests part of the pending undelegation buffer from the provider with the
// highest topup, or from a provider that became ineligible. It returns the amount requested.
func (p *Pool) UndelegateAll() (sent *big.Int, err error) {
	sent = new(big.Int)
	err = p.atomic("undelegate-all", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		toUndelegate, err := p.toUndelegate.Get()
		if err != nil {
			return err
		}
		if toUndelegate.Cmp(lsd.MinAmount) < 0 {
			return reverts.ErrInsufficientAmount
		}
		if _, toUndelegate, err = p.net(); err != nil {
			return err
		}
		if toUndelegate.Sign() == 0 {
			return nil
		}
		if ready, err := p.refreshIfStale(); err != nil || !ready {
			return err
		}

		alloc, err := p.selectForUndelegation(toUndelegate)
		if err != nil || alloc == nil || alloc.Amount.Sign() == 0 {
			return err
		}
		if err := p.toUndelegate.Sub(alloc.Amount); err != nil {
			return err
		}
		id, err := p.issue(&operation.Operation{
			Kind:     operation.KindUndelegateAll,
			Provider: alloc.Provider,
			Amount:   alloc.Amount,
		})
		if err != nil {
			return err
		}
		sent.Set(alloc.Amount)
		p.emit(newEvent(EventUndelegateAll, lsd.Address{}, alloc.Provider, alloc.Amount, nil, id))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

// net cancels pending delegations against pending undelegations. The cancelled amount
// never leaves the pool, so it counts as withdrawn.
func (p *Pool) net() (toDelegate, toUndelegate *big.Int, err error) {
	if toDelegate, err = p.toDelegate.Get(); err != nil {
		return
	}
	if toUndelegate, err = p.toUndelegate.Get(); err != nil {
		return
	}
	m := toDelegate
	if toUndelegate.Cmp(m) < 0 {
		m = toUndelegate
	}
	if m.Sign() == 0 {
		return
	}
	m = new(big.Int).Set(m)
	toDelegate.Sub(toDelegate, m)
	toUndelegate.Sub(toUndelegate, m)
	if err = p.toDelegate.Set(toDelegate); err != nil {
		return
	}
	if err = p.toUndelegate.Set(toUndelegate); err != nil {
		return
	}
	err = p.totalWithdrawn.Add(m)
	return
}

// ClaimRewards asks every up to date provider with pending rewards to pay them out.
// It returns the number of claims issued.
func (p *Pool) ClaimRewards() (issued int, err error) {
	err = p.atomic("claim-rewards", func() error {
		issued = 0
		if err := p.requireActive(); err != nil {
			return err
		}
		if ready, err := p.refreshIfStale(); err != nil || !ready {
			return err
		}
		return p.providers.Each(func(addr lsd.Address, prov *provider.Provider) error {
			if !prov.IsActive() || prov.PoolRewards.Sign() == 0 {
				return nil
			}
			if err := p.issueClaim(operation.KindClaimRewards, addr); err != nil {
				return err
			}
			issued++
			return nil
		})
	})
	return issued, err
}

// WithdrawAll asks every up to date provider with withdrawable funds to return them.
// It returns the number of withdrawals issued.
func (p *Pool) WithdrawAll() (issued int, err error) {
	err = p.atomic("withdraw-all", func() error {
		issued = 0
		if err := p.requireActive(); err != nil {
			return err
		}
		if ready, err := p.refreshIfStale(); err != nil || !ready {
			return err
		}
		return p.providers.Each(func(addr lsd.Address, prov *provider.Provider) error {
			if !prov.IsActive() || prov.PoolWithdrawable.Sign() == 0 {
				return nil
			}
			if err := p.issueClaim(operation.KindWithdrawAll, addr); err != nil {
				return err
			}
			issued++
			return nil
		})
	})
	return issued, err
}

// issueClaim sends a claim or withdraw request. The funds view is made stale at once so the
// same funds are not requested twice.
func (p *Pool) issueClaim(kind operation.Kind, addr lsd.Address) error {
	id, err := p.issue(&operation.Operation{Kind: kind, Provider: addr})
	if err != nil {
		return err
	}
	if err := p.providers.Invalidate(addr, provider.KindFunds); err != nil {
		return err
	}
	ev := EventRewardsClaimed
	if kind == operation.KindWithdrawAll {
		ev = EventWithdrawAll
	}
	p.emit(newEvent(ev, lsd.Address{}, addr, nil, nil, id))
	return nil
}

// ComputeWithdrawn applies funds returned by providers to the users queue first, then to
// the reserve queue.
func (p *Pool) ComputeWithdrawn() error {
	return p.atomic("compute-withdrawn", p.computeWithdrawn)
}

func (p *Pool) computeWithdrawn() error {
	total, err := p.totalWithdrawn.Get()
	if err != nil {
		return err
	}
	if total.Sign() == 0 {
		return nil
	}
	forUsers, left, err := p.queues.Settle(undelegation.TotalUsers, total, p.env.Epoch)
	if err != nil {
		return err
	}
	if err := p.userWithdrawn.Add(forUsers); err != nil {
		return err
	}
	forReserve, left, err := p.queues.Settle(undelegation.Reserve, left, p.env.Epoch)
	if err != nil {
		return err
	}
	if err := p.reserve.Settle(forReserve); err != nil {
		return err
	}
	if forUsers.Sign() > 0 || forReserve.Sign() > 0 {
		p.emit(newEvent(EventWithdrawn, lsd.Address{}, lsd.Address{}, forUsers, forReserve, 0))
		logger.Debug("computed withdrawn", "users", forUsers, "reserve", forReserve, "left", left)
	}
	return p.totalWithdrawn.Set(left)
}

// Refresh requests every stale view of the active providers, skipping views whose refresh
// is already in flight. It returns the number of requests issued.
func (p *Pool) Refresh() (issued int, err error) {
	err = p.atomic("refresh", func() error {
		issued, err = p.refresh()
		return err
	})
	return issued, err
}

func (p *Pool) refresh() (int, error) {
	c, err := p.clock()
	if err != nil {
		return 0, err
	}
	reqs, err := p.providers.StaleRequests(c)
	if err != nil {
		return 0, err
	}
	inflight, err := p.inflightRefreshes()
	if err != nil {
		return 0, err
	}
	issued := 0
	for _, r := range reqs {
		if inflight[r] {
			continue
		}
		if err := p.issueRefresh(r.Provider, r.Kind); err != nil {
			return 0, err
		}
		issued++
	}
	return issued, nil
}

// refreshIfStale reports whether every active provider is up to date, issuing refreshes
// when not.
func (p *Pool) refreshIfStale() (bool, error) {
	c, err := p.clock()
	if err != nil {
		return false, err
	}
	ok, err := p.providers.AllUpToDate(c)
	if err != nil || ok {
		return ok, err
	}
	_, err = p.refresh()
	return false, err
}

func (p *Pool) inflightRefreshes() (map[provider.Request]bool, error) {
	ids, err := p.ops.Pending()
	if err != nil {
		return nil, err
	}
	out := make(map[provider.Request]bool)
	for _, id := range ids {
		op, err := p.ops.Get(id)
		if err != nil {
			return nil, err
		}
		if op.Kind.IsRefresh() {
			out[provider.Request{Provider: op.Provider, Kind: viewKinds[op.Kind]}] = true
		}
	}
	return out, nil
}
