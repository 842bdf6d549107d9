// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/pool/undelegation"
	"github.com/vechain/lsd/lsd"
)

// Delegate deposits amount for account. When a single provider can take the whole amount
// it is sent right away and the shares are minted once the provider confirms, otherwise
// the shares are minted now and the amount waits for the next DelegateAll.
func (p *Pool) Delegate(account lsd.Address, amount *big.Int) (shares *big.Int, err error) {
	logger.Debug("delegating", "account", account, "amount", amount)
	err = p.atomic("delegate", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if amount == nil || amount.Cmp(lsd.MinAmount) < 0 {
			return reverts.ErrInsufficientAmount
		}
		if shares, err = p.ledger.Deposit(amount); err != nil {
			return err
		}

		alloc, err := p.selectForDelegation(amount)
		if err != nil {
			return err
		}
		if alloc != nil && alloc.Amount.Cmp(amount) == 0 {
			id, err := p.issue(&operation.Operation{
				Kind:     operation.KindDelegate,
				Provider: alloc.Provider,
				Account:  account,
				Amount:   amount,
				Shares:   shares,
			})
			if err != nil {
				return err
			}
			p.emit(newEvent(EventDelegate, account, alloc.Provider, amount, shares, id))
			return nil
		}

		if err := p.token.Mint(account, shares); err != nil {
			return err
		}
		if err := p.toDelegate.Add(amount); err != nil {
			return err
		}
		p.emit(newEvent(EventDelegated, account, lsd.Address{}, amount, shares, 0))
		return nil
	})
	if err != nil {
		logger.Info("delegate failed", "account", account, "error", err)
		return nil, err
	}
	return shares, nil
}

// Undelegate redeems shares of account. When a single provider can release the whole amount
// it is requested right away and queued once the provider confirms, otherwise it is queued
// now and waits for the next UndelegateAll.
func (p *Pool) Undelegate(account lsd.Address, shares *big.Int) (amount *big.Int, err error) {
	logger.Debug("undelegating", "account", account, "shares", shares)
	err = p.atomic("undelegate", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if shares == nil || shares.Sign() <= 0 {
			return reverts.ErrBadRedeemAmount
		}
		unbond, err := p.unbondEpoch(p.env.Epoch)
		if err != nil {
			return err
		}
		if amount, err = p.ledger.Redeem(shares); err != nil {
			return err
		}
		if err := p.token.Burn(account, shares); err != nil {
			return err
		}

		alloc, err := p.selectForUndelegation(amount)
		if err != nil {
			return err
		}
		if alloc != nil && alloc.Amount.Cmp(amount) == 0 {
			id, err := p.issue(&operation.Operation{
				Kind:     operation.KindUndelegate,
				Provider: alloc.Provider,
				Account:  account,
				Amount:   amount,
				Shares:   shares,
			})
			if err != nil {
				return err
			}
			p.emit(newEvent(EventUndelegate, account, alloc.Provider, amount, shares, id))
			return nil
		}

		if err := p.enqueueUser(account, amount, unbond); err != nil {
			return err
		}
		if err := p.toUndelegate.Add(amount); err != nil {
			return err
		}
		p.emit(newEvent(EventUndelegated, account, lsd.Address{}, amount, shares, 0))
		return nil
	})
	if err != nil {
		logger.Info("undelegate failed", "account", account, "error", err)
		return nil, err
	}
	return amount, nil
}

// Withdraw pays account every matured undelegation already covered by returned funds.
func (p *Pool) Withdraw(account lsd.Address) (amount *big.Int, err error) {
	err = p.atomic("withdraw", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if err := p.computeWithdrawn(); err != nil {
			return err
		}
		available, err := p.userWithdrawn.Get()
		if err != nil {
			return err
		}
		consumed, residual, err := p.queues.Settle(undelegation.User(account), available, p.env.Epoch)
		if err != nil {
			return err
		}
		if consumed.Sign() == 0 {
			return reverts.ErrNothingToWithdraw
		}
		if err := p.userWithdrawn.Set(residual); err != nil {
			return err
		}
		amount = consumed
		p.emit(newEvent(EventWithdraw, account, lsd.Address{}, consumed, nil, 0))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// UndelegateNow redeems shares of account against the reserve, for a fee paid to reserve
// contributors. The full amount is queued for the reserve and undelegated later.
func (p *Pool) UndelegateNow(account lsd.Address, shares, minOut *big.Int) (payout *big.Int, err error) {
	err = p.atomic("undelegate-now", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if shares == nil || shares.Sign() <= 0 {
			return reverts.ErrBadRedeemAmount
		}
		unbond, err := p.unbondEpoch(p.env.Epoch)
		if err != nil {
			return err
		}
		feeBps, err := p.params.GetUint64(params.KeyUndelegateNowFee)
		if err != nil {
			return err
		}
		amount, err := p.ledger.Redeem(shares)
		if err != nil {
			return err
		}
		if err := p.token.Burn(account, shares); err != nil {
			return err
		}
		if amount.Cmp(lsd.MinAmount) < 0 {
			return reverts.ErrBadRedeemAmount
		}

		fee := feeOf(amount, feeBps)
		payout = new(big.Int).Sub(amount, fee)
		if minOut != nil && payout.Cmp(minOut) < 0 {
			return reverts.ErrSlippage
		}
		if err := p.reserve.FundInstantRedemption(payout, fee); err != nil {
			return err
		}
		if err := p.queues.Enqueue(undelegation.Reserve, amount, unbond, p.env.Epoch); err != nil {
			return err
		}
		if err := p.toUndelegate.Add(amount); err != nil {
			return err
		}
		p.emit(newEvent(EventUndelegateNow, account, lsd.Address{}, payout, shares, 0))
		return nil
	})
	if err != nil {
		logger.Info("undelegate now failed", "account", account, "error", err)
		return nil, err
	}
	return payout, nil
}

// AddReserve adds amount to the reserve on behalf of account.
func (p *Pool) AddReserve(account lsd.Address, amount *big.Int) (points *big.Int, err error) {
	err = p.atomic("add-reserve", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if amount == nil || amount.Cmp(lsd.MinAmount) < 0 {
			return reverts.ErrInsufficientAmount
		}
		if points, err = p.reserve.Add(account, amount, p.env.Epoch); err != nil {
			return err
		}
		p.emit(newEvent(EventAddReserve, account, lsd.Address{}, amount, points, 0))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// RemoveReserve takes amount out of the reserve of account. It is allowed from the epoch
// after the last add. A remainder below lsd.DustThreshold is swept into the removal, any
// other remainder must be at least lsd.MinAmount.
func (p *Pool) RemoveReserve(account lsd.Address, amount *big.Int) (removed *big.Int, err error) {
	err = p.atomic("remove-reserve", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrInsufficientAmount
		}
		addEpoch, err := p.reserve.AddEpoch(account)
		if err != nil {
			return err
		}
		if addEpoch >= p.env.Epoch {
			return reverts.ErrRemoveReserveTooSoon
		}
		if err := p.computeWithdrawn(); err != nil {
			return err
		}

		value, err := p.reserve.ValueOf(account)
		if err != nil {
			return err
		}
		if value.Sign() == 0 || value.Cmp(amount) < 0 {
			return reverts.ErrInsufficientAmount
		}
		var points *big.Int
		if left := new(big.Int).Sub(value, amount); left.Cmp(lsd.DustThreshold) < 0 {
			if points, err = p.reserve.PointsOf(account); err != nil {
				return err
			}
		} else {
			if left.Cmp(lsd.MinAmount) < 0 {
				return reverts.ErrCantLeaveDust
			}
			if points, err = p.reserve.PointsFor(amount); err != nil {
				return err
			}
		}
		if removed, err = p.reserve.Remove(account, points); err != nil {
			return err
		}
		p.emit(newEvent(EventRemoveReserve, account, lsd.Address{}, removed, points, 0))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Transfer moves liquid shares between holders.
func (p *Pool) Transfer(from, to lsd.Address, shares *big.Int) error {
	return p.atomic("transfer", func() error {
		if shares == nil || shares.Sign() <= 0 {
			return reverts.ErrInsufficientAmount
		}
		return p.token.Transfer(from, to, shares)
	})
}

func (p *Pool) enqueueUser(account lsd.Address, amount *big.Int, unbond uint64) error {
	if err := p.queues.Enqueue(undelegation.User(account), amount, unbond, p.env.Epoch); err != nil {
		return errors.Wrap(err, "user queue")
	}
	if err := p.queues.Enqueue(undelegation.TotalUsers, amount, unbond, p.env.Epoch); err != nil {
		return errors.Wrap(err, "total users queue")
	}
	return nil
}

// selectForDelegation returns nil when no provider qualifies.
func (p *Pool) selectForDelegation(amount *big.Int) (*provider.Allocation, error) {
	policy, err := p.policy()
	if err != nil {
		return nil, err
	}
	alloc, err := p.providers.SelectForDelegation(amount, policy)
	if errors.Is(err, reverts.ErrNoEligibleProvider) {
		return nil, nil
	}
	return alloc, err
}

// selectForUndelegation returns nil when no provider holds pool stake.
func (p *Pool) selectForUndelegation(amount *big.Int) (*provider.Allocation, error) {
	policy, err := p.policy()
	if err != nil {
		return nil, err
	}
	alloc, err := p.providers.SelectForUndelegation(amount, policy)
	if errors.Is(err, reverts.ErrNoEligibleProvider) {
		return nil, nil
	}
	return alloc, err
}
