// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/ledger"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/undelegation"
	"github.com/vechain/lsd/lsd"
)

// Info returns the pool wide view.
func (p *Pool) Info() (*Info, error) {
	var (
		info = &Info{}
		err  error
	)
	if info.Owner, err = p.owner.Get(); err != nil {
		return nil, err
	}
	if info.State, err = p.State(); err != nil {
		return nil, err
	}
	if info.TotalStaked, info.LiquidSupply, err = p.ledger.Totals(); err != nil {
		return nil, err
	}
	if info.TokenPrice, err = p.ledger.TokenPrice(); err != nil {
		return nil, err
	}
	if info.ToDelegate, err = p.toDelegate.Get(); err != nil {
		return nil, err
	}
	if info.ToUndelegate, err = p.toUndelegate.Get(); err != nil {
		return nil, err
	}
	if info.TotalWithdrawn, err = p.totalWithdrawn.Get(); err != nil {
		return nil, err
	}
	if info.UserWithdrawn, err = p.userWithdrawn.Get(); err != nil {
		return nil, err
	}
	rt, err := p.reserve.Totals()
	if err != nil {
		return nil, err
	}
	info.ReserveTotal, info.ReserveAvailable, info.ReservePoints = rt.Total, rt.Available, rt.Points
	if info.UsersUndelegating, err = p.queues.Total(undelegation.TotalUsers); err != nil {
		return nil, err
	}
	if info.ReserveUndelegating, err = p.queues.Total(undelegation.Reserve); err != nil {
		return nil, err
	}
	if info.UnbondPeriod, err = p.params.GetUint64(params.KeyUnbondPeriod); err != nil {
		return nil, err
	}
	if info.UndelegateNowFee, err = p.params.GetUint64(params.KeyUndelegateNowFee); err != nil {
		return nil, err
	}
	if info.ServiceFee, err = p.params.GetUint64(params.KeyServiceFee); err != nil {
		return nil, err
	}
	if info.Providers, err = p.providers.Count(); err != nil {
		return nil, err
	}
	if info.PendingOperations, err = p.ops.PendingCount(); err != nil {
		return nil, err
	}
	if info.LastDelegationBlock, err = p.lastDelegationBlock.Get(); err != nil {
		return nil, err
	}
	return info, nil
}

// UserInfo returns the view of account.
func (p *Pool) UserInfo(account lsd.Address) (*UserInfo, error) {
	var (
		info = &UserInfo{}
		err  error
	)
	if info.Shares, err = p.token.BalanceOf(account); err != nil {
		return nil, err
	}
	staked, supply, err := p.ledger.Totals()
	if err != nil {
		return nil, err
	}
	info.ShareValue = ledger.AmountFor(info.Shares, staked, supply)
	if info.ReservePoints, err = p.reserve.PointsOf(account); err != nil {
		return nil, err
	}
	if info.ReserveValue, err = p.reserve.ValueOf(account); err != nil {
		return nil, err
	}
	if info.AddReserveEpoch, err = p.reserve.AddEpoch(account); err != nil {
		return nil, err
	}
	q, err := p.queues.Entries(undelegation.User(account))
	if err != nil {
		return nil, err
	}
	for _, e := range q {
		info.Undelegations = append(info.Undelegations, Undelegation{Amount: e.Amount, UnbondEpoch: e.Epoch})
	}
	info.Withdrawable = q.Matured(p.env.Epoch)
	return info, nil
}

// Provider returns the cached view of a provider.
func (p *Pool) Provider(addr lsd.Address) (*provider.Provider, error) {
	return p.providers.Get(addr)
}

// Providers returns provider addresses in registration order.
func (p *Pool) Providers() ([]lsd.Address, error) {
	return p.providers.List()
}

// IsUpToDate reports whether a provider has every view fresh.
func (p *Pool) IsUpToDate(addr lsd.Address) (bool, error) {
	c, err := p.clock()
	if err != nil {
		return false, err
	}
	return p.providers.IsUpToDate(addr, c)
}

// AllUpToDate reports whether every active provider has every view fresh.
func (p *Pool) AllUpToDate() (bool, error) {
	c, err := p.clock()
	if err != nil {
		return false, err
	}
	return p.providers.AllUpToDate(c)
}

// QuoteDeposit returns the shares a deposit of amount would mint now.
func (p *Pool) QuoteDeposit(amount *big.Int) (*big.Int, error) {
	return p.ledger.SimulateDeposit(amount)
}

// QuoteRedeem returns the amount a redemption of shares would be worth now.
func (p *Pool) QuoteRedeem(shares *big.Int) (*big.Int, error) {
	return p.ledger.SimulateRedeem(shares)
}

// QuoteUndelegateNow returns the payout and the fee of an instant redemption of shares.
func (p *Pool) QuoteUndelegateNow(shares *big.Int) (payout, fee *big.Int, err error) {
	amount, err := p.ledger.SimulateRedeem(shares)
	if err != nil {
		return nil, nil, err
	}
	bps, err := p.params.GetUint64(params.KeyUndelegateNowFee)
	if err != nil {
		return nil, nil, err
	}
	fee = feeOf(amount, bps)
	return new(big.Int).Sub(amount, fee), fee, nil
}
