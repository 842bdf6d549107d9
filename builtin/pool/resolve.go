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
	"github.com/vechain/lsd/lsd"
)

// Resolve finalizes a pending operation with the provider's answer.
func (p *Pool) Resolve(id operation.ID, res *Result) error {
	if res == nil {
		res = &Result{Failed: true, Reason: "no result"}
	}
	return p.atomic("resolve", func() error {
		var (
			op  *operation.Operation
			err error
		)
		if res.Failed {
			op, err = p.ops.Revert(id)
		} else {
			op, err = p.ops.Settle(id)
		}
		if err != nil {
			return err
		}
		metricResolved().AddWithLabel(1, map[string]string{"kind": op.Kind.String(), "failed": boolLabel(res.Failed)})
		if res.Failed {
			logger.Info("request failed", "id", id, "kind", op.Kind, "provider", op.Provider, "reason", res.Reason)
			p.emit(newEvent(EventRequestFailed, op.Account, op.Provider, op.Amount, op.Shares, id))
		}

		switch op.Kind {
		case operation.KindDelegate:
			return p.onDelegate(id, op, res)
		case operation.KindUndelegate:
			return p.onUndelegate(id, op, res)
		case operation.KindDelegateAll:
			return p.onBatch(p.toDelegate.Add, op, res)
		case operation.KindUndelegateAll:
			return p.onBatch(p.toUndelegate.Add, op, res)
		case operation.KindClaimRewards:
			return p.onClaimRewards(id, op, res)
		case operation.KindWithdrawAll:
			return p.onWithdrawAll(id, op, res)
		case operation.KindRefreshConfig, operation.KindRefreshStake, operation.KindRefreshNodes, operation.KindRefreshFunds:
			return p.onRefresh(id, op, res)
		}
		return errors.Errorf("unknown operation kind %d", op.Kind)
	})
}

// Pending returns every operation waiting for a provider answer, oldest first.
func (p *Pool) Pending() ([]*Request, error) {
	ids, err := p.ops.Pending()
	if err != nil {
		return nil, err
	}
	out := make([]*Request, 0, len(ids))
	for _, id := range ids {
		op, err := p.ops.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, &Request{ID: id, Op: op})
	}
	return out, nil
}

// Operation returns a recorded operation.
func (p *Pool) Operation(id operation.ID) (*operation.Operation, error) {
	return p.ops.Get(id)
}

// onDelegate mints the shares on success, and undoes the deposit on failure.
func (p *Pool) onDelegate(id operation.ID, op *operation.Operation, res *Result) error {
	if err := p.touch(op.Provider, provider.KindStake, provider.KindFunds); err != nil {
		return err
	}
	if res.Failed {
		if err := p.ledger.Undo(op.Amount, op.Shares); err != nil {
			return err
		}
		p.emit(newEvent(EventRefund, op.Account, op.Provider, op.Amount, nil, id))
		return nil
	}
	if err := p.token.Mint(op.Account, op.Shares); err != nil {
		return err
	}
	p.emit(newEvent(EventDelegated, op.Account, op.Provider, op.Amount, op.Shares, id))
	return nil
}

// onUndelegate queues the amount on success, and gives the shares back on failure.
func (p *Pool) onUndelegate(id operation.ID, op *operation.Operation, res *Result) error {
	if err := p.touch(op.Provider, provider.KindStake, provider.KindFunds); err != nil {
		return err
	}
	if res.Failed {
		if err := p.ledger.Restore(op.Amount, op.Shares); err != nil {
			return err
		}
		if err := p.token.Mint(op.Account, op.Shares); err != nil {
			return err
		}
		p.emit(newEvent(EventRefund, op.Account, op.Provider, nil, op.Shares, id))
		return nil
	}
	unbond, err := p.unbondEpoch(op.Epoch)
	if err != nil {
		return err
	}
	if err := p.enqueueUser(op.Account, op.Amount, unbond); err != nil {
		return err
	}
	p.emit(newEvent(EventUndelegated, op.Account, op.Provider, op.Amount, op.Shares, id))
	return nil
}

// onBatch puts a failed batch amount back into its buffer.
func (p *Pool) onBatch(restore func(*big.Int) error, op *operation.Operation, res *Result) error {
	if err := p.touch(op.Provider, provider.KindStake, provider.KindFunds); err != nil {
		return err
	}
	if res.Failed {
		return restore(op.Amount)
	}
	return nil
}

// onClaimRewards pays the service commission to the owner and puts the rest back to work.
func (p *Pool) onClaimRewards(id operation.ID, op *operation.Operation, res *Result) error {
	if err := p.touch(op.Provider, provider.KindFunds); err != nil {
		return err
	}
	if res.Failed || res.Amount == nil || res.Amount.Sign() == 0 {
		return nil
	}
	feeBps, err := p.params.GetUint64(params.KeyServiceFee)
	if err != nil {
		return err
	}
	owner, err := p.owner.Get()
	if err != nil {
		return err
	}
	commission := feeOf(res.Amount, feeBps)
	left := new(big.Int).Sub(res.Amount, commission)
	if err := p.ledger.AccrueRewards(left); err != nil {
		return err
	}
	if err := p.toDelegate.Add(left); err != nil {
		return err
	}
	if err := p.clearProvider(p.providers.ClearRewards, op.Provider); err != nil {
		return err
	}
	p.emit(newEvent(EventRewardsClaimed, lsd.Address{}, op.Provider, left, nil, id))
	if commission.Sign() > 0 {
		p.emit(newEvent(EventCommission, owner, op.Provider, commission, nil, id))
	}
	logger.Debug("claimed rewards", "provider", op.Provider, "amount", res.Amount, "commission", commission)
	return nil
}

// onWithdrawAll records funds returned by a provider.
func (p *Pool) onWithdrawAll(id operation.ID, op *operation.Operation, res *Result) error {
	if err := p.touch(op.Provider, provider.KindFunds); err != nil {
		return err
	}
	if res.Failed || res.Amount == nil || res.Amount.Sign() == 0 {
		return nil
	}
	if err := p.totalWithdrawn.Add(res.Amount); err != nil {
		return err
	}
	if err := p.clearProvider(p.providers.ClearWithdrawable, op.Provider); err != nil {
		return err
	}
	p.emit(newEvent(EventWithdrawAll, lsd.Address{}, op.Provider, res.Amount, nil, id))
	return nil
}

// onRefresh updates a provider view, or marks it stale on failure.
func (p *Pool) onRefresh(id operation.ID, op *operation.Operation, res *Result) error {
	kind := viewKinds[op.Kind]
	if res.Failed {
		return p.touch(op.Provider, kind)
	}

	var err error
	switch kind {
	case provider.KindConfig:
		if res.Config == nil {
			return p.touch(op.Provider, kind)
		}
		err = p.providers.ApplyConfig(op.Provider, *res.Config, p.env.Height)
	case provider.KindStake:
		err = p.providers.ApplyStake(op.Provider, res.Stake, p.env.Height)
	case provider.KindNodes:
		err = p.providers.ApplyNodes(op.Provider, res.Nodes, p.env.Height)
	case provider.KindFunds:
		if res.Funds == nil {
			return p.touch(op.Provider, kind)
		}
		err = p.providers.ApplyFunds(op.Provider, *res.Funds, p.env.Height, p.env.Epoch)
	}
	if errors.Is(err, reverts.ErrProviderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.emit(newEvent(refreshedEvents[kind], lsd.Address{}, op.Provider, nil, nil, id))
	return nil
}

func (p *Pool) clearProvider(clear func(lsd.Address) error, addr lsd.Address) error {
	err := clear(addr)
	if errors.Is(err, reverts.ErrProviderNotFound) {
		return nil
	}
	return err
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
