// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport"
)

// maxConcurrentRequests bounds the requests of one step on the wire at once.
const maxConcurrentRequests = 16

var kindOps = map[operation.Kind]transport.Op{
	operation.KindDelegate:      transport.OpDelegate,
	operation.KindUndelegate:    transport.OpUndelegate,
	operation.KindDelegateAll:   transport.OpDelegate,
	operation.KindUndelegateAll: transport.OpUndelegate,
	operation.KindClaimRewards:  transport.OpClaimRewards,
	operation.KindWithdrawAll:   transport.OpWithdraw,
	operation.KindRefreshConfig: transport.OpGetConfig,
	operation.KindRefreshStake:  transport.OpGetTotalStake,
	operation.KindRefreshNodes:  transport.OpGetNodeStates,
	operation.KindRefreshFunds:  transport.OpGetFunds,
}

// encodeRequest builds the wire request of an operation issued by the pool at delegator.
func encodeRequest(delegator lsd.Address, op *operation.Operation) (transport.Request, error) {
	wireOp, ok := kindOps[op.Kind]
	if !ok {
		return transport.Request{}, errors.Errorf("no wire op for %v", op.Kind)
	}
	var msg any
	switch wireOp {
	case transport.OpDelegate, transport.OpUndelegate:
		msg = &transport.DelegateMsg{Delegator: delegator, Amount: op.Amount}
	case transport.OpClaimRewards, transport.OpWithdraw, transport.OpGetFunds:
		msg = &transport.DelegatorMsg{Delegator: delegator}
	}
	payload, err := transport.Encode(msg)
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{Provider: op.Provider, Op: wireOp, Payload: payload}, nil
}

// decodeResult turns a provider answer into the result of the operation.
func decodeResult(kind operation.Kind, resp []byte) (*pool.Result, error) {
	res := &pool.Result{}
	switch kind {
	case operation.KindRefreshConfig:
		var msg transport.ConfigMsg
		if err := transport.Decode(resp, &msg); err != nil {
			return nil, err
		}
		res.Config = &provider.Config{Fee: msg.Fee, HasCap: msg.HasCap, MaxCap: msg.MaxCap}
	case operation.KindRefreshNodes:
		var msg transport.NodesMsg
		if err := transport.Decode(resp, &msg); err != nil {
			return nil, err
		}
		res.Nodes = msg.Statuses
	case operation.KindRefreshFunds:
		var msg transport.FundsMsg
		if err := transport.Decode(resp, &msg); err != nil {
			return nil, err
		}
		res.Funds = &provider.Funds{
			Stake:        msg.Stake,
			Rewards:      msg.Rewards,
			Undelegated:  msg.Undelegated,
			Withdrawable: msg.Withdrawable,
		}
	default:
		var msg transport.AmountMsg
		if err := transport.Decode(resp, &msg); err != nil {
			return nil, err
		}
		if kind == operation.KindRefreshStake {
			res.Stake = msg.Amount
		} else {
			res.Amount = msg.Amount
		}
	}
	return res, nil
}

func failed(err error) *pool.Result {
	return &pool.Result{Failed: true, Reason: err.Error()}
}

// dispatch sends the requests concurrently. Answers are queued back to the writer loop.
// Answers lost to shutdown leave their operations pending.
func (n *Node) dispatch(ctx context.Context, reqs []*pool.Request) {
	if len(reqs) == 0 {
		return
	}

	n.mu.Lock()
	var todo []*pool.Request
	for _, r := range reqs {
		if _, ok := n.inflight[r.ID]; ok {
			continue
		}
		n.inflight[r.ID] = struct{}{}
		todo = append(todo, r)
	}
	n.mu.Unlock()

	n.goes.Go(func() {
		var g errgroup.Group
		g.SetLimit(maxConcurrentRequests)
		for _, r := range todo {
			g.Go(func() error {
				a := &answer{id: r.ID, res: n.call(ctx, r)}
				if ctx.Err() != nil {
					// shutting down, the operation stays pending for the next start
					return nil
				}
				metricRequests().AddWithLabel(1, map[string]string{"kind": r.Op.Kind.String(), "failed": boolLabel(a.res.Failed)})
				select {
				case n.answerCh <- a:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	})
}

// call sends one request and waits for its answer.
func (n *Node) call(ctx context.Context, r *pool.Request) *pool.Result {
	req, err := encodeRequest(n.opts.Pool, r.Op)
	if err != nil {
		return failed(err)
	}
	if n.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.opts.RequestTimeout)
		defer cancel()
	}

	f := transport.Dispatch(ctx, n.transport, req)
	var resp []byte
	select {
	case <-f.Done():
		resp, err = f.Result()
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		logger.Debug("request failed", "id", r.ID, "op", req.Op, "provider", req.Provider, "err", err)
		return failed(err)
	}
	res, err := decodeResult(r.Op.Kind, resp)
	if err != nil {
		return failed(err)
	}
	return res
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
