// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mock

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport"
)

var (
	provA = lsd.BytesToAddress([]byte("provider-a"))
	pool  = lsd.BytesToAddress([]byte("pool"))
)

func send(t *testing.T, n *Network, op transport.Op, req, resp any) error {
	payload, err := transport.Encode(req)
	require.NoError(t, err)
	out, err := n.Send(context.Background(), provA, op, payload)
	if err != nil {
		return err
	}
	if resp != nil {
		require.NoError(t, transport.Decode(out, resp))
	}
	return nil
}

func newNetwork(t *testing.T, cfg ProviderConfig) *Network {
	n := NewNetwork(WithUnbondPeriod(2))
	cfg.Address = provA
	require.NoError(t, n.AddProvider(cfg))
	return n
}

func TestRewards(t *testing.T) {
	// 10% a year of 365 tokens is 0.1 token per epoch
	assert.Equal(t, new(big.Int).Div(lsd.OneToken, big.NewInt(10)), Rewards(lsd.Tokens(365), 1))
	assert.Equal(t, lsd.Tokens(1), Rewards(lsd.Tokens(365), 10))
	assert.Equal(t, 0, Rewards(new(big.Int), 5).Sign())
	assert.Equal(t, 0, Rewards(lsd.Tokens(1), 0).Sign())
}

func TestDelegateAndFunds(t *testing.T) {
	n := newNetwork(t, ProviderConfig{Fee: 500, MaxCap: lsd.Tokens(100), Nodes: []string{"staked", "queued"}, Stake: lsd.Tokens(50)})

	var amount transport.AmountMsg
	require.NoError(t, send(t, n, transport.OpDelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(40)}, &amount))
	assert.Equal(t, lsd.Tokens(40), amount.Amount)

	// cap is 100, 90 taken
	err := send(t, n, transport.OpDelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(11)}, nil)
	assert.ErrorIs(t, err, errOverCap)

	require.NoError(t, send(t, n, transport.OpGetTotalStake, nil, &amount))
	assert.Equal(t, lsd.Tokens(90), amount.Amount)

	var cfg transport.ConfigMsg
	require.NoError(t, send(t, n, transport.OpGetConfig, nil, &cfg))
	assert.Equal(t, uint64(500), cfg.Fee)
	assert.True(t, cfg.HasCap)
	assert.Equal(t, lsd.Tokens(100), cfg.MaxCap)

	var nodes transport.NodesMsg
	require.NoError(t, send(t, n, transport.OpGetNodeStates, nil, &nodes))
	assert.Equal(t, []string{"staked", "queued"}, nodes.Statuses)

	n.SetEpoch(365)
	var funds transport.FundsMsg
	require.NoError(t, send(t, n, transport.OpGetFunds, &transport.DelegatorMsg{Delegator: pool}, &funds))
	assert.Equal(t, lsd.Tokens(40), funds.Stake)
	assert.Equal(t, lsd.Tokens(4), funds.Rewards)
	assert.Equal(t, 0, funds.Withdrawable.Sign())

	require.NoError(t, send(t, n, transport.OpClaimRewards, &transport.DelegatorMsg{Delegator: pool}, &amount))
	assert.Equal(t, lsd.Tokens(4), amount.Amount)
	_, rewards, _, err := n.Position(provA, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, rewards.Sign())
}

func TestUndelegateAndWithdraw(t *testing.T) {
	n := newNetwork(t, ProviderConfig{})
	require.NoError(t, send(t, n, transport.OpDelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(10)}, nil))

	assert.ErrorIs(t, send(t, n, transport.OpUndelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(11)}, nil), errNotEnough)
	require.NoError(t, send(t, n, transport.OpUndelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(4)}, nil))

	var amount transport.AmountMsg
	require.NoError(t, send(t, n, transport.OpWithdraw, &transport.DelegatorMsg{Delegator: pool}, &amount))
	assert.Equal(t, 0, amount.Amount.Sign())

	n.SetEpoch(1)
	// a second undelegation restarts the unbond period
	require.NoError(t, send(t, n, transport.OpUndelegate, &transport.DelegateMsg{Delegator: pool, Amount: lsd.Tokens(1)}, nil))
	n.SetEpoch(2)
	require.NoError(t, send(t, n, transport.OpWithdraw, &transport.DelegatorMsg{Delegator: pool}, &amount))
	assert.Equal(t, 0, amount.Amount.Sign())

	n.SetEpoch(3)
	var funds transport.FundsMsg
	require.NoError(t, send(t, n, transport.OpGetFunds, &transport.DelegatorMsg{Delegator: pool}, &funds))
	assert.Equal(t, lsd.Tokens(5), funds.Withdrawable)

	require.NoError(t, send(t, n, transport.OpWithdraw, &transport.DelegatorMsg{Delegator: pool}, &amount))
	assert.Equal(t, lsd.Tokens(5), amount.Amount)
	_, _, undelegated, err := n.Position(provA, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, undelegated.Sign())
}

func TestFailureInjection(t *testing.T) {
	n := newNetwork(t, ProviderConfig{FailEvery: 3})

	var errs int
	for range 9 {
		if send(t, n, transport.OpGetConfig, nil, nil) != nil {
			errs++
		}
	}
	assert.Equal(t, 3, errs)

	require.NoError(t, n.Update(provA, func(cfg *ProviderConfig) { cfg.FailEvery = 0 }))
	require.NoError(t, n.SetDown(provA, transport.OpGetFunds, true))
	assert.ErrorIs(t, send(t, n, transport.OpGetFunds, &transport.DelegatorMsg{Delegator: pool}, nil), errInjected)
	assert.NoError(t, send(t, n, transport.OpGetConfig, nil, nil))

	_, err := n.Send(context.Background(), lsd.BytesToAddress([]byte("nobody")), transport.OpGetConfig, nil)
	assert.ErrorIs(t, err, transport.ErrUnknownProvider)

	assert.ErrorIs(t, send(t, n, transport.Op("bogus"), nil, nil), transport.ErrUnknownOp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Send(ctx, provA, transport.OpGetConfig, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
