// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
	"github.com/vechain/lsd/state"
)

var (
	poolAddr = lsd.BytesToAddress([]byte("pool"))
	owner    = lsd.BytesToAddress([]byte("owner"))
	alice    = lsd.BytesToAddress([]byte("alice"))
	bob      = lsd.BytesToAddress([]byte("bob"))
	carol    = lsd.BytesToAddress([]byte("carol"))
	provA    = lsd.BytesToAddress([]byte("provA"))
	provB    = lsd.BytesToAddress([]byte("provB"))
)

// fakeProvider answers requests the way a delegation provider would.
type fakeProvider struct {
	fee          uint64
	nodes        int
	hasCap       bool
	maxCap       *big.Int
	total        *big.Int
	stake        *big.Int
	rewards      *big.Int
	undelegated  *big.Int
	withdrawable *big.Int
	fail         bool
}

func newFake(fee uint64, nodes int, total *big.Int) *fakeProvider {
	return &fakeProvider{
		fee:          fee,
		nodes:        nodes,
		maxCap:       new(big.Int),
		total:        new(big.Int).Set(total),
		stake:        new(big.Int),
		rewards:      new(big.Int),
		undelegated:  new(big.Int),
		withdrawable: new(big.Int),
	}
}

func (f *fakeProvider) answer(op *operation.Operation) *Result {
	if f.fail {
		return &Result{Failed: true, Reason: "injected"}
	}
	switch op.Kind {
	case operation.KindDelegate, operation.KindDelegateAll:
		f.total.Add(f.total, op.Amount)
		f.stake.Add(f.stake, op.Amount)
		return &Result{}
	case operation.KindUndelegate, operation.KindUndelegateAll:
		f.total.Sub(f.total, op.Amount)
		f.stake.Sub(f.stake, op.Amount)
		f.undelegated.Add(f.undelegated, op.Amount)
		return &Result{}
	case operation.KindClaimRewards:
		amount := new(big.Int).Set(f.rewards)
		f.rewards.SetInt64(0)
		return &Result{Amount: amount}
	case operation.KindWithdrawAll:
		amount := new(big.Int).Set(f.withdrawable)
		f.withdrawable.SetInt64(0)
		return &Result{Amount: amount}
	case operation.KindRefreshConfig:
		return &Result{Config: &provider.Config{Fee: f.fee, HasCap: f.hasCap, MaxCap: new(big.Int).Set(f.maxCap)}}
	case operation.KindRefreshStake:
		return &Result{Stake: new(big.Int).Set(f.total)}
	case operation.KindRefreshNodes:
		nodes := make([]string, f.nodes)
		for i := range nodes {
			nodes[i] = provider.NodeStaked
		}
		return &Result{Nodes: nodes}
	case operation.KindRefreshFunds:
		return &Result{Funds: &provider.Funds{
			Stake:        new(big.Int).Set(f.stake),
			Rewards:      new(big.Int).Set(f.rewards),
			Undelegated:  new(big.Int).Set(f.undelegated),
			Withdrawable: new(big.Int).Set(f.withdrawable),
		}}
	}
	return &Result{Failed: true, Reason: "unknown"}
}

type harness struct {
	t     *testing.T
	st    *state.State
	pool  *Pool
	fakes map[lsd.Address]*fakeProvider
	order []lsd.Address

	events []*Event
}

func newHarness(t *testing.T) *harness {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	h := &harness{
		t:     t,
		st:    state.NewStater(db, 0).NewState(),
		fakes: make(map[lsd.Address]*fakeProvider),
	}
	h.pool = New(poolAddr, h.st, Env{Height: 1, Epoch: 0})
	return h
}

// step moves the pool to a new host clock. Unserved requests are dropped.
func (h *harness) step(height, epoch uint64) {
	h.collect()
	h.pool = New(poolAddr, h.st, Env{Height: height, Epoch: epoch})
}

func (h *harness) collect() {
	h.events = append(h.events, h.pool.TakeEvents()...)
}

// serve answers every request issued so far and returns how many were answered.
func (h *harness) serve() int {
	reqs := h.pool.TakeRequests()
	for _, r := range reqs {
		f, ok := h.fakes[r.Op.Provider]
		require.True(h.t, ok, "unknown provider %v", r.Op.Provider)
		require.NoError(h.t, h.pool.Resolve(r.ID, f.answer(r.Op)))
	}
	h.collect()
	return len(reqs)
}

func (h *harness) addProvider(addr lsd.Address, f *fakeProvider) {
	h.fakes[addr] = f
	h.order = append(h.order, addr)
	require.NoError(h.t, h.pool.AddProvider(owner, addr))
}

func (h *harness) info() *Info {
	info, err := h.pool.Info()
	require.NoError(h.t, err)
	return info
}

func (h *harness) shares(account lsd.Address) *big.Int {
	ui, err := h.pool.UserInfo(account)
	require.NoError(h.t, err)
	return ui.Shares
}

func (h *harness) kinds() []EventKind {
	h.collect()
	out := make([]EventKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (h *harness) eventsOf(kind EventKind) []*Event {
	h.collect()
	var out []*Event
	for _, ev := range h.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// newActive returns an active pool with provider A (fee 5%, 2 nodes at base stake),
// an unbond period of 2 epochs, every view fresh at height 1.
func newActive(t *testing.T, setup func(h *harness)) *harness {
	h := newHarness(t)
	require.NoError(t, h.pool.Init(owner))
	require.NoError(t, h.pool.SetUnbondPeriod(owner, 2))
	h.addProvider(provA, newFake(500, 2, lsd.Tokens(5000)))
	if setup != nil {
		setup(h)
	}
	h.serve()
	require.NoError(t, h.pool.Activate(owner))
	return h
}

// bufferAll makes every provider ineligible so user flows go through the buffers.
func bufferAll(h *harness) {
	require.NoError(h.t, h.pool.SetParam(owner, params.KeyMaxProviderFee, big.NewInt(100)))
}

func TestInitAndActivate(t *testing.T) {
	h := newHarness(t)

	_, err := h.pool.Delegate(alice, lsd.Tokens(1))
	assert.Equal(t, reverts.ErrNotActive, err)

	require.NoError(t, h.pool.Init(owner))
	assert.Equal(t, reverts.ErrUnauthorized, h.pool.Init(alice))
	assert.Equal(t, reverts.ErrUnauthorized, h.pool.Activate(alice))
	assert.Equal(t, reverts.ErrNoProviders, h.pool.Activate(owner))

	h.addProvider(provA, newFake(500, 2, lsd.Tokens(5000)))
	assert.Equal(t, 4, h.serve())
	assert.Equal(t, reverts.ErrUnbondPeriodNotSet, h.pool.Activate(owner))

	assert.Equal(t, reverts.ErrInvalidParam, h.pool.SetUnbondPeriod(owner, 0))
	assert.Equal(t, reverts.ErrInvalidParam, h.pool.SetUnbondPeriod(owner, lsd.MaxUnbondPeriod+1))
	assert.Equal(t, reverts.ErrInvalidParam, h.pool.SetUndelegateNowFee(owner, lsd.MaxPercent))
	require.NoError(t, h.pool.SetUnbondPeriod(owner, 2))
	require.NoError(t, h.pool.Activate(owner))

	assert.Equal(t, StateActive, h.info().State)
	assert.Equal(t, reverts.ErrNotInactive, h.pool.SetUnbondPeriod(owner, 3))
	assert.Equal(t, reverts.ErrNotInactive, h.pool.AddProvider(owner, provB))

	up, err := h.pool.IsUpToDate(provA)
	require.NoError(t, err)
	assert.True(t, up)
}

func TestDelegateDirect(t *testing.T) {
	h := newActive(t, nil)

	_, err := h.pool.Delegate(alice, new(big.Int).Sub(lsd.MinAmount, big.NewInt(1)))
	assert.Equal(t, reverts.ErrInsufficientAmount, err)

	shares, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(10), shares)

	// shares are minted once the provider confirms
	assert.Equal(t, 0, h.shares(alice).Sign())
	assert.Equal(t, uint64(1), h.info().PendingOperations)

	assert.Equal(t, 1, h.serve())
	assert.Equal(t, lsd.Tokens(10), h.shares(alice))
	info := h.info()
	assert.Equal(t, lsd.Tokens(10), info.TotalStaked)
	assert.Equal(t, lsd.Tokens(10), info.LiquidSupply)
	assert.Equal(t, 0, info.ToDelegate.Sign())
	assert.Equal(t, uint64(0), info.PendingOperations)
	assert.Equal(t, []EventKind{EventDelegate, EventDelegated}, h.kinds()[len(h.kinds())-2:])

	// stake and funds are stale after the delegation
	up, err := h.pool.IsUpToDate(provA)
	require.NoError(t, err)
	assert.False(t, up)
}

func TestDelegateDirectRefund(t *testing.T) {
	h := newActive(t, nil)
	h.fakes[provA].fail = true

	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	h.serve()

	info := h.info()
	assert.Equal(t, 0, info.TotalStaked.Sign())
	assert.Equal(t, 0, info.LiquidSupply.Sign())
	assert.Equal(t, 0, h.shares(alice).Sign())

	refunds := h.eventsOf(EventRefund)
	require.Len(t, refunds, 1)
	assert.Equal(t, alice, refunds[0].Account)
	assert.Equal(t, lsd.Tokens(10), refunds[0].Amount)

	op, err := h.pool.Operation(refunds[0].OpID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusReverted, op.Status)
}

func TestDelegateBuffered(t *testing.T) {
	h := newActive(t, bufferAll)

	shares, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(10), shares)
	assert.Equal(t, lsd.Tokens(10), h.shares(alice))
	assert.Equal(t, lsd.Tokens(10), h.info().ToDelegate)
	assert.Empty(t, h.pool.TakeRequests())
}

func TestUndelegateDirect(t *testing.T) {
	for _, fail := range []bool{false, true} {
		h := newActive(t, nil)
		_, err := h.pool.Delegate(alice, lsd.Tokens(10))
		require.NoError(t, err)
		h.serve()

		// learn the new pool stake
		n, err := h.pool.Refresh()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		h.serve()

		h.fakes[provA].fail = fail
		amount, err := h.pool.Undelegate(alice, lsd.Tokens(4))
		require.NoError(t, err)
		assert.Equal(t, lsd.Tokens(4), amount)
		assert.Equal(t, lsd.Tokens(6), h.shares(alice))
		assert.Equal(t, 1, h.serve())

		ui, err := h.pool.UserInfo(alice)
		require.NoError(t, err)
		info := h.info()
		if fail {
			assert.Equal(t, lsd.Tokens(10), ui.Shares)
			assert.Empty(t, ui.Undelegations)
			assert.Equal(t, lsd.Tokens(10), info.TotalStaked)
			assert.Equal(t, lsd.Tokens(10), info.LiquidSupply)
			assert.Len(t, h.eventsOf(EventRefund), 1)
		} else {
			assert.Equal(t, lsd.Tokens(6), ui.Shares)
			assert.Equal(t, []Undelegation{{Amount: lsd.Tokens(4), UnbondEpoch: 2}}, ui.Undelegations)
			assert.Equal(t, lsd.Tokens(4), info.UsersUndelegating)
			assert.Equal(t, 0, info.ToUndelegate.Sign())
		}
	}
}

func TestUndelegateDeclines(t *testing.T) {
	h := newActive(t, bufferAll)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	before := h.info()
	h.collect()
	n := len(h.events)

	_, err = h.pool.Undelegate(alice, lsd.Tokens(11))
	assert.Equal(t, reverts.ErrInsufficientSupply, err)
	_, err = h.pool.Undelegate(bob, lsd.Tokens(1))
	assert.Equal(t, reverts.ErrInsufficientShares, err)
	_, err = h.pool.Undelegate(alice, new(big.Int))
	assert.Equal(t, reverts.ErrBadRedeemAmount, err)

	after := h.info()
	assert.Equal(t, before.TotalStaked, after.TotalStaked)
	assert.Equal(t, before.LiquidSupply, after.LiquidSupply)
	assert.Equal(t, lsd.Tokens(10), h.shares(alice))
	h.collect()
	assert.Len(t, h.events, n)
}

func TestUndelegateAndWithdraw(t *testing.T) {
	h := newActive(t, bufferAll)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)

	_, err = h.pool.Undelegate(alice, lsd.Tokens(4))
	require.NoError(t, err)
	info := h.info()
	assert.Equal(t, lsd.Tokens(4), info.ToUndelegate)
	assert.Equal(t, lsd.Tokens(4), info.UsersUndelegating)

	// pending delegations and undelegations cancel out
	sent, err := h.pool.DelegateAll()
	require.NoError(t, err)
	assert.Equal(t, 0, sent.Sign())
	info = h.info()
	assert.Equal(t, lsd.Tokens(6), info.ToDelegate)
	assert.Equal(t, 0, info.ToUndelegate.Sign())
	assert.Equal(t, lsd.Tokens(4), info.TotalWithdrawn)

	// not matured yet
	_, err = h.pool.Withdraw(alice)
	assert.Equal(t, reverts.ErrNothingToWithdraw, err)

	h.step(2, 2)
	ui, err := h.pool.UserInfo(alice)
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(4), ui.Withdrawable)

	amount, err := h.pool.Withdraw(alice)
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(4), amount)

	info = h.info()
	assert.Equal(t, 0, info.TotalWithdrawn.Sign())
	assert.Equal(t, 0, info.UserWithdrawn.Sign())
	assert.Equal(t, 0, info.UsersUndelegating.Sign())

	_, err = h.pool.Withdraw(alice)
	assert.Equal(t, reverts.ErrNothingToWithdraw, err)
}

func TestUndelegateNow(t *testing.T) {
	h := newActive(t, func(h *harness) {
		require.NoError(t, h.pool.SetUndelegateNowFee(owner, 200))
		bufferAll(h)
	})

	_, err := h.pool.AddReserve(bob, lsd.Tokens(100))
	require.NoError(t, err)
	_, err = h.pool.Delegate(alice, lsd.Tokens(100))
	require.NoError(t, err)

	payout, fee, err := h.pool.QuoteUndelegateNow(lsd.Tokens(100))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(98), payout)
	assert.Equal(t, lsd.Tokens(2), fee)

	_, err = h.pool.UndelegateNow(alice, lsd.Tokens(100), lsd.Tokens(99))
	assert.Equal(t, reverts.ErrSlippage, err)
	assert.Equal(t, lsd.Tokens(100), h.shares(alice))

	payout, err = h.pool.UndelegateNow(alice, lsd.Tokens(100), lsd.Tokens(98))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(98), payout)

	info := h.info()
	assert.Equal(t, lsd.Tokens(102), info.ReserveTotal)
	assert.Equal(t, lsd.Tokens(2), info.ReserveAvailable)
	assert.Equal(t, lsd.Tokens(100), info.ReserveUndelegating)
	assert.Equal(t, lsd.Tokens(100), info.ToUndelegate)
	assert.Equal(t, 0, info.TotalStaked.Sign())

	// the reserve cannot fund a second redemption
	_, err = h.pool.Delegate(carol, lsd.Tokens(100))
	require.NoError(t, err)
	_, err = h.pool.UndelegateNow(carol, lsd.Tokens(10), nil)
	assert.Equal(t, reverts.ErrInsufficientReserve, err)

	// a short available reserve declines removal, locked undelegations stay with the reserve
	h.step(2, 1)
	_, err = h.pool.RemoveReserve(bob, lsd.Tokens(50))
	assert.Equal(t, reverts.ErrInsufficientReserve, err)
	ui, err := h.pool.UserInfo(bob)
	require.NoError(t, err)
	assert.Empty(t, ui.Undelegations)
	assert.Equal(t, lsd.Tokens(100), h.info().ReserveUndelegating)

	// carol's pending delegation pays the reserve back once matured
	_, err = h.pool.DelegateAll()
	require.NoError(t, err)
	h.step(3, 2)
	require.NoError(t, h.pool.ComputeWithdrawn())

	info = h.info()
	assert.Equal(t, lsd.Tokens(102), info.ReserveTotal)
	assert.Equal(t, lsd.Tokens(102), info.ReserveAvailable)
	assert.Equal(t, 0, info.ReserveUndelegating.Sign())

	removed, err := h.pool.RemoveReserve(bob, lsd.Tokens(102))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(102), removed)
}

func TestRemoveReserve(t *testing.T) {
	h := newActive(t, nil)
	_, err := h.pool.AddReserve(bob, new(big.Int).Sub(lsd.MinAmount, big.NewInt(1)))
	assert.Equal(t, reverts.ErrInsufficientAmount, err)

	points, err := h.pool.AddReserve(bob, lsd.Tokens(10))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(10), points)

	_, err = h.pool.RemoveReserve(bob, lsd.Tokens(1))
	assert.Equal(t, reverts.ErrRemoveReserveTooSoon, err)

	h.step(2, 1)
	_, err = h.pool.RemoveReserve(bob, lsd.Tokens(11))
	assert.Equal(t, reverts.ErrInsufficientAmount, err)

	halfToken := new(big.Int).Quo(lsd.OneToken, big.NewInt(2))
	_, err = h.pool.RemoveReserve(bob, new(big.Int).Sub(lsd.Tokens(10), halfToken))
	assert.Equal(t, reverts.ErrCantLeaveDust, err)

	removed, err := h.pool.RemoveReserve(bob, lsd.Tokens(4))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(4), removed)

	// a remainder below the dust threshold is swept
	removed, err = h.pool.RemoveReserve(bob, new(big.Int).Sub(lsd.Tokens(6), big.NewInt(500)))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(6), removed)

	ui, err := h.pool.UserInfo(bob)
	require.NoError(t, err)
	assert.Equal(t, 0, ui.ReservePoints.Sign())
	assert.Equal(t, uint64(0), ui.AddReserveEpoch)
	info := h.info()
	assert.Equal(t, 0, info.ReserveTotal.Sign())
	assert.Equal(t, 0, info.ReservePoints.Sign())
}

func TestDelegateAll(t *testing.T) {
	h := newActive(t, func(h *harness) {
		f := h.fakes[provA]
		f.hasCap = true
		f.maxCap = lsd.Tokens(5005)
		require.NoError(t, h.pool.SetParam(owner, params.KeyMinBlocksBetweenDelegations, big.NewInt(10)))
	})

	_, err := h.pool.DelegateAll()
	assert.Equal(t, reverts.ErrInsufficientAmount, err)

	// the provider cap only leaves room for half of it
	_, err = h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(10), h.info().ToDelegate)

	sent, err := h.pool.DelegateAll()
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(5), sent)
	assert.Equal(t, lsd.Tokens(5), h.info().ToDelegate)

	_, err = h.pool.DelegateAll()
	assert.Equal(t, reverts.ErrDelegateTooSoon, err)

	h.fakes[provA].fail = true
	assert.Equal(t, 1, h.serve())
	assert.Equal(t, lsd.Tokens(10), h.info().ToDelegate)
	assert.Len(t, h.eventsOf(EventRequestFailed), 1)
}

func TestDelegateAllRefreshesStaleProviders(t *testing.T) {
	h := newActive(t, bufferAll)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)

	h.step(100, 0)
	sent, err := h.pool.DelegateAll()
	require.NoError(t, err)
	assert.Equal(t, 0, sent.Sign())
	assert.Len(t, h.pool.TakeRequests(), 4)
}

func TestUndelegateAll(t *testing.T) {
	h := newActive(t, nil)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	h.serve()

	// the cached view does not know about the new stake yet, so nothing can be undelegated directly
	_, err = h.pool.Undelegate(alice, lsd.Tokens(4))
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(4), h.info().ToUndelegate)
	assert.Empty(t, h.pool.TakeRequests())

	sent, err := h.pool.UndelegateAll()
	require.NoError(t, err)
	assert.Equal(t, 0, sent.Sign())
	assert.Equal(t, 2, h.serve())

	sent, err = h.pool.UndelegateAll()
	require.NoError(t, err)
	assert.Equal(t, lsd.Tokens(4), sent)
	assert.Equal(t, 0, h.info().ToUndelegate.Sign())
	assert.Equal(t, 1, h.serve())
	assert.Equal(t, lsd.Tokens(4), h.fakes[provA].undelegated)
	assert.Equal(t, lsd.Tokens(6), h.fakes[provA].stake)
}

func TestClaimRewards(t *testing.T) {
	h := newActive(t, func(h *harness) {
		require.NoError(t, h.pool.SetParam(owner, params.KeyServiceFee, big.NewInt(1000)))
	})
	h.fakes[provA].rewards = lsd.Tokens(10)

	h.step(40, 0)
	n, err := h.pool.ClaimRewards()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 4, h.serve())

	n, err = h.pool.ClaimRewards()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the funds view is stale until the claim resolves, so nothing is claimed twice
	n, err = h.pool.ClaimRewards()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	h.serve()

	info := h.info()
	assert.Equal(t, lsd.Tokens(9), info.TotalStaked)
	assert.Equal(t, lsd.Tokens(9), info.ToDelegate)

	commissions := h.eventsOf(EventCommission)
	require.Len(t, commissions, 1)
	assert.Equal(t, owner, commissions[0].Account)
	assert.Equal(t, lsd.Tokens(1), commissions[0].Amount)

	prov, err := h.pool.Provider(provA)
	require.NoError(t, err)
	assert.Equal(t, 0, prov.PoolRewards.Sign())
}

func TestWithdrawAll(t *testing.T) {
	h := newActive(t, nil)
	h.fakes[provA].withdrawable = lsd.Tokens(4)
	h.step(40, 0)

	n, err := h.pool.WithdrawAll()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	h.serve()

	n, err = h.pool.WithdrawAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	h.serve()

	assert.Equal(t, lsd.Tokens(4), h.info().TotalWithdrawn)
	prov, err := h.pool.Provider(provA)
	require.NoError(t, err)
	assert.Equal(t, 0, prov.PoolWithdrawable.Sign())
}

func TestRefreshSkipsInflight(t *testing.T) {
	h := newActive(t, nil)
	h.step(100, 1)

	n, err := h.pool.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = h.pool.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// a failed refresh leaves the view stale and is retried
	h.fakes[provA].fail = true
	assert.Equal(t, 4, h.serve())
	assert.Len(t, h.eventsOf(EventRequestFailed), 4)

	n, err = h.pool.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	h.fakes[provA].fail = false
	h.serve()
	up, err := h.pool.AllUpToDate()
	require.NoError(t, err)
	assert.True(t, up)

	// each view records its own refresh event, with no amount attached
	for _, kind := range []EventKind{EventConfigRefreshed, EventStakeRefreshed, EventNodesRefreshed, EventFundsRefreshed} {
		evs := h.eventsOf(kind)
		require.NotEmpty(t, evs, kind)
		last := evs[len(evs)-1]
		assert.Equal(t, provA, last.Provider)
		assert.Zero(t, last.Amount.Sign())
		assert.Zero(t, last.Shares.Sign())
	}
}

func TestResolve(t *testing.T) {
	h := newActive(t, nil)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)
	reqs := h.pool.TakeRequests()
	require.Len(t, reqs, 1)

	pending, err := h.pool.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reqs[0].ID, pending[0].ID)

	require.NoError(t, h.pool.Resolve(reqs[0].ID, &Result{}))
	assert.Equal(t, reverts.ErrOperationNotPending, h.pool.Resolve(reqs[0].ID, &Result{}))
	assert.Equal(t, reverts.ErrOperationNotFound, h.pool.Resolve(reqs[0].ID+1, &Result{}))
	assert.Equal(t, lsd.Tokens(10), h.shares(alice))
}

func TestRemoveProvider(t *testing.T) {
	h := newActive(t, nil)

	assert.Equal(t, reverts.ErrUnauthorized, h.pool.RemoveProvider(alice, provA))
	assert.Equal(t, reverts.ErrProviderNotFound, h.pool.RemoveProvider(owner, provB))

	h.step(100, 0)
	assert.Equal(t, reverts.ErrProviderNotUpToDate, h.pool.RemoveProvider(owner, provA))

	require.NoError(t, h.pool.SetProviderState(owner, provA, provider.StateInactive))
	require.NoError(t, h.pool.RemoveProvider(owner, provA))

	info := h.info()
	assert.Equal(t, StateInactive, info.State)
	assert.Equal(t, uint64(0), info.Providers)
}

func TestTransfer(t *testing.T) {
	h := newActive(t, bufferAll)
	_, err := h.pool.Delegate(alice, lsd.Tokens(10))
	require.NoError(t, err)

	require.NoError(t, h.pool.Transfer(alice, bob, lsd.Tokens(3)))
	assert.Equal(t, lsd.Tokens(7), h.shares(alice))
	assert.Equal(t, lsd.Tokens(3), h.shares(bob))
	assert.Equal(t, reverts.ErrInsufficientShares, h.pool.Transfer(bob, alice, lsd.Tokens(4)))
}
