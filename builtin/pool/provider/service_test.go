// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package provider

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/lvldb"
	"github.com/vechain/lsd/state"
)

var (
	provA = lsd.BytesToAddress([]byte("provider-a"))
	provB = lsd.BytesToAddress([]byte("provider-b"))
	provC = lsd.BytesToAddress([]byte("provider-c"))

	policy = Policy{MaxFee: 1000, BaseStake: lsd.NodeBaseStake}
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.NewStater(db, 0).NewState()
	return New(storage.NewContext(lsd.BytesToAddress([]byte("pool")), st))
}

func staked(n int) []string {
	out := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, NodeStaked)
	}
	return append(out, "queued")
}

// setup registers a provider with nodes running at base stake plus topup tokens per node.
func setup(t *testing.T, s *Service, addr lsd.Address, nodes int, topup int64, poolStake *big.Int, height, epoch uint64) {
	require.NoError(t, s.Add(addr))
	require.NoError(t, s.ApplyConfig(addr, Config{Fee: 500}, height))
	total := new(big.Int).Add(lsd.NodeBaseStake, lsd.Tokens(topup))
	total.Mul(total, big.NewInt(int64(nodes)))
	require.NoError(t, s.ApplyStake(addr, total, height))
	require.NoError(t, s.ApplyNodes(addr, staked(nodes), height))
	require.NoError(t, s.ApplyFunds(addr, Funds{Stake: poolStake}, height, epoch))
}

func TestRegistry(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.Add(provA))
	require.NoError(t, s.Add(provB))
	assert.ErrorIs(t, s.Add(provA), reverts.ErrProviderExists)

	list, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []lsd.Address{provA, provB}, list)

	_, err = s.Get(provC)
	assert.ErrorIs(t, err, reverts.ErrProviderNotFound)

	p, err := s.Get(provA)
	require.NoError(t, err)
	assert.True(t, p.IsActive())
	assert.Equal(t, 0, p.PoolStake.Sign())
}

func TestFreshness(t *testing.T) {
	s := newService(t)
	setup(t, s, provA, 2, 0, nil, 100, 3)
	c := Clock{Height: 100, Epoch: 3, Window: 10}

	ok, err := s.IsUpToDate(provA, c)
	require.NoError(t, err)
	assert.True(t, ok)

	// within the window
	c.Height = 110
	ok, _ = s.IsUpToDate(provA, c)
	assert.True(t, ok)

	// outside the window
	c.Height = 111
	ok, _ = s.IsUpToDate(provA, c)
	assert.False(t, ok)

	// funds go stale on a new epoch even within the window
	c = Clock{Height: 105, Epoch: 4, Window: 10}
	p, _ := s.Get(provA)
	assert.True(t, p.IsConfigFresh(c))
	assert.False(t, p.AreFundsFresh(c))
	assert.Equal(t, []Kind{KindFunds}, p.StaleKinds(c))

	reqs, err := s.StaleRequests(c)
	require.NoError(t, err)
	assert.Equal(t, []Request{{Provider: provA, Kind: KindFunds}}, reqs)
}

func TestFailureResetsMarker(t *testing.T) {
	s := newService(t)
	setup(t, s, provA, 2, 0, nil, 100, 3)
	c := Clock{Height: 100, Epoch: 3, Window: 10}

	require.NoError(t, s.Invalidate(provA, KindStake))
	p, _ := s.Get(provA)
	assert.False(t, p.IsStakeFresh(c))
	assert.True(t, p.AreNodesFresh(c))

	all, err := s.AllUpToDate(c)
	require.NoError(t, err)
	assert.False(t, all)
}

func TestSetStateResetsMarkers(t *testing.T) {
	s := newService(t)
	setup(t, s, provA, 2, 0, nil, 100, 3)
	c := Clock{Height: 100, Epoch: 3, Window: 10}

	// no change keeps markers
	require.NoError(t, s.SetState(provA, StateActive))
	ok, _ := s.IsUpToDate(provA, c)
	assert.True(t, ok)

	require.NoError(t, s.SetState(provA, StateInactive))
	p, _ := s.Get(provA)
	assert.Equal(t, StateInactive, p.State)
	assert.Len(t, p.StaleKinds(c), 4)

	// inactive providers are not refreshed and do not block
	reqs, _ := s.StaleRequests(c)
	assert.Empty(t, reqs)
	all, _ := s.AllUpToDate(c)
	assert.True(t, all)
}

func TestRemove(t *testing.T) {
	s := newService(t)
	setup(t, s, provA, 2, 0, lsd.Tokens(5), 100, 3)
	c := Clock{Height: 100, Epoch: 3, Window: 10}

	assert.ErrorIs(t, s.Remove(provA, c), reverts.ErrProviderWithFunds)

	require.NoError(t, s.ApplyFunds(provA, Funds{}, 100, 3))
	assert.ErrorIs(t, s.Remove(provA, Clock{Height: 100, Epoch: 4, Window: 10}), reverts.ErrProviderNotUpToDate)

	require.NoError(t, s.Remove(provA, c))
	_, err := s.Get(provA)
	assert.ErrorIs(t, err, reverts.ErrProviderNotFound)
	n, _ := s.Count()
	assert.Equal(t, uint64(0), n)
}

func TestApplyNodesCountsStaked(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.Add(provA))
	require.NoError(t, s.ApplyNodes(provA, []string{"staked", "jailed", "staked", "unStaked"}, 7))
	p, _ := s.Get(provA)
	assert.Equal(t, uint64(2), p.StakedNodes)
	assert.Equal(t, uint64(7), p.NodesUpdated)
}

func TestTopup(t *testing.T) {
	p := newProvider()
	assert.Equal(t, 0, p.Topup(lsd.NodeBaseStake).Sign())

	p.StakedNodes = 4
	p.TotalStake = lsd.Tokens(4 * 2600)
	assert.Equal(t, lsd.Tokens(100), p.Topup(lsd.NodeBaseStake))

	p.TotalStake = lsd.Tokens(4 * 2000)
	assert.Equal(t, 0, p.Topup(lsd.NodeBaseStake).Sign())
}
