// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mock simulates delegation providers in memory.
package mock

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/lsd/log"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport"
)

const (
	// APY is the yearly reward rate of every simulated provider, in basis points.
	APY uint64 = 1_000
	// EpochsPerYear converts the APY into a per-epoch rate.
	EpochsPerYear uint64 = 365
	// DefaultUnbondPeriod is the number of epochs an undelegation waits before it is withdrawable.
	DefaultUnbondPeriod uint64 = 10
)

var logger = log.WithContext("pkg", "mock")

var (
	errOverCap       = errors.New("over provider cap")
	errNotEnough     = errors.New("not enough stake")
	errZeroAmount    = errors.New("zero amount")
	errInjected      = errors.New("injected failure")
	errProviderExist = errors.New("provider already exists")
)

// ProviderConfig describes a simulated provider.
type ProviderConfig struct {
	Address lsd.Address
	Fee     uint64   // basis points
	MaxCap  *big.Int // nil for uncapped
	Nodes   []string // node statuses
	Stake   *big.Int // stake of other delegators
	// FailEvery makes every n-th request to the provider fail. Zero never fails.
	FailEvery uint64
}

type position struct {
	stake       *big.Int
	rewards     *big.Int
	undelegated *big.Int
	unbondEpoch uint64
}

func newPosition() *position {
	return &position{stake: new(big.Int), rewards: new(big.Int), undelegated: new(big.Int)}
}

func (p *position) withdrawable(epoch uint64) *big.Int {
	if p.undelegated.Sign() > 0 && epoch >= p.unbondEpoch {
		return new(big.Int).Set(p.undelegated)
	}
	return new(big.Int)
}

type provider struct {
	cfg        ProviderConfig
	others     *big.Int
	delegators map[lsd.Address]*position
	requests   uint64
	down       map[transport.Op]bool
}

func (p *provider) total() *big.Int {
	total := new(big.Int).Set(p.others)
	for _, pos := range p.delegators {
		total.Add(total, pos.stake)
	}
	return total
}

func (p *provider) position(delegator lsd.Address) *position {
	pos, ok := p.delegators[delegator]
	if !ok {
		pos = newPosition()
		p.delegators[delegator] = pos
	}
	return pos
}

// Network is a set of simulated providers sharing an epoch clock. It implements transport.Transport.
type Network struct {
	mu        sync.Mutex
	epoch     uint64
	unbond    uint64
	latency   time.Duration
	providers map[lsd.Address]*provider
}

// Option configures a Network.
type Option func(*Network)

// WithUnbondPeriod sets the epochs an undelegation waits.
func WithUnbondPeriod(epochs uint64) Option {
	return func(n *Network) { n.unbond = epochs }
}

// WithLatency delays every answer.
func WithLatency(d time.Duration) Option {
	return func(n *Network) { n.latency = d }
}

func NewNetwork(opts ...Option) *Network {
	n := &Network{
		unbond:    DefaultUnbondPeriod,
		providers: make(map[lsd.Address]*provider),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddProvider registers a simulated provider.
func (n *Network) AddProvider(cfg ProviderConfig) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.providers[cfg.Address]; ok {
		return errors.Wrap(errProviderExist, cfg.Address.String())
	}
	others := new(big.Int)
	if cfg.Stake != nil {
		others.Set(cfg.Stake)
	}
	cfg.Nodes = append([]string(nil), cfg.Nodes...)
	n.providers[cfg.Address] = &provider{
		cfg:        cfg,
		others:     others,
		delegators: make(map[lsd.Address]*position),
		down:       make(map[transport.Op]bool),
	}
	return nil
}

// Update changes the configuration of a provider.
func (n *Network) Update(addr lsd.Address, fn func(cfg *ProviderConfig)) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.providers[addr]
	if !ok {
		return transport.ErrUnknownProvider
	}
	fn(&p.cfg)
	return nil
}

// SetDown makes op fail on the provider until cleared.
func (n *Network) SetDown(addr lsd.Address, op transport.Op, down bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.providers[addr]
	if !ok {
		return transport.ErrUnknownProvider
	}
	p.down[op] = down
	return nil
}

// Epoch returns the current epoch of the network.
func (n *Network) Epoch() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.epoch
}

// SetEpoch moves the clock forward, accruing rewards for every elapsed epoch.
// Going backwards is ignored.
func (n *Network) SetEpoch(epoch uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if epoch <= n.epoch {
		return
	}
	elapsed := epoch - n.epoch
	for _, p := range n.providers {
		for _, pos := range p.delegators {
			pos.rewards.Add(pos.rewards, Rewards(pos.stake, elapsed))
		}
	}
	n.epoch = epoch
}

// Rewards returns what stake earns over the given epochs.
func Rewards(stake *big.Int, epochs uint64) *big.Int {
	s, overflow := uint256.FromBig(stake)
	if overflow || s.IsZero() || epochs == 0 {
		return new(big.Int)
	}
	r := new(uint256.Int).Mul(s, uint256.NewInt(APY*epochs))
	r.Div(r, uint256.NewInt(lsd.MaxPercent*EpochsPerYear))
	return r.ToBig()
}

// Position returns the delegator's stake, unclaimed rewards and pending undelegation with a provider.
func (n *Network) Position(addr, delegator lsd.Address) (stake, rewards, undelegated *big.Int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.providers[addr]
	if !ok {
		return nil, nil, nil, transport.ErrUnknownProvider
	}
	pos := p.position(delegator)
	return new(big.Int).Set(pos.stake), new(big.Int).Set(pos.rewards), new(big.Int).Set(pos.undelegated), nil
}

// Send implements transport.Transport.
func (n *Network) Send(ctx context.Context, addr lsd.Address, op transport.Op, payload []byte) ([]byte, error) {
	if n.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(n.latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.providers[addr]
	if !ok {
		return nil, transport.ErrUnknownProvider
	}
	p.requests++
	if p.down[op] || (p.cfg.FailEvery > 0 && p.requests%p.cfg.FailEvery == 0) {
		logger.Debug("failing request", "provider", addr, "op", op, "n", p.requests)
		return nil, errInjected
	}

	resp, err := n.handle(p, op, payload)
	if err != nil {
		logger.Debug("request declined", "provider", addr, "op", op, "err", err)
		return nil, err
	}
	return transport.Encode(resp)
}

func (n *Network) handle(p *provider, op transport.Op, payload []byte) (any, error) {
	switch op {
	case transport.OpDelegate, transport.OpUndelegate:
		var msg transport.DelegateMsg
		if err := transport.Decode(payload, &msg); err != nil {
			return nil, err
		}
		if msg.Amount == nil || msg.Amount.Sign() <= 0 {
			return nil, errZeroAmount
		}
		if op == transport.OpDelegate {
			return n.delegate(p, msg)
		}
		return n.undelegate(p, msg)
	case transport.OpWithdraw, transport.OpClaimRewards, transport.OpGetFunds:
		var msg transport.DelegatorMsg
		if err := transport.Decode(payload, &msg); err != nil {
			return nil, err
		}
		pos := p.position(msg.Delegator)
		switch op {
		case transport.OpWithdraw:
			amount := pos.withdrawable(n.epoch)
			pos.undelegated.Sub(pos.undelegated, amount)
			return &transport.AmountMsg{Amount: amount}, nil
		case transport.OpClaimRewards:
			amount := new(big.Int).Set(pos.rewards)
			pos.rewards.SetUint64(0)
			return &transport.AmountMsg{Amount: amount}, nil
		default:
			return &transport.FundsMsg{
				Stake:        new(big.Int).Set(pos.stake),
				Rewards:      new(big.Int).Set(pos.rewards),
				Undelegated:  new(big.Int).Set(pos.undelegated),
				Withdrawable: pos.withdrawable(n.epoch),
			}, nil
		}
	case transport.OpGetConfig:
		msg := &transport.ConfigMsg{Fee: p.cfg.Fee, MaxCap: new(big.Int)}
		if p.cfg.MaxCap != nil {
			msg.HasCap = true
			msg.MaxCap.Set(p.cfg.MaxCap)
		}
		return msg, nil
	case transport.OpGetTotalStake:
		return &transport.AmountMsg{Amount: p.total()}, nil
	case transport.OpGetNodeStates:
		return &transport.NodesMsg{Statuses: append([]string(nil), p.cfg.Nodes...)}, nil
	}
	return nil, errors.Wrap(transport.ErrUnknownOp, string(op))
}

func (n *Network) delegate(p *provider, msg transport.DelegateMsg) (any, error) {
	if p.cfg.MaxCap != nil {
		after := new(big.Int).Add(p.total(), msg.Amount)
		if after.Cmp(p.cfg.MaxCap) > 0 {
			return nil, errOverCap
		}
	}
	pos := p.position(msg.Delegator)
	pos.stake.Add(pos.stake, msg.Amount)
	return &transport.AmountMsg{Amount: new(big.Int).Set(msg.Amount)}, nil
}

// undelegate moves stake into the single pending undelegation of the delegator, restarting its unbond period.
func (n *Network) undelegate(p *provider, msg transport.DelegateMsg) (any, error) {
	pos := p.position(msg.Delegator)
	if pos.stake.Cmp(msg.Amount) < 0 {
		return nil, errNotEnough
	}
	pos.stake.Sub(pos.stake, msg.Amount)
	pos.undelegated.Add(pos.undelegated, msg.Amount)
	pos.unbondEpoch = n.epoch + n.unbond
	return &transport.AmountMsg{Amount: new(big.Int).Set(msg.Amount)}, nil
}
