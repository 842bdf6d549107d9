// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool/ledger"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reserve"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/pool/token"
	"github.com/vechain/lsd/builtin/pool/undelegation"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/log"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/state"
)

var logger = log.WithContext("pkg", "pool")

func SetLogger(l log.Logger) {
	logger = l
}

var (
	slotOwner               = storage.Slot("owner")
	slotState               = storage.Slot("state")
	slotToDelegate          = storage.Slot("to-delegate")
	slotToUndelegate        = storage.Slot("to-undelegate")
	slotTotalWithdrawn      = storage.Slot("total-withdrawn")
	slotUserWithdrawn       = storage.Slot("user-withdrawn")
	slotLastDelegationBlock = storage.Slot("last-delegation-block")
)

// Pool implements the liquid staking pool on top of the contract storage at a single address.
// A Pool is bound to one step of the host clock and collects the events and provider
// requests produced during that step.
type Pool struct {
	state  *state.State
	env    Env
	params *params.Params

	ledger    *ledger.Service
	token     *token.Service
	reserve   *reserve.Service
	queues    *undelegation.Service
	providers *provider.Service
	ops       *operation.Service

	owner               *storage.Address
	poolState           *storage.Raw[State]
	toDelegate          *storage.BigInt
	toUndelegate        *storage.BigInt
	totalWithdrawn      *storage.BigInt
	userWithdrawn       *storage.BigInt
	lastDelegationBlock *storage.Uint64

	events   []*Event
	requests []*Request
}

// New create a new instance.
func New(addr lsd.Address, st *state.State, env Env) *Pool {
	sctx := storage.NewContext(addr, st)
	return &Pool{
		state:  st,
		env:    env,
		params: params.New(sctx),

		ledger:    ledger.New(sctx),
		token:     token.New(sctx),
		reserve:   reserve.New(sctx),
		queues:    undelegation.New(sctx),
		providers: provider.New(sctx),
		ops:       operation.New(sctx),

		owner:               storage.NewAddress(sctx, slotOwner),
		poolState:           storage.NewRaw[State](sctx, slotState),
		toDelegate:          storage.NewBigInt(sctx, slotToDelegate),
		toUndelegate:        storage.NewBigInt(sctx, slotToUndelegate),
		totalWithdrawn:      storage.NewBigInt(sctx, slotTotalWithdrawn),
		userWithdrawn:       storage.NewBigInt(sctx, slotUserWithdrawn),
		lastDelegationBlock: storage.NewUint64(sctx, slotLastDelegationBlock),
	}
}

// Env returns the clock the pool is bound to.
func (p *Pool) Env() Env {
	return p.env
}

// TakeEvents returns the events collected so far and resets the list.
func (p *Pool) TakeEvents() []*Event {
	out := p.events
	p.events = nil
	return out
}

// TakeRequests returns the provider requests issued so far and resets the list.
func (p *Pool) TakeRequests() []*Request {
	out := p.requests
	p.requests = nil
	return out
}

// atomic runs fn inside a checkpoint. On error every storage write, event and request
// of fn is dropped.
func (p *Pool) atomic(name string, fn func() error) error {
	checkpoint := p.state.NewCheckpoint()
	nEvents, nRequests := len(p.events), len(p.requests)
	if err := fn(); err != nil {
		p.state.RevertTo(checkpoint)
		p.events = p.events[:nEvents]
		p.requests = p.requests[:nRequests]
		outcome := "declined"
		if !reverts.IsRevertErr(err) {
			outcome = "error"
		}
		metricPoolOperations().AddWithLabel(1, map[string]string{"op": name, "outcome": outcome})
		return err
	}
	metricPoolOperations().AddWithLabel(1, map[string]string{"op": name, "outcome": "ok"})
	return nil
}

func (p *Pool) emit(ev *Event) {
	p.events = append(p.events, ev)
}

func (p *Pool) clock() (provider.Clock, error) {
	window, err := p.params.GetUint64(params.KeyFreshnessWindow)
	if err != nil {
		return provider.Clock{}, err
	}
	return provider.Clock{Height: p.env.Height, Epoch: p.env.Epoch, Window: window}, nil
}

func (p *Pool) policy() (provider.Policy, error) {
	maxFee, err := p.params.GetUint64(params.KeyMaxProviderFee)
	if err != nil {
		return provider.Policy{}, err
	}
	base, err := p.params.Get(params.KeyNodeBaseStake)
	if err != nil {
		return provider.Policy{}, err
	}
	return provider.Policy{MaxFee: maxFee, BaseStake: base}, nil
}

func (p *Pool) State() (State, error) {
	return p.poolState.Get()
}

func (p *Pool) requireActive() error {
	st, err := p.State()
	if err != nil {
		return err
	}
	if st != StateActive {
		return reverts.ErrNotActive
	}
	return nil
}

func (p *Pool) requireInactive() error {
	st, err := p.State()
	if err != nil {
		return err
	}
	if st != StateInactive {
		return reverts.ErrNotInactive
	}
	return nil
}

func (p *Pool) requireOwner(caller lsd.Address) error {
	owner, err := p.owner.Get()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return reverts.ErrUnauthorized
	}
	return nil
}

func (p *Pool) unbondEpoch(from uint64) (uint64, error) {
	period, err := p.params.GetUint64(params.KeyUnbondPeriod)
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, reverts.ErrUnbondPeriodNotSet
	}
	return from + period, nil
}

// feeOf returns amount * bps / MaxPercent.
func feeOf(amount *big.Int, bps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return fee.Quo(fee, new(big.Int).SetUint64(lsd.MaxPercent))
}

// issue persists a pending operation and queues its request.
func (p *Pool) issue(op *operation.Operation) (operation.ID, error) {
	op.Height = p.env.Height
	op.Epoch = p.env.Epoch
	id, err := p.ops.Create(op)
	if err != nil {
		return 0, errors.Wrap(err, "create operation")
	}
	stored, err := p.ops.Get(id)
	if err != nil {
		return 0, err
	}
	p.requests = append(p.requests, &Request{ID: id, Op: stored})
	logger.Debug("issued request", "id", id, "kind", op.Kind, "provider", op.Provider, "amount", op.Amount)
	return id, nil
}

var refreshKinds = map[provider.Kind]operation.Kind{
	provider.KindConfig: operation.KindRefreshConfig,
	provider.KindStake:  operation.KindRefreshStake,
	provider.KindNodes:  operation.KindRefreshNodes,
	provider.KindFunds:  operation.KindRefreshFunds,
}

var viewKinds = map[operation.Kind]provider.Kind{
	operation.KindRefreshConfig: provider.KindConfig,
	operation.KindRefreshStake:  provider.KindStake,
	operation.KindRefreshNodes:  provider.KindNodes,
	operation.KindRefreshFunds:  provider.KindFunds,
}

func (p *Pool) issueRefresh(addr lsd.Address, kind provider.Kind) error {
	_, err := p.issue(&operation.Operation{Kind: refreshKinds[kind], Provider: addr})
	return err
}

// touch resets provider views after a request completes. A provider removed in the
// meantime is ignored.
func (p *Pool) touch(addr lsd.Address, kinds ...provider.Kind) error {
	err := p.providers.Invalidate(addr, kinds...)
	if errors.Is(err, reverts.ErrProviderNotFound) {
		return nil
	}
	return err
}
