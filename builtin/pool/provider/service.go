// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package provider

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

var (
	slotProviders = storage.Slot("providers")
	slotListHead  = storage.Slot("providers-head")
	slotListTail  = storage.Slot("providers-tail")
	slotListCount = storage.Slot("providers-count")
)

// NodeStaked is the node status counted as a staked node.
const NodeStaked = "staked"

// Config is the provider wide configuration.
type Config struct {
	Fee    uint64
	HasCap bool
	MaxCap *big.Int
}

// Funds is the pool's position with a provider.
type Funds struct {
	Stake        *big.Int
	Rewards      *big.Int
	Undelegated  *big.Int
	Withdrawable *big.Int
}

// Request is a refresh to issue.
type Request struct {
	Provider lsd.Address
	Kind     Kind
}

// Service is the registry of providers, kept in insertion order.
type Service struct {
	providers *storage.Mapping[lsd.Address, *Provider]
	list      *storage.LinkedList[lsd.Address]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		providers: storage.NewMapping[lsd.Address, *Provider](sctx, slotProviders),
		list:      storage.NewLinkedList[lsd.Address](sctx, slotListHead, slotListTail, slotListCount),
	}
}

// Get returns the provider record, ErrProviderNotFound if not registered.
func (s *Service) Get(addr lsd.Address) (*Provider, error) {
	p, err := s.providers.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "get provider")
	}
	if !p.Exists() {
		return nil, reverts.ErrProviderNotFound
	}
	return p, nil
}

func (s *Service) update(addr lsd.Address, p *Provider) error {
	return s.providers.Set(addr, p)
}

func (s *Service) modify(addr lsd.Address, fn func(p *Provider)) error {
	p, err := s.Get(addr)
	if err != nil {
		return err
	}
	fn(p)
	return s.update(addr, p)
}

// Add registers a new active provider with every view stale.
func (s *Service) Add(addr lsd.Address) error {
	if addr.IsZero() {
		return reverts.ErrInvalidParam
	}
	p, err := s.providers.Get(addr)
	if err != nil {
		return err
	}
	if p.Exists() {
		return reverts.ErrProviderExists
	}
	if err := s.update(addr, newProvider()); err != nil {
		return err
	}
	return s.list.Add(addr)
}

// Remove unregisters a provider. The pool must have no claims left with it, and an active
// provider's funds view must be fresh so the claims are known to be zero.
func (s *Service) Remove(addr lsd.Address, c Clock) error {
	p, err := s.Get(addr)
	if err != nil {
		return err
	}
	if p.IsActive() && !p.AreFundsFresh(c) {
		return reverts.ErrProviderNotUpToDate
	}
	if p.HasClaims() {
		return reverts.ErrProviderWithFunds
	}
	s.providers.Delete(addr)
	return s.list.Remove(addr)
}

// SetState changes the provider state. Any change resets every view to stale.
func (s *Service) SetState(addr lsd.Address, state State) error {
	if state != StateActive && state != StateInactive {
		return reverts.ErrInvalidParam
	}
	return s.modify(addr, func(p *Provider) {
		if p.State != state {
			for _, k := range Kinds {
				p.invalidate(k)
			}
		}
		p.State = state
	})
}

// List returns provider addresses in insertion order.
func (s *Service) List() ([]lsd.Address, error) {
	return s.list.Keys()
}

// Count returns the number of providers.
func (s *Service) Count() (uint64, error) {
	return s.list.Len()
}

// Each visits providers in insertion order.
func (s *Service) Each(fn func(addr lsd.Address, p *Provider) error) error {
	return s.list.Iter(func(addr lsd.Address) error {
		p, err := s.Get(addr)
		if err != nil {
			return err
		}
		return fn(addr, p)
	})
}

func (s *Service) IsUpToDate(addr lsd.Address, c Clock) (bool, error) {
	p, err := s.Get(addr)
	if err != nil {
		return false, err
	}
	return p.IsUpToDate(c), nil
}

// AllUpToDate reports whether every active provider is up to date.
func (s *Service) AllUpToDate(c Clock) (bool, error) {
	upToDate := true
	err := s.Each(func(_ lsd.Address, p *Provider) error {
		if p.IsActive() && !p.IsUpToDate(c) {
			upToDate = false
		}
		return nil
	})
	return upToDate, err
}

// StaleRequests returns a refresh for every stale view of the active providers.
func (s *Service) StaleRequests(c Clock) ([]Request, error) {
	var reqs []Request
	err := s.Each(func(addr lsd.Address, p *Provider) error {
		if !p.IsActive() {
			return nil
		}
		for _, k := range p.StaleKinds(c) {
			reqs = append(reqs, Request{Provider: addr, Kind: k})
		}
		return nil
	})
	return reqs, err
}

// ApplyConfig records a successful config refresh.
func (s *Service) ApplyConfig(addr lsd.Address, cfg Config, height uint64) error {
	return s.modify(addr, func(p *Provider) {
		p.Fee = cfg.Fee
		p.HasCap = cfg.HasCap
		p.MaxCap = orZero(cfg.MaxCap)
		p.ConfigUpdated = height
	})
}

// ApplyStake records a successful total stake refresh.
func (s *Service) ApplyStake(addr lsd.Address, total *big.Int, height uint64) error {
	return s.modify(addr, func(p *Provider) {
		p.TotalStake = orZero(total)
		p.StakeUpdated = height
	})
}

// ApplyNodes records a successful node states refresh. Only staked nodes are counted.
func (s *Service) ApplyNodes(addr lsd.Address, statuses []string, height uint64) error {
	var staked uint64
	for _, st := range statuses {
		if st == NodeStaked {
			staked++
		}
	}
	return s.modify(addr, func(p *Provider) {
		p.StakedNodes = staked
		p.NodesUpdated = height
	})
}

// ApplyFunds records a successful funds refresh.
func (s *Service) ApplyFunds(addr lsd.Address, funds Funds, height, epoch uint64) error {
	return s.modify(addr, func(p *Provider) {
		p.PoolStake = orZero(funds.Stake)
		p.PoolRewards = orZero(funds.Rewards)
		p.PoolUndelegated = orZero(funds.Undelegated)
		p.PoolWithdrawable = orZero(funds.Withdrawable)
		p.FundsUpdated = height
		p.FundsEpoch = epoch
	})
}

// Invalidate marks the given views stale, forcing a refresh.
func (s *Service) Invalidate(addr lsd.Address, kinds ...Kind) error {
	return s.modify(addr, func(p *Provider) {
		for _, k := range kinds {
			p.invalidate(k)
		}
	})
}

// ClearRewards zeroes the cached rewards after a successful claim.
func (s *Service) ClearRewards(addr lsd.Address) error {
	return s.modify(addr, func(p *Provider) {
		p.PoolRewards = new(big.Int)
	})
}

// ClearWithdrawable zeroes the cached withdrawable amount after a successful withdrawal.
func (s *Service) ClearWithdrawable(addr lsd.Address) error {
	return s.modify(addr, func(p *Provider) {
		p.PoolWithdrawable = new(big.Int)
	})
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
