// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

var slotBalances = storage.Slot("share-balances")

// Service keeps liquid share balances per holder.
// The sum of balances equals the ledger's liquid supply.
type Service struct {
	balances *storage.Mapping[lsd.Address, *big.Int]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		balances: storage.NewMapping[lsd.Address, *big.Int](sctx, slotBalances),
	}
}

func (s *Service) BalanceOf(holder lsd.Address) (*big.Int, error) {
	return s.balances.Get(holder)
}

func (s *Service) set(holder lsd.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		s.balances.Delete(holder)
		return nil
	}
	return s.balances.Set(holder, balance)
}

func (s *Service) Mint(holder lsd.Address, shares *big.Int) error {
	balance, err := s.BalanceOf(holder)
	if err != nil {
		return err
	}
	return s.set(holder, balance.Add(balance, shares))
}

func (s *Service) Burn(holder lsd.Address, shares *big.Int) error {
	balance, err := s.BalanceOf(holder)
	if err != nil {
		return err
	}
	if balance.Cmp(shares) < 0 {
		return reverts.ErrInsufficientShares
	}
	return s.set(holder, balance.Sub(balance, shares))
}

func (s *Service) Transfer(from, to lsd.Address, shares *big.Int) error {
	if err := s.Burn(from, shares); err != nil {
		return err
	}
	return s.Mint(to, shares)
}
