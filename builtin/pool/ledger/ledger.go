// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

var (
	slotTotalStaked  = storage.Slot("total-staked")
	slotLiquidSupply = storage.Slot("liquid-supply")
)

// Service is the exchange rate ledger between staked base asset and liquid shares.
// All arithmetic floors, which keeps rounding in favour of the pool.
type Service struct {
	staked *storage.BigInt
	supply *storage.BigInt
}

func New(sctx *storage.Context) *Service {
	return &Service{
		staked: storage.NewBigInt(sctx, slotTotalStaked),
		supply: storage.NewBigInt(sctx, slotLiquidSupply),
	}
}

// Totals returns total staked and liquid supply.
func (s *Service) Totals() (staked *big.Int, supply *big.Int, err error) {
	if staked, err = s.staked.Get(); err != nil {
		return nil, nil, err
	}
	if supply, err = s.supply.Get(); err != nil {
		return nil, nil, err
	}
	return
}

// SharesFor converts amount to shares against the given totals.
// Rewards left over after the last holder exited go to the next depositor.
func SharesFor(amount, staked, supply *big.Int) *big.Int {
	switch {
	case staked.Sign() == 0:
		return new(big.Int).Set(amount)
	case supply.Sign() == 0:
		return new(big.Int).Add(amount, staked)
	default:
		shares := new(big.Int).Mul(amount, supply)
		return shares.Quo(shares, staked)
	}
}

// AmountFor converts shares to the base asset against the given totals.
func AmountFor(shares, staked, supply *big.Int) *big.Int {
	if supply.Sign() == 0 {
		return new(big.Int)
	}
	amount := new(big.Int).Mul(shares, staked)
	return amount.Quo(amount, supply)
}

// SimulateDeposit returns the shares a deposit of amount would mint.
func (s *Service) SimulateDeposit(amount *big.Int) (*big.Int, error) {
	staked, supply, err := s.Totals()
	if err != nil {
		return nil, err
	}
	shares := SharesFor(amount, staked, supply)
	if shares.Sign() == 0 {
		return nil, reverts.ErrInsufficientShares
	}
	return shares, nil
}

// Deposit adds amount to the pool and returns the shares minted for it.
func (s *Service) Deposit(amount *big.Int) (*big.Int, error) {
	shares, err := s.SimulateDeposit(amount)
	if err != nil {
		return nil, err
	}
	if err := s.staked.Add(amount); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	if err := s.supply.Add(shares); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	return shares, nil
}

// SimulateRedeem returns the amount a redemption of shares would pay.
func (s *Service) SimulateRedeem(shares *big.Int) (*big.Int, error) {
	staked, supply, err := s.Totals()
	if err != nil {
		return nil, err
	}
	if shares.Cmp(supply) > 0 {
		return nil, reverts.ErrInsufficientSupply
	}
	amount := AmountFor(shares, staked, supply)
	if amount.Sign() == 0 {
		return nil, reverts.ErrBadRedeemAmount
	}
	return amount, nil
}

// Redeem removes shares from the pool and returns the amount they are worth.
func (s *Service) Redeem(shares *big.Int) (*big.Int, error) {
	amount, err := s.SimulateRedeem(shares)
	if err != nil {
		return nil, err
	}
	if err := s.staked.Sub(amount); err != nil {
		return nil, errors.Wrap(err, "redeem")
	}
	if err := s.supply.Sub(shares); err != nil {
		return nil, errors.Wrap(err, "redeem")
	}
	return amount, nil
}

// AccrueRewards raises total staked without minting shares.
func (s *Service) AccrueRewards(amount *big.Int) error {
	return s.staked.Add(amount)
}

// Undo reverses a deposit of amount that minted shares.
func (s *Service) Undo(amount, shares *big.Int) error {
	if err := s.staked.Sub(amount); err != nil {
		return errors.Wrap(err, "undo deposit")
	}
	if err := s.supply.Sub(shares); err != nil {
		return errors.Wrap(err, "undo deposit")
	}
	return nil
}

// Restore reverses a redemption of shares that paid amount.
func (s *Service) Restore(amount, shares *big.Int) error {
	if err := s.staked.Add(amount); err != nil {
		return err
	}
	return s.supply.Add(shares)
}

// TokenPrice returns the value of one whole share.
func (s *Service) TokenPrice() (*big.Int, error) {
	staked, supply, err := s.Totals()
	if err != nil {
		return nil, err
	}
	if staked.Sign() == 0 || supply.Sign() == 0 {
		return new(big.Int).Set(lsd.OneToken), nil
	}
	price := new(big.Int).Mul(lsd.OneToken, staked)
	return price.Quo(price, supply), nil
}
