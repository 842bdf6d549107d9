// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reserve

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

var (
	slotTotal      = storage.Slot("reserve-total")
	slotAvailable  = storage.Slot("reserve-available")
	slotPoints     = storage.Slot("reserve-points")
	slotUserPoints = storage.Slot("reserve-user-points")
	slotAddEpoch   = storage.Slot("reserve-add-epoch")
)

// Totals is a snapshot of the reserve vault.
type Totals struct {
	Total     *big.Int // value of all contributions, including amounts locked in undelegation
	Available *big.Int // portion usable to fund instant redemptions
	Points    *big.Int
}

// Service is the points based reserve vault backing instant redemptions.
type Service struct {
	total      *storage.BigInt
	available  *storage.BigInt
	points     *storage.BigInt
	userPoints *storage.Mapping[lsd.Address, *big.Int]
	addEpoch   *storage.Mapping[lsd.Address, uint64]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		total:      storage.NewBigInt(sctx, slotTotal),
		available:  storage.NewBigInt(sctx, slotAvailable),
		points:     storage.NewBigInt(sctx, slotPoints),
		userPoints: storage.NewMapping[lsd.Address, *big.Int](sctx, slotUserPoints),
		addEpoch:   storage.NewMapping[lsd.Address, uint64](sctx, slotAddEpoch),
	}
}

func (s *Service) Totals() (*Totals, error) {
	total, err := s.total.Get()
	if err != nil {
		return nil, err
	}
	available, err := s.available.Get()
	if err != nil {
		return nil, err
	}
	points, err := s.points.Get()
	if err != nil {
		return nil, err
	}
	return &Totals{Total: total, Available: available, Points: points}, nil
}

// PointsFor converts an amount of base asset to reserve points, rounding down.
func (s *Service) PointsFor(amount *big.Int) (*big.Int, error) {
	t, err := s.Totals()
	if err != nil {
		return nil, err
	}
	switch {
	case t.Total.Sign() == 0:
		return new(big.Int).Set(amount), nil
	case t.Points.Sign() == 0:
		return new(big.Int).Add(amount, t.Total), nil
	default:
		points := new(big.Int).Mul(amount, t.Points)
		return points.Quo(points, t.Total), nil
	}
}

// AmountFor converts reserve points to base asset, rounding down. A round trip loses less than the
// value of one point, which stays with the remaining contributors.
func (s *Service) AmountFor(points *big.Int) (*big.Int, error) {
	t, err := s.Totals()
	if err != nil {
		return nil, err
	}
	if t.Points.Sign() == 0 {
		return new(big.Int).Set(points), nil
	}
	amount := new(big.Int).Mul(points, t.Total)
	return amount.Quo(amount, t.Points), nil
}

func (s *Service) PointsOf(account lsd.Address) (*big.Int, error) {
	return s.userPoints.Get(account)
}

// ValueOf returns the base asset value of the account's points.
func (s *Service) ValueOf(account lsd.Address) (*big.Int, error) {
	points, err := s.PointsOf(account)
	if err != nil {
		return nil, err
	}
	return s.AmountFor(points)
}

// AddEpoch returns the epoch of the account's last contribution.
func (s *Service) AddEpoch(account lsd.Address) (uint64, error) {
	return s.addEpoch.Get(account)
}

// Add credits amount to the vault on behalf of account and returns the points issued.
func (s *Service) Add(account lsd.Address, amount *big.Int, epoch uint64) (*big.Int, error) {
	points, err := s.PointsFor(amount)
	if err != nil {
		return nil, err
	}
	if points.Sign() == 0 {
		return nil, reverts.ErrAmountTooLow
	}
	if err := s.total.Add(amount); err != nil {
		return nil, err
	}
	if err := s.available.Add(amount); err != nil {
		return nil, err
	}
	if err := s.points.Add(points); err != nil {
		return nil, err
	}
	userPoints, err := s.PointsOf(account)
	if err != nil {
		return nil, err
	}
	if err := s.userPoints.Set(account, userPoints.Add(userPoints, points)); err != nil {
		return nil, err
	}
	if err := s.addEpoch.Set(account, epoch); err != nil {
		return nil, err
	}
	return points, nil
}

// Remove redeems points of account and returns the amount paid out of the available reserve.
func (s *Service) Remove(account lsd.Address, points *big.Int) (*big.Int, error) {
	userPoints, err := s.PointsOf(account)
	if err != nil {
		return nil, err
	}
	if points.Cmp(userPoints) > 0 {
		return nil, reverts.ErrInsufficientAmount
	}
	amount, err := s.AmountFor(points)
	if err != nil {
		return nil, err
	}
	available, err := s.available.Get()
	if err != nil {
		return nil, err
	}
	if amount.Cmp(available) > 0 {
		return nil, reverts.ErrInsufficientReserve
	}

	if err := s.total.Sub(amount); err != nil {
		return nil, errors.Wrap(err, "reserve total")
	}
	if err := s.available.Sub(amount); err != nil {
		return nil, errors.Wrap(err, "reserve available")
	}
	if err := s.points.Sub(points); err != nil {
		return nil, errors.Wrap(err, "reserve points")
	}
	userPoints.Sub(userPoints, points)
	if userPoints.Sign() == 0 {
		s.userPoints.Delete(account)
		s.addEpoch.Delete(account)
		return amount, nil
	}
	if err := s.userPoints.Set(account, userPoints); err != nil {
		return nil, err
	}
	return amount, nil
}

// FundInstantRedemption takes payout from the available reserve and credits fee as yield to the
// contributors. The full redeemed amount returns to the available reserve through Settle once it
// is withdrawn from the providers.
func (s *Service) FundInstantRedemption(payout, fee *big.Int) error {
	available, err := s.available.Get()
	if err != nil {
		return err
	}
	if payout.Cmp(available) > 0 {
		return reverts.ErrInsufficientReserve
	}
	if err := s.available.Sub(payout); err != nil {
		return err
	}
	return s.total.Add(fee)
}

// Settle returns funds withdrawn from the providers to the available reserve.
func (s *Service) Settle(amount *big.Int) error {
	return s.available.Add(amount)
}
