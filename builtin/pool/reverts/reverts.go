// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a declined operation. No state is kept when an entry point returns one.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// invariant violations
var (
	ErrInsufficientShares  = New("insufficient shares")
	ErrInsufficientSupply  = New("insufficient supply")
	ErrBadRedeemAmount     = New("bad redeem amount")
	ErrInsufficientReserve = New("insufficient reserve")
	ErrNoEligibleProvider  = New("no eligible provider")
)

// pool declines
var (
	ErrNotActive            = New("pool not active")
	ErrNotInactive          = New("pool is active")
	ErrUnauthorized         = New("unauthorized")
	ErrInsufficientAmount   = New("insufficient amount")
	ErrAmountTooLow         = New("amount too low")
	ErrNothingToWithdraw    = New("nothing to withdraw")
	ErrCantLeaveDust        = New("cannot leave dust")
	ErrRemoveReserveTooSoon = New("remove reserve too soon")
	ErrDelegateTooSoon      = New("delegate too soon")
	ErrSlippage             = New("payout below minimum")
	ErrInvalidParam         = New("invalid param")
	ErrUnbondPeriodNotSet   = New("unbond period not set")
	ErrNoProviders          = New("no providers")
)

// provider declines
var (
	ErrProviderExists      = New("provider already exists")
	ErrProviderNotFound    = New("provider not found")
	ErrProviderNotUpToDate = New("provider not up to date")
	ErrProviderWithFunds   = New("provider still has funds")
	ErrProviderStateNoop   = New("provider already in state")
	ErrOperationNotFound   = New("operation not found")
	ErrOperationNotPending = New("operation not pending")
)
