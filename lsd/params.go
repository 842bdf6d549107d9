// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lsd

import (
	"math"
	"math/big"
)

// Pool wide constants. Amounts are in the smallest unit of the base asset.
var (
	OneToken      = big.NewInt(1e18)
	MinAmount     = new(big.Int).Set(OneToken)
	DustThreshold = big.NewInt(1_000)
	NodeBaseStake = new(big.Int).Mul(big.NewInt(2_500), OneToken)
)

const (
	// MaxPercent is the basis point denominator used by every fee.
	MaxPercent uint64 = 10_000
	// MaxUnbondPeriod bounds the unbond period accepted by the pool, in epochs.
	MaxUnbondPeriod uint64 = 20
	// MaxEpoch makes a settlement ignore the unbond epoch of entries.
	MaxEpoch uint64 = math.MaxUint64
)

// Tokens returns n whole tokens.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), OneToken)
}
