// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/lsd"
)

// tokenDecimals is the exponent of one whole token.
const tokenDecimals = 18

type Info struct {
	Owner               lsd.Address           `json:"owner"`
	State               string                `json:"state"`
	TotalStaked         *math.HexOrDecimal256 `json:"totalStaked"`
	LiquidSupply        *math.HexOrDecimal256 `json:"liquidSupply"`
	TokenPrice          *math.HexOrDecimal256 `json:"tokenPrice"`
	Price               string                `json:"price"`
	ToDelegate          *math.HexOrDecimal256 `json:"toDelegate"`
	ToUndelegate        *math.HexOrDecimal256 `json:"toUndelegate"`
	TotalWithdrawn      *math.HexOrDecimal256 `json:"totalWithdrawn"`
	UserWithdrawn       *math.HexOrDecimal256 `json:"userWithdrawn"`
	ReserveTotal        *math.HexOrDecimal256 `json:"reserveTotal"`
	ReserveAvailable    *math.HexOrDecimal256 `json:"reserveAvailable"`
	ReservePoints       *math.HexOrDecimal256 `json:"reservePoints"`
	UsersUndelegating   *math.HexOrDecimal256 `json:"usersUndelegating"`
	ReserveUndelegating *math.HexOrDecimal256 `json:"reserveUndelegating"`
	UnbondPeriod        uint64                `json:"unbondPeriod"`
	UndelegateNowFee    uint64                `json:"undelegateNowFee"`
	ServiceFee          uint64                `json:"serviceFee"`
	Providers           uint64                `json:"providers"`
	PendingOperations   uint64                `json:"pendingOperations"`
	LastDelegationBlock uint64                `json:"lastDelegationBlock"`
}

func convertInfo(i *pool.Info) *Info {
	return &Info{
		Owner:               i.Owner,
		State:               i.State.String(),
		TotalStaked:         hex(i.TotalStaked),
		LiquidSupply:        hex(i.LiquidSupply),
		TokenPrice:          hex(i.TokenPrice),
		Price:               formatTokens(i.TokenPrice),
		ToDelegate:          hex(i.ToDelegate),
		ToUndelegate:        hex(i.ToUndelegate),
		TotalWithdrawn:      hex(i.TotalWithdrawn),
		UserWithdrawn:       hex(i.UserWithdrawn),
		ReserveTotal:        hex(i.ReserveTotal),
		ReserveAvailable:    hex(i.ReserveAvailable),
		ReservePoints:       hex(i.ReservePoints),
		UsersUndelegating:   hex(i.UsersUndelegating),
		ReserveUndelegating: hex(i.ReserveUndelegating),
		UnbondPeriod:        i.UnbondPeriod,
		UndelegateNowFee:    i.UndelegateNowFee,
		ServiceFee:          i.ServiceFee,
		Providers:           i.Providers,
		PendingOperations:   i.PendingOperations,
		LastDelegationBlock: i.LastDelegationBlock,
	}
}

type Undelegation struct {
	Amount      *math.HexOrDecimal256 `json:"amount"`
	UnbondEpoch uint64                `json:"unbondEpoch"`
}

type User struct {
	Shares          *math.HexOrDecimal256 `json:"shares"`
	ShareValue      *math.HexOrDecimal256 `json:"shareValue"`
	ReservePoints   *math.HexOrDecimal256 `json:"reservePoints"`
	ReserveValue    *math.HexOrDecimal256 `json:"reserveValue"`
	AddReserveEpoch uint64                `json:"addReserveEpoch"`
	Undelegations   []Undelegation        `json:"undelegations"`
	Withdrawable    *math.HexOrDecimal256 `json:"withdrawable"`
}

func convertUser(u *pool.UserInfo) *User {
	out := &User{
		Shares:          hex(u.Shares),
		ShareValue:      hex(u.ShareValue),
		ReservePoints:   hex(u.ReservePoints),
		ReserveValue:    hex(u.ReserveValue),
		AddReserveEpoch: u.AddReserveEpoch,
		Undelegations:   make([]Undelegation, 0, len(u.Undelegations)),
		Withdrawable:    hex(u.Withdrawable),
	}
	for _, e := range u.Undelegations {
		out.Undelegations = append(out.Undelegations, Undelegation{Amount: hex(e.Amount), UnbondEpoch: e.UnbondEpoch})
	}
	return out
}

type Provider struct {
	Address          lsd.Address           `json:"address"`
	State            string                `json:"state"`
	UpToDate         bool                  `json:"upToDate"`
	StakedNodes      uint64                `json:"stakedNodes"`
	TotalStake       *math.HexOrDecimal256 `json:"totalStake"`
	HasCap           bool                  `json:"hasCap"`
	MaxCap           *math.HexOrDecimal256 `json:"maxCap"`
	Fee              uint64                `json:"fee"`
	PoolStake        *math.HexOrDecimal256 `json:"poolStake"`
	PoolRewards      *math.HexOrDecimal256 `json:"poolRewards"`
	PoolUndelegated  *math.HexOrDecimal256 `json:"poolUndelegated"`
	PoolWithdrawable *math.HexOrDecimal256 `json:"poolWithdrawable"`
}

func convertProvider(addr lsd.Address, p *provider.Provider, upToDate bool) *Provider {
	return &Provider{
		Address:          addr,
		State:            p.State.String(),
		UpToDate:         upToDate,
		StakedNodes:      p.StakedNodes,
		TotalStake:       hex(p.TotalStake),
		HasCap:           p.HasCap,
		MaxCap:           hex(p.MaxCap),
		Fee:              p.Fee,
		PoolStake:        hex(p.PoolStake),
		PoolRewards:      hex(p.PoolRewards),
		PoolUndelegated:  hex(p.PoolUndelegated),
		PoolWithdrawable: hex(p.PoolWithdrawable),
	}
}

type PendingOperation struct {
	ID       uint64                `json:"id"`
	Kind     string                `json:"kind"`
	Provider lsd.Address           `json:"provider"`
	Account  lsd.Address           `json:"account"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
	Height   uint64                `json:"height"`
}

type Quote struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
	Fee    *math.HexOrDecimal256 `json:"fee,omitempty"`
}

// Action is the body of a pool action. Only the fields the action reads are required.
type Action struct {
	Account  *lsd.Address          `json:"account"`
	Provider *lsd.Address          `json:"provider,omitempty"`
	To       *lsd.Address          `json:"to,omitempty"`
	Amount   *math.HexOrDecimal256 `json:"amount,omitempty"`
	Shares   *math.HexOrDecimal256 `json:"shares,omitempty"`
	MinOut   *math.HexOrDecimal256 `json:"minOut,omitempty"`
	Name     string                `json:"name,omitempty"`
	Value    *math.HexOrDecimal256 `json:"value,omitempty"`
	State    string                `json:"state,omitempty"`
}

// ActionResult carries the amount an action returned, or the count of requests it issued.
type ActionResult struct {
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
	Count  *int                  `json:"count,omitempty"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	h := math.HexOrDecimal256(*v)
	return &h
}

func bigOf(h *math.HexOrDecimal256) *big.Int {
	if h == nil {
		return nil
	}
	return (*big.Int)(h)
}

// formatTokens renders an amount in whole tokens.
func formatTokens(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -tokenDecimals).String()
}
