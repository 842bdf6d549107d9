// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/lsd"
)

// State of the pool.
type State uint8

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Env is the host clock the pool runs against.
type Env struct {
	Height uint64
	Epoch  uint64
}

// EventKind names a pool state change.
type EventKind string

const (
	EventDelegate          EventKind = "delegate"
	EventDelegated         EventKind = "delegated"
	EventRefund            EventKind = "refund"
	EventUndelegate        EventKind = "undelegate"
	EventUndelegated       EventKind = "undelegated"
	EventWithdraw          EventKind = "withdraw"
	EventUndelegateNow     EventKind = "undelegate-now"
	EventAddReserve        EventKind = "add-reserve"
	EventRemoveReserve     EventKind = "remove-reserve"
	EventDelegateAll       EventKind = "delegate-all"
	EventUndelegateAll     EventKind = "undelegate-all"
	EventRewardsClaimed    EventKind = "rewards-claimed"
	EventCommission        EventKind = "commission"
	EventWithdrawAll       EventKind = "withdraw-all"
	EventWithdrawn         EventKind = "withdrawn"
	EventRequestFailed     EventKind = "request-failed"
	EventProviderAdded     EventKind = "provider-added"
	EventProviderRemoved   EventKind = "provider-removed"
	EventProviderState     EventKind = "provider-state"
	EventConfigRefreshed   EventKind = "config-refreshed"
	EventStakeRefreshed    EventKind = "stake-refreshed"
	EventNodesRefreshed    EventKind = "nodes-refreshed"
	EventFundsRefreshed    EventKind = "funds-refreshed"
	EventParamSet          EventKind = "param-set"
	EventStateChanged      EventKind = "state-changed"
)

// refreshedEvents maps a provider view to the event recording its refresh.
var refreshedEvents = map[provider.Kind]EventKind{
	provider.KindConfig: EventConfigRefreshed,
	provider.KindStake:  EventStakeRefreshed,
	provider.KindNodes:  EventNodesRefreshed,
	provider.KindFunds:  EventFundsRefreshed,
}

// Event is emitted by every state change. Amount and Shares are never nil.
type Event struct {
	Kind     EventKind
	Account  lsd.Address
	Provider lsd.Address
	Amount   *big.Int
	Shares   *big.Int // shares or reserve points, depending on the kind
	OpID     operation.ID
}

// Request is an operation to send to a provider.
type Request struct {
	ID operation.ID
	Op *operation.Operation
}

// Result is the outcome of a request. Only the field matching the operation kind is read.
type Result struct {
	Failed bool
	Reason string

	Amount *big.Int // claimed or withdrawn amount
	Config *provider.Config
	Stake  *big.Int
	Nodes  []string
	Funds  *provider.Funds
}

// Info is the pool wide view.
type Info struct {
	Owner               lsd.Address
	State               State
	TotalStaked         *big.Int
	LiquidSupply        *big.Int
	TokenPrice          *big.Int
	ToDelegate          *big.Int
	ToUndelegate        *big.Int
	TotalWithdrawn      *big.Int
	UserWithdrawn       *big.Int
	ReserveTotal        *big.Int
	ReserveAvailable    *big.Int
	ReservePoints       *big.Int
	UsersUndelegating   *big.Int
	ReserveUndelegating *big.Int
	UnbondPeriod        uint64
	UndelegateNowFee    uint64
	ServiceFee          uint64
	Providers           uint64
	PendingOperations   uint64
	LastDelegationBlock uint64
}

// Undelegation is a queued redemption of a user.
type Undelegation struct {
	Amount      *big.Int
	UnbondEpoch uint64
}

// UserInfo is the view of a single account.
type UserInfo struct {
	Shares          *big.Int
	ShareValue      *big.Int
	ReservePoints   *big.Int
	ReserveValue    *big.Int
	AddReserveEpoch uint64
	Undelegations   []Undelegation
	Withdrawable    *big.Int // matured entries, payable once funds have returned
}

func newEvent(kind EventKind, account, prov lsd.Address, amount, shares *big.Int, id operation.ID) *Event {
	return &Event{
		Kind:     kind,
		Account:  account,
		Provider: prov,
		Amount:   copyOrZero(amount),
		Shares:   copyOrZero(shares),
		OpID:     id,
	}
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
