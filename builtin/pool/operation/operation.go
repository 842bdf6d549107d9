// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package operation

import (
	"encoding/binary"
	"math/big"
	"strconv"

	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

// ID identifies an operation. IDs start from 1.
type ID uint64

func (id ID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func (id ID) IsZero() bool {
	return id == 0
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Kind is the request an operation waits on.
type Kind uint8

const (
	KindDelegate Kind = iota + 1
	KindUndelegate
	KindDelegateAll
	KindUndelegateAll
	KindClaimRewards
	KindWithdrawAll
	KindRefreshConfig
	KindRefreshStake
	KindRefreshNodes
	KindRefreshFunds
)

var kindNames = map[Kind]string{
	KindDelegate:      "delegate",
	KindUndelegate:    "undelegate",
	KindDelegateAll:   "delegate-all",
	KindUndelegateAll: "undelegate-all",
	KindClaimRewards:  "claim-rewards",
	KindWithdrawAll:   "withdraw-all",
	KindRefreshConfig: "refresh-config",
	KindRefreshStake:  "refresh-stake",
	KindRefreshNodes:  "refresh-nodes",
	KindRefreshFunds:  "refresh-funds",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsRefresh reports whether the operation only refreshes a cached view.
func (k Kind) IsRefresh() bool {
	return k >= KindRefreshConfig && k <= KindRefreshFunds
}

type Status uint8

const (
	StatusNone Status = iota
	StatusPending
	StatusSettled
	StatusReverted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSettled:
		return "settled"
	case StatusReverted:
		return "reverted"
	default:
		return "none"
	}
}

// Operation is the persisted context of a request awaiting its provider's response.
type Operation struct {
	Kind     Kind
	Status   Status
	Provider lsd.Address
	Account  lsd.Address // the user of a direct delegate/undelegate
	Amount   *big.Int
	Shares   *big.Int // shares minted or burned up front
	Height   uint64   // block the request was issued at
	Epoch    uint64   // epoch the request was issued at
}

var (
	slotOps         = storage.Slot("operations")
	slotNextID      = storage.Slot("operations-next-id")
	slotPendingHead = storage.Slot("operations-pending-head")
	slotPendingTail = storage.Slot("operations-pending-tail")
	slotPendingLen  = storage.Slot("operations-pending-count")
)

// Service persists operations through Pending -> Settled | Reverted.
type Service struct {
	ops     *storage.Mapping[ID, *Operation]
	lastID  *storage.Uint64
	pending *storage.LinkedList[ID]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		ops:     storage.NewMapping[ID, *Operation](sctx, slotOps),
		lastID:  storage.NewUint64(sctx, slotNextID),
		pending: storage.NewLinkedList[ID](sctx, slotPendingHead, slotPendingTail, slotPendingLen),
	}
}

// Create stores op as pending and returns its ID.
func (s *Service) Create(op *Operation) (ID, error) {
	n, err := s.lastID.Add(1)
	if err != nil {
		return 0, err
	}
	id := ID(n)
	cpy := *op
	cpy.Status = StatusPending
	if cpy.Amount == nil {
		cpy.Amount = new(big.Int)
	}
	if cpy.Shares == nil {
		cpy.Shares = new(big.Int)
	}
	if err := s.ops.Set(id, &cpy); err != nil {
		return 0, err
	}
	if err := s.pending.Add(id); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the operation, ErrOperationNotFound if unknown.
func (s *Service) Get(id ID) (*Operation, error) {
	op, err := s.ops.Get(id)
	if err != nil {
		return nil, err
	}
	if op.Status == StatusNone {
		return nil, reverts.ErrOperationNotFound
	}
	return op, nil
}

// Pending returns IDs of pending operations, oldest first.
func (s *Service) Pending() ([]ID, error) {
	return s.pending.Keys()
}

// PendingCount returns the number of pending operations.
func (s *Service) PendingCount() (uint64, error) {
	return s.pending.Len()
}

func (s *Service) finalize(id ID, status Status) (*Operation, error) {
	op, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if op.Status != StatusPending {
		return nil, reverts.ErrOperationNotPending
	}
	op.Status = status
	if err := s.ops.Set(id, op); err != nil {
		return nil, err
	}
	if err := s.pending.Remove(id); err != nil {
		return nil, err
	}
	return op, nil
}

// Settle finalizes a pending operation whose request succeeded.
func (s *Service) Settle(id ID) (*Operation, error) {
	return s.finalize(id, StatusSettled)
}

// Revert finalizes a pending operation whose request failed.
func (s *Service) Revert(id ID) (*Operation, error) {
	return s.finalize(id, StatusReverted)
}
