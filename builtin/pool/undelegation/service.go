// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package undelegation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

var slotQueues = storage.Slot("undelegation-queues")

const (
	kindTotalUsers byte = iota + 1
	kindReserve
	kindUser
)

// QueueID identifies one of the undelegation queues.
type QueueID struct {
	kind byte
	user lsd.Address
}

var (
	// TotalUsers mirrors the sum of every user queue.
	TotalUsers = QueueID{kind: kindTotalUsers}
	// Reserve holds redemptions funded by the reserve vault.
	Reserve = QueueID{kind: kindReserve}
)

// User returns the queue of a single depositor.
func User(addr lsd.Address) QueueID {
	return QueueID{kind: kindUser, user: addr}
}

func (id QueueID) Bytes() []byte {
	return append([]byte{id.kind}, id.user[:]...)
}

func (id QueueID) String() string {
	switch id.kind {
	case kindTotalUsers:
		return "total-users"
	case kindReserve:
		return "reserve"
	default:
		return "user:" + id.user.String()
	}
}

// Service manages the undelegation queues.
type Service struct {
	queues *storage.Mapping[QueueID, Queue]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		queues: storage.NewMapping[QueueID, Queue](sctx, slotQueues),
	}
}

// Entries returns the entries of queue, front first.
func (s *Service) Entries(queue QueueID) (Queue, error) {
	return s.queues.Get(queue)
}

// Total returns the sum of amounts in queue.
func (s *Service) Total(queue QueueID) (*big.Int, error) {
	q, err := s.Entries(queue)
	if err != nil {
		return nil, err
	}
	return q.Total(), nil
}

func (s *Service) save(queue QueueID, q Queue) error {
	if len(q) == 0 {
		s.queues.Delete(queue)
		return nil
	}
	return s.queues.Set(queue, q)
}

// Enqueue adds amount payable at unbondEpoch, then folds every matured entry into
// a single entry at current.
func (s *Service) Enqueue(queue QueueID, amount *big.Int, unbondEpoch, current uint64) error {
	if amount.Sign() <= 0 {
		return nil
	}
	q, err := s.Entries(queue)
	if err != nil {
		return errors.Wrapf(err, "load queue %v", queue)
	}
	q = q.insert(amount, unbondEpoch).compact(current)
	return s.save(queue, q)
}

// Settle applies available to the entries of queue payable at asOf, front first.
// Pass lsd.MaxEpoch to ignore maturity. consumed + residual always equals available.
func (s *Service) Settle(queue QueueID, available *big.Int, asOf uint64) (consumed, residual *big.Int, err error) {
	q, err := s.Entries(queue)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load queue %v", queue)
	}
	q, consumed, residual = q.settle(available, asOf)
	if consumed.Sign() == 0 {
		return consumed, residual, nil
	}
	if err := s.save(queue, q); err != nil {
		return nil, nil, err
	}
	return consumed, residual, nil
}
