// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transport carries pool requests to delegation providers and brings their answers back.
package transport

import (
	"context"
	"errors"

	"github.com/vechain/lsd/lsd"
)

// Op is a request understood by a provider.
type Op string

const (
	OpDelegate      Op = "delegate"
	OpUndelegate    Op = "undelegate"
	OpWithdraw      Op = "withdraw"
	OpClaimRewards  Op = "claim-rewards"
	OpGetConfig     Op = "get-config"
	OpGetTotalStake Op = "get-total-stake"
	OpGetNodeStates Op = "get-node-states"
	OpGetFunds      Op = "get-funds"
)

var (
	// ErrUnknownProvider is returned when no provider lives at the address.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownOp is returned for an op the provider does not serve.
	ErrUnknownOp = errors.New("unknown op")
)

// Transport sends an RLP encoded payload to a provider and returns its RLP encoded answer.
// An error means the request failed and left the provider untouched.
type Transport interface {
	Send(ctx context.Context, provider lsd.Address, op Op, payload []byte) ([]byte, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, provider lsd.Address, op Op, payload []byte) ([]byte, error)

func (f Func) Send(ctx context.Context, provider lsd.Address, op Op, payload []byte) ([]byte, error) {
	return f(ctx, provider, op, payload)
}
