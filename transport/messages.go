// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transport

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lsd/lsd"
)

// DelegateMsg is the payload of delegate and undelegate.
type DelegateMsg struct {
	Delegator lsd.Address
	Amount    *big.Int
}

// DelegatorMsg is the payload of withdraw, claim-rewards and get-funds.
type DelegatorMsg struct {
	Delegator lsd.Address
}

// AmountMsg answers delegate, undelegate, withdraw, claim-rewards and get-total-stake.
type AmountMsg struct {
	Amount *big.Int
}

// ConfigMsg answers get-config.
type ConfigMsg struct {
	Fee    uint64
	HasCap bool
	MaxCap *big.Int
}

// NodesMsg answers get-node-states.
type NodesMsg struct {
	Statuses []string
}

// FundsMsg answers get-funds with the delegator's position.
type FundsMsg struct {
	Stake        *big.Int
	Rewards      *big.Int
	Undelegated  *big.Int
	Withdrawable *big.Int
}

// Encode returns the RLP encoding of msg. A nil msg encodes to an empty payload.
func Encode(msg any) ([]byte, error) {
	if msg == nil {
		return nil, nil
	}
	b, err := rlp.EncodeToBytes(msg)
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}
	return b, nil
}

// Decode decodes an RLP payload into msg.
func Decode(payload []byte, msg any) error {
	if err := rlp.DecodeBytes(payload, msg); err != nil {
		return errors.Wrap(err, "decode message")
	}
	return nil
}
