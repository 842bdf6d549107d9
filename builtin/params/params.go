// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/lsd"
)

// Keys of governance parameters.
var (
	KeyUnbondPeriod                = storage.Slot("unbond-period")
	KeyUndelegateNowFee            = storage.Slot("undelegate-now-fee")
	KeyServiceFee                  = storage.Slot("service-fee")
	KeyMaxProviderFee              = storage.Slot("max-provider-fee")
	KeyNodeBaseStake               = storage.Slot("node-base-stake")
	KeyFreshnessWindow             = storage.Slot("freshness-window")
	KeyMinBlocksBetweenDelegations = storage.Slot("min-blocks-between-delegations")
)

var names = map[string]lsd.Bytes32{
	"unbond-period":                  KeyUnbondPeriod,
	"undelegate-now-fee":             KeyUndelegateNowFee,
	"service-fee":                    KeyServiceFee,
	"max-provider-fee":               KeyMaxProviderFee,
	"node-base-stake":                KeyNodeBaseStake,
	"freshness-window":               KeyFreshnessWindow,
	"min-blocks-between-delegations": KeyMinBlocksBetweenDelegations,
}

// KeyByName resolves a parameter key from its name.
func KeyByName(name string) (lsd.Bytes32, bool) {
	key, ok := names[name]
	return key, ok
}

// Names returns every known parameter name.
func Names() []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	return out
}

// Params binder of governance parameters.
type Params struct {
	values *storage.Mapping[lsd.Bytes32, *big.Int]
}

func New(sctx *storage.Context) *Params {
	return &Params{
		values: storage.NewMapping[lsd.Bytes32, *big.Int](sctx, storage.Slot("params")),
	}
}

// Get native way to get param. Unset node-base-stake, freshness-window and max-provider-fee
// fall back to their defaults.
func (p *Params) Get(key lsd.Bytes32) (*big.Int, error) {
	v, err := p.values.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		switch key {
		case KeyNodeBaseStake:
			return new(big.Int).Set(lsd.NodeBaseStake), nil
		case KeyFreshnessWindow:
			return new(big.Int).SetUint64(lsd.FreshnessWindow()), nil
		case KeyMaxProviderFee:
			return new(big.Int).SetUint64(lsd.MaxPercent), nil
		}
	}
	return v, nil
}

// GetUint64 returns the param as uint64, saturating on overflow.
func (p *Params) GetUint64(key lsd.Bytes32) (uint64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return ^uint64(0), nil
	}
	return v.Uint64(), nil
}

// Set native way to set param.
func (p *Params) Set(key lsd.Bytes32, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		p.values.Delete(key)
		return nil
	}
	return p.values.Set(key, value)
}
