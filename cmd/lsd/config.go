// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport/mock"
)

// Config is the network config file.
type Config struct {
	Owner      string            `yaml:"owner"`
	Pool       string            `yaml:"pool"`
	Chain      lsd.Config        `yaml:"chain"`
	Params     map[string]string `yaml:"params"`
	Providers  []ProviderConfig  `yaml:"providers"`
	Simulation SimulationConfig  `yaml:"simulation"`
}

// ProviderConfig describes a provider. Without url the provider is simulated in process.
// Token amounts are decimal strings in whole tokens.
type ProviderConfig struct {
	Address   string   `yaml:"address"`
	URL       string   `yaml:"url"`
	Fee       uint64   `yaml:"fee"`
	MaxCap    string   `yaml:"maxCap"`
	Nodes     []string `yaml:"nodes"`
	Stake     string   `yaml:"stake"`
	FailEvery uint64   `yaml:"failEvery"`
}

type SimulationConfig struct {
	UnbondPeriod uint64        `yaml:"unbondPeriod"`
	Latency      time.Duration `yaml:"latency"`
}

const defaultConfig = `
owner: "0x00000000000000000000000000000000000f0001"
pool: "0x00000000000000000000000000000000000f0002"
chain:
  blockInterval: 10
  epochLength: 360
  freshnessWindow: 30
params:
  unbond-period: "10"
  undelegate-now-fee: "50"
  service-fee: "1000"
  max-provider-fee: "2000"
providers:
  - address: "0x00000000000000000000000000000000000f1001"
    fee: 500
    nodes: [staked, staked, staked]
    stake: "100000"
simulation:
  unbondPeriod: 10
`

// network is a validated config.
type network struct {
	owner        lsd.Address
	pool         lsd.Address
	chain        lsd.Config
	params       []param
	providers    []providerSetup
	unbondPeriod uint64
	latency      time.Duration
}

type param struct {
	name  string
	key   lsd.Bytes32
	value *big.Int
}

type providerSetup struct {
	url string
	sim mock.ProviderConfig
}

// loadConfig reads the config file at path, or the built-in config if path is empty.
func loadConfig(path string) (*Config, error) {
	data := []byte(defaultConfig)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

func (c *Config) resolve() (*network, error) {
	var (
		n   = &network{chain: c.Chain, unbondPeriod: c.Simulation.UnbondPeriod, latency: c.Simulation.Latency}
		err error
	)
	if n.owner, err = lsd.ParseAddress(c.Owner); err != nil {
		return nil, errors.WithMessage(err, "owner")
	}
	if n.owner.IsZero() {
		return nil, errors.New("owner: zero address")
	}
	if n.pool, err = lsd.ParseAddress(c.Pool); err != nil {
		return nil, errors.WithMessage(err, "pool")
	}

	names := make([]string, 0, len(c.Params))
	for name := range c.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		key, ok := params.KeyByName(name)
		if !ok {
			return nil, errors.Errorf("params: unknown param %q", name)
		}
		value, ok := math.ParseBig256(c.Params[name])
		if !ok {
			return nil, errors.Errorf("params: invalid value %q of %v", c.Params[name], name)
		}
		n.params = append(n.params, param{name: name, key: key, value: value})
	}

	if len(c.Providers) == 0 {
		return nil, errors.New("providers: none configured")
	}
	seen := make(map[lsd.Address]bool)
	for i, pc := range c.Providers {
		ps, err := pc.resolve()
		if err != nil {
			return nil, errors.WithMessagef(err, "providers[%d]", i)
		}
		if seen[ps.sim.Address] {
			return nil, errors.Errorf("providers[%d]: duplicated address %v", i, ps.sim.Address)
		}
		seen[ps.sim.Address] = true
		n.providers = append(n.providers, ps)
	}
	return n, nil
}

func (pc *ProviderConfig) resolve() (providerSetup, error) {
	addr, err := lsd.ParseAddress(pc.Address)
	if err != nil {
		return providerSetup{}, errors.WithMessage(err, "address")
	}
	ps := providerSetup{
		url: pc.URL,
		sim: mock.ProviderConfig{
			Address:   addr,
			Fee:       pc.Fee,
			Nodes:     pc.Nodes,
			FailEvery: pc.FailEvery,
		},
	}
	if pc.MaxCap != "" {
		if ps.sim.MaxCap, err = parseTokens(pc.MaxCap); err != nil {
			return providerSetup{}, errors.WithMessage(err, "maxCap")
		}
	}
	if pc.Stake != "" {
		if ps.sim.Stake, err = parseTokens(pc.Stake); err != nil {
			return providerSetup{}, errors.WithMessage(err, "stake")
		}
	}
	return ps, nil
}

// parseTokens converts a decimal amount of tokens into wei.
func parseTokens(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, errors.Errorf("negative amount %v", s)
	}
	wei := d.Shift(18)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, errors.Errorf("amount %v has more than 18 decimals", s)
	}
	return wei.BigInt(), nil
}
