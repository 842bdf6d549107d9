// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/node"
	"github.com/vechain/lsd/transport"
	"github.com/vechain/lsd/transport/mock"
	"github.com/vechain/lsd/transport/remote"
)

// newSimulation creates the in process providers of setup.
// With all set, providers with a url are simulated too.
func newSimulation(setup *network, all bool) (*mock.Network, error) {
	var opts []mock.Option
	if setup.unbondPeriod > 0 {
		opts = append(opts, mock.WithUnbondPeriod(setup.unbondPeriod))
	}
	if setup.latency > 0 {
		opts = append(opts, mock.WithLatency(setup.latency))
	}
	sim := mock.NewNetwork(opts...)
	for _, p := range setup.providers {
		if p.url != "" && !all {
			continue
		}
		if err := sim.AddProvider(p.sim); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// newTransport routes remote providers to their server and everything else to sim.
func newTransport(setup *network, sim *mock.Network, timeout time.Duration) transport.Transport {
	router := transport.NewRouter(sim)
	for _, p := range setup.providers {
		if p.url != "" {
			router.Route(p.sim.Address, remote.New(p.url, timeout))
		}
	}
	return router
}

// bootstrap initializes a fresh pool with the configured params and providers, then activates it.
// An initialized pool is left untouched.
func bootstrap(setup *network) node.Command {
	return func(p *pool.Pool) error {
		owner, err := p.Owner()
		if err != nil {
			return err
		}
		if !owner.IsZero() {
			logger.Debug("pool already initialized", "owner", owner)
			return nil
		}

		if err := p.Init(setup.owner); err != nil {
			return err
		}
		for _, param := range setup.params {
			if err := p.SetParam(setup.owner, param.key, param.value); err != nil {
				return err
			}
		}
		for _, prov := range setup.providers {
			if err := p.AddProvider(setup.owner, prov.sim.Address); err != nil {
				return err
			}
		}
		if err := p.Activate(setup.owner); err != nil {
			return err
		}
		logger.Info("pool initialized", "owner", setup.owner, "providers", len(setup.providers))
		return nil
	}
}
