// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/builtin/pool/reverts"
)

type job struct {
	name string
	run  func(p *pool.Pool) error
}

// jobs run in order at the start of every epoch.
var jobs = []job{
	{"refresh", func(p *pool.Pool) error { _, err := p.Refresh(); return err }},
	{"claim-rewards", func(p *pool.Pool) error { _, err := p.ClaimRewards(); return err }},
	{"withdraw-all", func(p *pool.Pool) error { _, err := p.WithdrawAll(); return err }},
	{"compute-withdrawn", func(p *pool.Pool) error { return p.ComputeWithdrawn() }},
	{"delegate-all", func(p *pool.Pool) error { _, err := p.DelegateAll(); return err }},
	{"undelegate-all", func(p *pool.Pool) error { _, err := p.UndelegateAll(); return err }},
}

// runJobs runs the scheduled batch jobs. A failing job is logged and skipped.
func runJobs(p *pool.Pool) {
	for _, j := range jobs {
		err := j.run(p)
		switch {
		case err == nil:
		case reverts.IsRevertErr(err):
			logger.Debug("job declined", "job", j.name, "reason", err)
		default:
			logger.Warn("job failed", "job", j.name, "err", err)
		}
		metricJobs().AddWithLabel(1, map[string]string{"job": j.name, "declined": boolLabel(err != nil)})
	}
}
