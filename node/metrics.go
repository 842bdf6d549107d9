// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/vechain/lsd/metrics"

var (
	metricStepDuration      = metrics.LazyLoadHistogram("node_step_duration_ms", metrics.BucketHTTPReqs)
	metricPendingOperations = metrics.LazyLoadGauge("node_pending_operations")
	metricRequests          = metrics.LazyLoadCounterVec("node_requests_count", []string{"kind", "failed"})
	metricJobs              = metrics.LazyLoadCounterVec("node_jobs_count", []string{"job", "declined"})
)
