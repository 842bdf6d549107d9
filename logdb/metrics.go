// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/vechain/lsd/metrics"
)

var (
	metricQueryParameters = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrder      = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricLimitBucket     = metrics.LazyLoadHistogram("logdb_query_limit_bucket", []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
)

func metricsHandleEventsFilter(filter *EventFilter) {
	var used []string
	if filter.Range != nil {
		used = append(used, "range")
	}
	if len(filter.Kinds) > 0 {
		used = append(used, "kinds")
	}
	if filter.Account != nil {
		used = append(used, "account")
	}
	if filter.Provider != nil {
		used = append(used, "provider")
	}
	if filter.OpID != nil {
		used = append(used, "opID")
	}
	metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(used, ",")})

	order := "asc"
	if filter.Order == DESC {
		order = "desc"
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"order": order})

	if filter.Options != nil {
		limit := filter.Options.Limit
		if limit > 1000 {
			limit = 1001
		}
		metricLimitBucket().Observe(int64(limit))
	}
}
