// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	noop := defaultNoopMetrics()
	assert.Nil(t, noop.GetOrCreateHandler())

	// every meter accepts any label set without panicking
	assert.NotPanics(t, func() {
		noop.GetOrCreateCountMeter("c").Add(1)
		noop.GetOrCreateCountVecMeter("cv", []string{"op"}).AddWithLabel(1, map[string]string{"nonsense": "ok"})
		noop.GetOrCreateGaugeMeter("g").Set(3)
		noop.GetOrCreateGaugeVecMeter("gv", nil).SetWithLabel(1, nil)
		noop.GetOrCreateHistogramMeter("h", nil).Observe(1)
		noop.GetOrCreateHistogramVecMeter("hv", nil, nil).ObserveWithLabels(1, map[string]string{"x": "y"})
	})
}
