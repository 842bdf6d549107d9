// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/lsd/api/node"
	"github.com/vechain/lsd/metrics"
	lsdnode "github.com/vechain/lsd/node"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

type fixedStatus lsdnode.Status

func (s fixedStatus) Status() lsdnode.Status { return lsdnode.Status(s) }

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	r, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	return r, res.StatusCode
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	node.New(fixedStatus{Height: 1}, node.Info{}).Mount(router, "/node")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	httpGet(t, ts.URL+"/node/status")
	httpGet(t, ts.URL+"/node/info")
	httpGet(t, ts.URL+"/node/info")
	_, code := httpGet(t, ts.URL+"/node/unknown")
	assert.Equal(t, http.StatusNotFound, code)

	body, _ := httpGet(t, ts.URL+"/metrics")
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	m := families["lsd_metrics_api_request_count"].GetMetric()
	require.Len(t, m, 2, "unnamed routes are not recorded")

	counts := make(map[string]float64)
	for _, metric := range m {
		labels := metric.GetLabel()
		require.Len(t, labels, 3)
		assert.Equal(t, "code", labels[0].GetName())
		assert.Equal(t, "200", labels[0].GetValue())
		assert.Equal(t, "method", labels[1].GetName())
		assert.Equal(t, "GET", labels[1].GetValue())
		assert.Equal(t, "name", labels[2].GetName())
		counts[labels[2].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"GET /node/status": 1, "GET /node/info": 2}, counts)
}
