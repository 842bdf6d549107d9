// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"

	"github.com/vechain/lsd/log"
)

// maxLoggedBody caps the request body echoed into the log.
const maxLoggedBody = 1024

// RequestLoggerHandler logs every pool API call once it has been served, with its outcome.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			b, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("failed to read request body", "uri", r.URL.String(), "err", err)
				http.Error(w, "bad request body", http.StatusBadRequest)
				return
			}
			body = b
			r.Body = io.NopCloser(bytes.NewReader(b))
		}

		m := httpsnoop.CaptureMetrics(handler, w, r)

		logged := body
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
		}
		logger.Info("API Request",
			"URI", r.URL.String(),
			"Method", r.Method,
			"Body", string(logged),
			"Status", m.Code,
			"Elapsed", m.Duration,
		)
	})
}
