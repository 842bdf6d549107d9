// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transport

import (
	"context"
	"time"

	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/metrics"
)

var metricSendDuration = metrics.LazyLoadHistogramVec(
	"transport_send_duration_ms", []string{"op", "failed"}, metrics.BucketTransport,
)

// Request is a message bound to a provider.
type Request struct {
	Provider lsd.Address
	Op       Op
	Payload  []byte
}

// Future is the pending answer of a dispatched request.
type Future struct {
	Request Request

	done chan struct{}
	resp []byte
	err  error
}

// Dispatch sends req on its own goroutine.
func Dispatch(ctx context.Context, t Transport, req Request) *Future {
	f := &Future{Request: req, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = Send(ctx, t, req)
	}()
	return f
}

// Send sends req and waits for the answer, recording its latency.
func Send(ctx context.Context, t Transport, req Request) ([]byte, error) {
	start := time.Now()
	resp, err := t.Send(ctx, req.Provider, req.Op, req.Payload)
	failed := "false"
	if err != nil {
		failed = "true"
	}
	metricSendDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": string(req.Op), "failed": failed})
	return resp, err
}

// Done is closed once the answer arrived.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the answer arrived.
func (f *Future) Result() ([]byte, error) {
	<-f.done
	return f.resp, f.err
}
