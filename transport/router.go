// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transport

import (
	"context"
	"sync"

	"github.com/vechain/lsd/lsd"
)

// Router sends each request through the transport registered for its provider,
// falling back to a default one.
type Router struct {
	lock     sync.RWMutex
	routes   map[lsd.Address]Transport
	fallback Transport
}

// NewRouter creates a router. fallback may be nil.
func NewRouter(fallback Transport) *Router {
	return &Router{
		routes:   make(map[lsd.Address]Transport),
		fallback: fallback,
	}
}

// Route binds provider to t.
func (r *Router) Route(provider lsd.Address, t Transport) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.routes[provider] = t
}

// Send implements Transport.
func (r *Router) Send(ctx context.Context, provider lsd.Address, op Op, payload []byte) ([]byte, error) {
	r.lock.RLock()
	t, ok := r.routes[provider]
	r.lock.RUnlock()

	if !ok {
		if r.fallback == nil {
			return nil, ErrUnknownProvider
		}
		t = r.fallback
	}
	return t.Send(ctx, provider, op, payload)
}
