// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/vechain/lsd/api/utils"
	"github.com/vechain/lsd/node"
)

const delayBuffer = 5 * time.Second

// Statuser reports the node clock.
type Statuser interface {
	Status() node.Status
}

type Status struct {
	Healthy     bool       `json:"healthy"`
	Height      uint64     `json:"height"`
	LastAdvance *time.Time `json:"lastAdvance"`
	Inflight    int        `json:"inflight"`
}

// Health reports the node healthy while its clock keeps advancing.
type Health struct {
	lock          sync.Mutex
	node          Statuser
	blockInterval time.Duration
	now           func() time.Time

	height      uint64
	lastAdvance time.Time
}

func New(node Statuser, blockInterval time.Duration) *Health {
	return &Health{
		node:          node,
		blockInterval: blockInterval,
		now:           time.Now,
	}
}

func (h *Health) status() *Status {
	h.lock.Lock()
	defer h.lock.Unlock()

	st := h.node.Status()
	now := h.now()
	if st.Height != h.height {
		h.height = st.Height
		h.lastAdvance = now
	}
	last := h.lastAdvance

	return &Status{
		Healthy:     st.Height > 0 && now.Sub(last) <= h.blockInterval+delayBuffer,
		Height:      st.Height,
		LastAdvance: &last,
		Inflight:    st.Inflight,
	}
}

func (h *Health) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	st := h.status()
	if !st.Healthy {
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, st)
}

func (h *Health) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
