// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/lsd/api/utils"
	"github.com/vechain/lsd/node"
)

// Statuser reports the node clock.
type Statuser interface {
	Status() node.Status
}

type Info struct {
	Version string `json:"version"`
	Pool    string `json:"pool"`
}

type Node struct {
	st   Statuser
	info Info
}

func New(st Statuser, info Info) *Node {
	return &Node{
		st,
		info,
	}
}

func (n *Node) handleStatus(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, n.st.Status())
}

func (n *Node) handleNodeInfo(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, n.info)
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /node/status").
		HandlerFunc(utils.WrapHandlerFunc(n.handleStatus))
	sub.Path("/info").
		Methods(http.MethodGet).
		Name("GET /node/info").
		HandlerFunc(utils.WrapHandlerFunc(n.handleNodeInfo))
}
