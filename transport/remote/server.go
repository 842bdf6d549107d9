// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package remote

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/lsd/api/utils"
	"github.com/vechain/lsd/log"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport"
)

const maxRequestSize = 64 * 1024

var logger = log.WithContext("pkg", "remote")

// Server exposes a transport over HTTP.
type Server struct {
	backend transport.Transport
}

func NewServer(backend transport.Transport) *Server {
	return &Server{backend: backend}
}

func (s *Server) handleSend(w http.ResponseWriter, req *http.Request) error {
	provider, err := lsd.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	op := transport.Op(mux.Vars(req)["op"])

	payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxRequestSize))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	resp, err := s.backend.Send(req.Context(), provider, op, payload)
	if err != nil {
		if errors.Is(err, transport.ErrUnknownProvider) || errors.Is(err, transport.ErrUnknownOp) {
			return utils.NotFound(err)
		}
		logger.Debug("request declined", "provider", provider, "op", op, "err", err)
		return utils.HTTPError(err, http.StatusUnprocessableEntity)
	}
	w.Header().Set("Content-Type", contentType)
	_, err = w.Write(resp)
	return err
}

func (s *Server) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/providers/{address}/{op}").
		Methods(http.MethodPost).
		Name("POST /providers/{address}/{op}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSend))
}
