// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/lsd/api/utils"
	"github.com/vechain/lsd/builtin/params"
	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/builtin/pool/provider"
	"github.com/vechain/lsd/builtin/pool/reverts"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/node"
)

// Backend reads and mutates the pool. It is implemented by *node.Node.
type Backend interface {
	View(fn node.Command) error
	Execute(ctx context.Context, fn node.Command) error
}

type Pool struct {
	backend  Backend
	readOnly bool
}

func New(backend Backend, readOnly bool) *Pool {
	return &Pool{
		backend,
		readOnly,
	}
}

func (p *Pool) handleGetInfo(w http.ResponseWriter, _ *http.Request) error {
	var info *pool.Info
	if err := p.backend.View(func(pl *pool.Pool) (err error) {
		info, err = pl.Info()
		return
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertInfo(info))
}

func (p *Pool) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	var values map[string]*big.Int
	if err := p.backend.View(func(pl *pool.Pool) (err error) {
		values, err = pl.Params()
		return
	}); err != nil {
		return convertError(err)
	}
	out := make(map[string]*math.HexOrDecimal256, len(values))
	for name, v := range values {
		out[name] = hex(v)
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	addr, err := lsd.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var info *pool.UserInfo
	if err := p.backend.View(func(pl *pool.Pool) (err error) {
		info, err = pl.UserInfo(addr)
		return
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertUser(info))
}

func (p *Pool) handleGetProviders(w http.ResponseWriter, _ *http.Request) error {
	out := make([]*Provider, 0)
	if err := p.backend.View(func(pl *pool.Pool) error {
		addrs, err := pl.Providers()
		if err != nil {
			return err
		}
		for _, addr := range addrs {
			prov, err := loadProvider(pl, addr)
			if err != nil {
				return err
			}
			out = append(out, prov)
		}
		return nil
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleGetProvider(w http.ResponseWriter, req *http.Request) error {
	addr, err := lsd.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var prov *Provider
	if err := p.backend.View(func(pl *pool.Pool) (err error) {
		prov, err = loadProvider(pl, addr)
		return
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, prov)
}

func loadProvider(pl *pool.Pool, addr lsd.Address) (*Provider, error) {
	prov, err := pl.Provider(addr)
	if err != nil {
		return nil, err
	}
	upToDate, err := pl.IsUpToDate(addr)
	if err != nil {
		return nil, err
	}
	return convertProvider(addr, prov, upToDate), nil
}

func (p *Pool) handleGetPending(w http.ResponseWriter, _ *http.Request) error {
	var reqs []*pool.Request
	if err := p.backend.View(func(pl *pool.Pool) (err error) {
		reqs, err = pl.Pending()
		return
	}); err != nil {
		return convertError(err)
	}
	out := make([]*PendingOperation, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, &PendingOperation{
			ID:       uint64(r.ID),
			Kind:     r.Op.Kind.String(),
			Provider: r.Op.Provider,
			Account:  r.Op.Account,
			Amount:   hex(r.Op.Amount),
			Height:   r.Op.Height,
		})
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleQuote(w http.ResponseWriter, req *http.Request) error {
	kind := mux.Vars(req)["kind"]
	param := "amount"
	if kind != "deposit" {
		param = "shares"
	}
	v, ok := math.ParseBig256(req.URL.Query().Get(param))
	if !ok || v.Sign() <= 0 {
		return utils.BadRequest(errors.Errorf("%s: invalid value", param))
	}

	var quote Quote
	if err := p.backend.View(func(pl *pool.Pool) error {
		switch kind {
		case "deposit":
			shares, err := pl.QuoteDeposit(v)
			if err != nil {
				return err
			}
			quote.Amount = hex(shares)
		case "redeem":
			amount, err := pl.QuoteRedeem(v)
			if err != nil {
				return err
			}
			quote.Amount = hex(amount)
		case "undelegate-now":
			payout, fee, err := pl.QuoteUndelegateNow(v)
			if err != nil {
				return err
			}
			quote.Amount, quote.Fee = hex(payout), hex(fee)
		default:
			return utils.NotFound(errors.Errorf("unknown quote %q", kind))
		}
		return nil
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, quote)
}

// handleAction runs a pool entry point on behalf of the account named in the body. The caller is
// not authenticated, so a writable API must only be reachable by trusted clients; public nodes
// run with read-only mode.
func (p *Pool) handleAction(w http.ResponseWriter, req *http.Request) error {
	if p.readOnly {
		return utils.Forbidden(errors.New("actions are disabled"))
	}
	name := mux.Vars(req)["action"]
	act, ok := actions[name]
	if !ok {
		return utils.NotFound(errors.Errorf("unknown action %q", name))
	}

	var body Action
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Account == nil && act.needsAccount {
		return utils.BadRequest(errors.New("account: required"))
	}

	var res ActionResult
	if err := p.backend.Execute(req.Context(), func(pl *pool.Pool) error {
		return act.run(pl, &body, &res)
	}); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, res)
}

type action struct {
	needsAccount bool
	run          func(pl *pool.Pool, a *Action, res *ActionResult) error
}

func userAction(fn func(pl *pool.Pool, a *Action) (*big.Int, error)) action {
	return action{true, func(pl *pool.Pool, a *Action, res *ActionResult) error {
		v, err := fn(pl, a)
		if err != nil {
			return err
		}
		res.Amount = hex(v)
		return nil
	}}
}

func adminAction(fn func(pl *pool.Pool, a *Action) error) action {
	return action{true, func(pl *pool.Pool, a *Action, _ *ActionResult) error {
		return fn(pl, a)
	}}
}

func countAction(fn func(pl *pool.Pool) (int, error)) action {
	return action{false, func(pl *pool.Pool, _ *Action, res *ActionResult) error {
		n, err := fn(pl)
		if err != nil {
			return err
		}
		res.Count = &n
		return nil
	}}
}

func amountAction(fn func(pl *pool.Pool) (*big.Int, error)) action {
	return action{false, func(pl *pool.Pool, _ *Action, res *ActionResult) error {
		v, err := fn(pl)
		if err != nil {
			return err
		}
		res.Amount = hex(v)
		return nil
	}}
}

var actions = map[string]action{
	"delegate": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		return pl.Delegate(*a.Account, bigOf(a.Amount))
	}),
	"undelegate": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		return pl.Undelegate(*a.Account, bigOf(a.Shares))
	}),
	"withdraw": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		return pl.Withdraw(*a.Account)
	}),
	"undelegate-now": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		minOut := bigOf(a.MinOut)
		if minOut == nil {
			minOut = new(big.Int)
		}
		return pl.UndelegateNow(*a.Account, bigOf(a.Shares), minOut)
	}),
	"add-reserve": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		return pl.AddReserve(*a.Account, bigOf(a.Amount))
	}),
	"remove-reserve": userAction(func(pl *pool.Pool, a *Action) (*big.Int, error) {
		return pl.RemoveReserve(*a.Account, bigOf(a.Amount))
	}),
	"transfer": adminAction(func(pl *pool.Pool, a *Action) error {
		if a.To == nil {
			return utils.BadRequest(errors.New("to: required"))
		}
		return pl.Transfer(*a.Account, *a.To, bigOf(a.Shares))
	}),

	"init": adminAction(func(pl *pool.Pool, a *Action) error {
		return pl.Init(*a.Account)
	}),
	"add-provider": adminAction(func(pl *pool.Pool, a *Action) error {
		if a.Provider == nil {
			return utils.BadRequest(errors.New("provider: required"))
		}
		return pl.AddProvider(*a.Account, *a.Provider)
	}),
	"remove-provider": adminAction(func(pl *pool.Pool, a *Action) error {
		if a.Provider == nil {
			return utils.BadRequest(errors.New("provider: required"))
		}
		return pl.RemoveProvider(*a.Account, *a.Provider)
	}),
	"set-provider-state": adminAction(func(pl *pool.Pool, a *Action) error {
		if a.Provider == nil {
			return utils.BadRequest(errors.New("provider: required"))
		}
		var state provider.State
		switch a.State {
		case "active":
			state = provider.StateActive
		case "inactive":
			state = provider.StateInactive
		default:
			return utils.BadRequest(errors.Errorf("state: invalid value %q", a.State))
		}
		return pl.SetProviderState(*a.Account, *a.Provider, state)
	}),
	"set-param": adminAction(func(pl *pool.Pool, a *Action) error {
		key, ok := params.KeyByName(a.Name)
		if !ok {
			return utils.BadRequest(errors.Errorf("name: unknown param %q", a.Name))
		}
		return pl.SetParam(*a.Account, key, bigOf(a.Value))
	}),
	"activate": adminAction(func(pl *pool.Pool, a *Action) error {
		return pl.Activate(*a.Account)
	}),
	"deactivate": adminAction(func(pl *pool.Pool, a *Action) error {
		return pl.Deactivate(*a.Account)
	}),

	"delegate-all":   amountAction((*pool.Pool).DelegateAll),
	"undelegate-all": amountAction((*pool.Pool).UndelegateAll),
	"claim-rewards":  countAction((*pool.Pool).ClaimRewards),
	"withdraw-all":   countAction((*pool.Pool).WithdrawAll),
	"refresh":        countAction((*pool.Pool).Refresh),
	"compute-withdrawn": {false, func(pl *pool.Pool, _ *Action, _ *ActionResult) error {
		return pl.ComputeWithdrawn()
	}},
}

// convertError maps declined operations to client errors.
func convertError(err error) error {
	switch {
	case errors.Is(err, reverts.ErrProviderNotFound):
		return utils.NotFound(err)
	case errors.Is(err, reverts.ErrUnauthorized):
		return utils.Forbidden(err)
	case reverts.IsRevertErr(err):
		return utils.BadRequest(err)
	case errors.Is(err, node.ErrStopped), errors.Is(err, context.Canceled):
		return utils.HTTPError(err, http.StatusServiceUnavailable)
	}
	return err
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetInfo))
	sub.Path("/params").
		Methods(http.MethodGet).
		Name("GET /pool/params").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParams))
	sub.Path("/users/{address}").
		Methods(http.MethodGet).
		Name("GET /pool/users/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
	sub.Path("/providers").
		Methods(http.MethodGet).
		Name("GET /pool/providers").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProviders))
	sub.Path("/providers/{address}").
		Methods(http.MethodGet).
		Name("GET /pool/providers/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProvider))
	sub.Path("/operations/pending").
		Methods(http.MethodGet).
		Name("GET /pool/operations/pending").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPending))
	sub.Path("/quote/{kind}").
		Methods(http.MethodGet).
		Name("GET /pool/quote/{kind}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleQuote))
	sub.Path("/actions/{action}").
		Methods(http.MethodPost).
		Name("POST /pool/actions/{action}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleAction))
}
