// Package v1 contains the full set of handler functions and routes
// supported by the node api.
package v1

import (
	"net/http"

	"github.com/civledger/ledger/app/services/node/handlers/v1/private"
	"github.com/civledger/ledger/app/services/node/handlers/v1/public"
	"github.com/civledger/ledger/foundation/blockchain/state"
	"github.com/civledger/ledger/foundation/events"
	"github.com/civledger/ledger/foundation/nameservice"
	"github.com/civledger/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Routes are bound at the root since peers only know each other by their
// base url.
const group = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the routes used by clients.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, group, "/events", pbl.Events)
	app.Handle(http.MethodGet, group, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, group, "/contracts", pbl.Contracts)
	app.Handle(http.MethodGet, group, "/accounts", pbl.Accounts)
	app.Handle(http.MethodGet, group, "/accounts/:id", pbl.Accounts)
	app.Handle(http.MethodPut, group, "/address", pbl.SubmitAddress)
	app.Handle(http.MethodPut, group, "/transaction", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, group, "/transaction/:id/proof", pbl.TxProof)
	app.Handle(http.MethodPost, group, "/miner/start", pbl.StartMining)
	app.Handle(http.MethodPost, group, "/miner/stop", pbl.StopMining)
}

// PrivateRoutes binds all the routes used between nodes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, group, "/health", prv.Health)
	app.Handle(http.MethodGet, group, "/status", prv.Status)
	app.Handle(http.MethodGet, group, "/addresses", prv.Addresses)
	app.Handle(http.MethodGet, group, "/transactions", prv.Mempool)
	app.Handle(http.MethodGet, group, "/blocks", prv.Blocks)
	app.Handle(http.MethodPut, group, "/block", prv.ProposeBlock)
	app.Handle(http.MethodGet, group, "/nodes", prv.Nodes)
	app.Handle(http.MethodPut, group, "/node", prv.SubmitPeer)
	app.Handle(http.MethodPost, group, "/node/remove", prv.RemovePeer)
}
