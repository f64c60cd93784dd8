// Package public maintains the group of handlers for client access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/civledger/ledger/business/web/errs"
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/state"
	"github.com/civledger/ledger/foundation/events"
	"github.com/civledger/ledger/foundation/nameservice"
	"github.com/civledger/ledger/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of client endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitAddress registers a new address with the node.
func (h Handlers) SubmitAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	publish, err := web.QueryBool(r, "publish", true)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var addr database.Address
	if err := web.Decode(r, &addr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := addr.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit address", "traceid", web.GetTraceID(ctx), "address", addr, "publish", publish)

	if !h.State.UpsertAddress(addr, publish) {
		return web.Respond(ctx, w, status{Status: "address already known"}, http.StatusAccepted)
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusAccepted)
}

// SubmitTransaction adds a signed transaction to the pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	publish, err := web.QueryBool(r, "publish", true)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", tx, "sender", tx.SenderID(), "publish", publish)

	if !h.State.SubmitTransaction(tx, publish) {
		return errs.NewTrusted(errors.New("transaction rejected"), http.StatusNotAcceptable)
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusAccepted)
}

// StartMining moves the miner to the running state.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := miner{
		Status: "mining started",
		Mining: true,
	}

	if !h.State.Worker.StartMining() {
		resp.Status = "miner already running"
		resp.Mining = h.State.Worker.IsMining()
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// StopMining moves the miner to the stopped state.
func (h Handlers) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := miner{
		Status: "mining stopped",
	}

	if !h.State.Worker.StopMining() {
		resp.Status = "miner not running"
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Genesis returns the consensus parameters of the chain.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Contracts returns the message prefixes the node accepts.
func (h Handlers) Contracts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveContracts(), http.StatusOK)
}

// Accounts returns the registered addresses with their local names.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var addrs []database.Address

	switch id := web.Param(r, "id"); id {
	case "":
		addrs = h.State.RetrieveAddresses()

	default:
		hash, err := hexutil.Decode(id)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid address id %q: %w", id, err), http.StatusBadRequest)
		}

		addr, exists := h.State.QueryAddress(hash)
		if !exists {
			return errs.NewTrusted(fmt.Errorf("address %s not found", id), http.StatusNotFound)
		}
		addrs = []database.Address{addr}
	}

	acts := make([]account, len(addrs))
	for i, addr := range addrs {
		acts[i] = account{
			ID:        addr.ID(),
			Name:      h.NS.Lookup(addr.ID()),
			PublicKey: addr.PublicKey,
		}
	}

	ai := actInfo{
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	if latest, ok := h.State.RetrieveLatestBlock(); ok {
		ai.LatestBlock = latest.ID()
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// TxProof returns the proof a mined transaction is part of its block.
func (h Handlers) TxProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	hash, err := hexutil.Decode(id)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid transaction id %q: %w", id, err), http.StatusBadRequest)
	}

	proof, exists := h.State.QueryTxProof(hash)
	if !exists {
		return errs.NewTrusted(fmt.Errorf("transaction %s not mined", id), http.StatusNotFound)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}
