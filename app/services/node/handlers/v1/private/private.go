// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/civledger/ledger/business/web/errs"
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
	"github.com/civledger/ledger/foundation/blockchain/state"
	"github.com/civledger/ledger/foundation/web"
	"go.uber.org/zap"
)

type status struct {
	Status string `json:"status"`
}

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Health tells the caller this node is reachable.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, state.Health{Status: state.HealthConnected}, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStatus(), http.StatusOK)
}

// Addresses returns every registered address.
func (h Handlers) Addresses(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveAddresses(), http.StatusOK)
}

// Mempool returns the transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// Blocks returns the full chain from the first block.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveBlocks(), http.StatusOK)
}

// ProposeBlock takes a block mined somewhere else and appends it to the
// chain when every check passes.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	publish, err := web.QueryBool(r, "publish", true)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("propose block", "traceid", web.GetTraceID(ctx), "blk", block, "trans", len(block.Trans), "publish", publish)

	ok, err := h.State.ProcessProposedBlock(block, publish)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to verify block: %w", err), http.StatusBadRequest)
	}
	if !ok {
		return errs.NewTrusted(errors.New("block rejected"), http.StatusNotAcceptable)
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusAccepted)
}

// Nodes returns the peers this node knows about.
func (h Handlers) Nodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// SubmitPeer registers a node that joined the network.
func (h Handlers) SubmitPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pr, err := decodePeer(r)
	if err != nil {
		return err
	}

	if !h.State.AddPeer(pr) {
		h.Log.Infow("submit peer", "traceid", web.GetTraceID(ctx), "peer", pr, "status", "already known")
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusAccepted)
}

// RemovePeer forgets a node that left the network.
func (h Handlers) RemovePeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pr, err := decodePeer(r)
	if err != nil {
		return err
	}

	if !h.State.RemovePeer(pr) {
		h.Log.Infow("remove peer", "traceid", web.GetTraceID(ctx), "peer", pr, "status", "not known")
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusAccepted)
}

func decodePeer(r *http.Request) (peer.Peer, error) {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return peer.Peer{}, errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	pr = peer.New(pr.Address)
	if pr.IsZero() {
		return peer.Peer{}, errs.NewTrusted(errors.New("peer address is required"), http.StatusBadRequest)
	}

	return pr, nil
}
