package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// Health is the body a node returns from its health endpoint.
type Health struct {
	Status string `json:"status"`
}

// HealthConnected is the status a reachable node reports.
const HealthConnected = "connected"

// =============================================================================

// BroadcastPut sends the payload to the path on every known peer with a
// PUT request.
func (s *State) BroadcastPut(path string, payload any) {
	s.broadcast(http.MethodPut, path, payload)
}

// BroadcastPost sends the payload to the path on every known peer with a
// POST request.
func (s *State) BroadcastPost(path string, payload any) {
	s.broadcast(http.MethodPost, path, payload)
}

// NetSendBlockToPeers takes the new block and sends it to all known peers.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%s]", block)
	defer s.evHandler("state: NetSendBlockToPeers: completed: blk[%s]", block)

	s.BroadcastPut("block?publish=false", block)
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started: tx[%s]", tx)
	defer s.evHandler("state: NetSendTxToPeers: completed: tx[%s]", tx)

	s.BroadcastPut("transaction?publish=false", tx)
}

// NetSendAddressToPeers shares a new address with the known peers.
func (s *State) NetSendAddressToPeers(addr database.Address) {
	s.evHandler("state: NetSendAddressToPeers: started: addr[%s]", addr)
	defer s.evHandler("state: NetSendAddressToPeers: completed: addr[%s]", addr)

	s.BroadcastPut("address?publish=false", addr)
}

// =============================================================================

// NetRequestPeerStatus asks the peer for its current status.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	var ps peer.PeerStatus
	if err := s.send(ctx, http.MethodGet, pr.URL("status"), nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer[%s]: chain[%d]: pool[%d]: peers[%s]", pr, ps.ChainLength, ps.PoolLength, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeers asks the peer for the nodes it knows about.
func (s *State) NetRequestPeers(ctx context.Context, pr peer.Peer) ([]peer.Peer, error) {
	var peers []peer.Peer
	if err := s.send(ctx, http.MethodGet, pr.URL("nodes"), nil, &peers); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeers: peer[%s]: found[%d]", pr, len(peers))

	return peers, nil
}

// NetRequestAddresses asks the peer for its registered addresses.
func (s *State) NetRequestAddresses(ctx context.Context, pr peer.Peer) ([]database.Address, error) {
	var addrs []database.Address
	if err := s.send(ctx, http.MethodGet, pr.URL("addresses"), nil, &addrs); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestAddresses: peer[%s]: found[%d]", pr, len(addrs))

	return addrs, nil
}

// NetRequestBlocks asks the peer for its full chain.
func (s *State) NetRequestBlocks(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	var blocks []database.Block
	if err := s.send(ctx, http.MethodGet, pr.URL("blocks"), nil, &blocks); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestBlocks: peer[%s]: found[%d]", pr, len(blocks))

	return blocks, nil
}

// NetRequestPool asks the peer for the transactions in its pool.
func (s *State) NetRequestPool(ctx context.Context, pr peer.Peer) ([]database.Tx, error) {
	var trans []database.Tx
	if err := s.send(ctx, http.MethodGet, pr.URL("transactions"), nil, &trans); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPool: peer[%s]: found[%d]", pr, len(trans))

	return trans, nil
}

// NetProbeHealth reports whether the node at the address answers its
// health endpoint.
func (s *State) NetProbeHealth(ctx context.Context, pr peer.Peer) bool {
	var health Health
	if err := s.send(ctx, http.MethodGet, pr.URL("health"), nil, &health); err != nil {
		s.evHandler("state: NetProbeHealth: peer[%s]: unreachable: %s", pr, err)
		return false
	}

	return health.Status == HealthConnected
}

// =============================================================================

// broadcast fans the request out to every known peer in parallel. A failure
// on one peer is logged and doesn't affect delivery to the others.
func (s *State) broadcast(method string, path string, payload any) {
	peers := s.RetrieveKnownPeers()

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for _, pr := range peers {
		go func(pr peer.Peer) {
			defer wg.Done()

			if err := s.send(context.Background(), method, pr.URL(path), payload, nil); err != nil {
				s.evHandler("state: broadcast: %s %s: peer[%s]: WARNING: %s", method, path, pr, err)
			}
		}(pr)
	}

	wg.Wait()
}

// send is a helper function to send an HTTP request to a node. Every call
// is bounded by the peer timeout of the client.
func (s *State) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(string(bytes.TrimSpace(msg))))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
