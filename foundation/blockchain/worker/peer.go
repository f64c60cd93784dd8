package worker

import (
	"context"

	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// peerOperations handles finding new peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation asks every known peer for its status and adds the nodes
// it knows about. Unreachable peers are kept since only a shutdown notice
// removes a peer.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		peerStatus, err := w.state.NetRequestPeerStatus(context.Background(), pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr, err)
			continue
		}

		w.addNewPeers(peerStatus.KnownPeers)
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if w.state.AddPeer(pr) {
			w.evHandler("worker: runPeersOperation: addNewPeers: adding peer-node %s", pr)
		}
	}
}
