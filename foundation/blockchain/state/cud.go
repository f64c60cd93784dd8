package state

import (
	"encoding/json"
	"fmt"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// UpsertAddress registers a new address. When publish is true the address
// is shared with the known peers, who are told not to share it again.
func (s *State) UpsertAddress(addr database.Address, publish bool) bool {
	if !s.accounts.Add(addr) {
		return false
	}

	s.evHandler("viewer: address: %s", addr.ID())

	if publish {
		s.NetSendAddressToPeers(addr)
	}

	return true
}

// SubmitTransaction verifies the transaction and places it into the pool.
// When publish is true the transaction is queued to be shared with the
// known peers. The mined check and the insert happen while the chain can't
// move, the pool lock is always taken after the chain lock.
func (s *State) SubmitTransaction(tx database.Tx, publish bool) bool {
	added, mined := s.ledger.UnlessMined(tx.Hash, func() bool {
		return s.mempool.Add(tx)
	})

	if mined {
		s.evHandler("state: SubmitTransaction: REJECTED: tx[%s]: already mined", tx)
		return false
	}

	if !added {
		return false
	}

	if publish {
		s.Worker.SignalShareTx(tx)
	}

	return true
}

// ProcessProposedBlock takes a block received from a peer or a client and
// appends it to the chain when every check passes. A mining operation in
// progress is cancelled since the latest block moved. An error is only
// returned for a crypto failure.
func (s *State) ProcessProposedBlock(block database.Block, publish bool) (bool, error) {
	s.evHandler("state: ProcessProposedBlock: started: blk[%s]", block)
	defer s.evHandler("state: ProcessProposedBlock: completed: blk[%s]", block)

	ok, err := s.ledger.Append(block)
	if err != nil || !ok {
		return false, err
	}

	s.evHandler("state: ProcessProposedBlock: signal mining operation to restart")
	s.Worker.SignalCancelMining()

	s.blockEvent(block)

	if publish {
		s.NetSendBlockToPeers(block)
	}

	return true, nil
}

// =============================================================================

// AddPeer adds the node to the known peers and persists them. The node
// itself is never added.
func (s *State) AddPeer(pr peer.Peer) bool {
	if pr.Match(s.RetrieveSelf().Address) {
		return false
	}

	s.peerMu.Lock()
	defer s.peerMu.Unlock()

	if !s.knownPeers.Add(pr) {
		return false
	}

	s.evHandler("state: AddPeer: peer[%s]: known[%d]", pr, s.knownPeers.Count())
	s.persistPeers()

	return true
}

// RemovePeer removes the node from the known peers and persists them.
func (s *State) RemovePeer(pr peer.Peer) bool {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()

	if !s.knownPeers.Remove(pr) {
		return false
	}

	s.evHandler("state: RemovePeer: peer[%s]: known[%d]", pr, s.knownPeers.Count())
	s.persistPeers()

	return true
}

// persistPeers writes the known peers. The caller must hold the peer lock.
func (s *State) persistPeers() {
	if err := s.storage.SaveNodes(s.knownPeers.Copy("")); err != nil {
		s.evHandler("state: persistPeers: ERROR: %s", err)
	}
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.ID(), string(blockJSON))
}
