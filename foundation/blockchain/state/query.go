package state

import (
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/genesis"
	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// RetrieveSelf returns the address other nodes use to reach this node. It
// is zero until it's configured or resolved.
func (s *State) RetrieveSelf() peer.Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.self
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, bool) {
	return s.ledger.LatestBlock()
}

// RetrieveBlocks returns a copy of the chain.
func (s *State) RetrieveBlocks() []database.Block {
	return s.ledger.Blocks()
}

// RetrieveMempool returns a copy of the pool in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveAddresses returns a copy of the registered addresses.
func (s *State) RetrieveAddresses() []database.Address {
	return s.accounts.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.RetrieveSelf().Address)
}

// RetrieveContracts returns the message prefixes the node accepts.
func (s *State) RetrieveContracts() []string {
	return s.contracts.Prefixes()
}

// =============================================================================

// QueryAddress returns the address registered for the hash.
func (s *State) QueryAddress(hash []byte) (database.Address, bool) {
	return s.accounts.ByHash(hash)
}

// QueryTxProof finds the block holding the mined transaction and returns
// the proof it is part of that block.
func (s *State) QueryTxProof(txHash []byte) (database.TxProof, bool) {
	for i, block := range s.ledger.Blocks() {
		proof, err := block.Proof(txHash)
		if err != nil {
			continue
		}

		proof.Height = i + 1
		return proof, true
	}

	return database.TxProof{}, false
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	return s.ledger.Length()
}

// QueryStatus returns the status of this node as reported to its peers.
func (s *State) QueryStatus() peer.PeerStatus {
	var latest string
	if block, exists := s.ledger.LatestBlock(); exists {
		latest = block.ID()
	}

	return peer.PeerStatus{
		Self:            s.RetrieveSelf(),
		LatestBlockHash: latest,
		ChainLength:     s.ledger.Length(),
		PoolLength:      s.mempool.Count(),
		Mining:          s.Worker.IsMining(),
		KnownPeers:      s.RetrieveKnownPeers(),
	}
}
