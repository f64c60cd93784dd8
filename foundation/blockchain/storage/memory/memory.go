// Package memory implements the ability to store the node's state in
// memory. Nothing survives a restart.
package memory

import (
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// Memory represents the serialization implementation for storing the node's
// collections in memory using slices.
type Memory struct {
	mu     sync.RWMutex
	addrs  []database.Address
	blocks []database.Block
	trans  []database.Tx
	peers  []peer.Peer
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// SaveAddresses replaces the stored addresses.
func (m *Memory) SaveAddresses(addrs []database.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addrs = append([]database.Address(nil), addrs...)
	return nil
}

// LoadAddresses returns the stored addresses.
func (m *Memory) LoadAddresses() ([]database.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.Address(nil), m.addrs...), nil
}

// SaveBlocks replaces the stored chain.
func (m *Memory) SaveBlocks(blocks []database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append([]database.Block(nil), blocks...)
	return nil
}

// LoadBlocks returns the stored chain.
func (m *Memory) LoadBlocks() ([]database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.Block(nil), m.blocks...), nil
}

// SaveTransactions replaces the stored pool.
func (m *Memory) SaveTransactions(trans []database.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trans = append([]database.Tx(nil), trans...)
	return nil
}

// LoadTransactions returns the stored pool.
func (m *Memory) LoadTransactions() ([]database.Tx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]database.Tx(nil), m.trans...), nil
}

// SaveNodes replaces the stored peers.
func (m *Memory) SaveNodes(peers []peer.Peer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.peers = append([]peer.Peer(nil), peers...)
	return nil
}

// LoadNodes returns the stored peers.
func (m *Memory) LoadNodes() ([]peer.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]peer.Peer(nil), m.peers...), nil
}
