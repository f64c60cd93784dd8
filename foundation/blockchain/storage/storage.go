// Package storage handles all the lower level support for persisting the
// node's state between runs.
package storage

import (
	"fmt"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
	"github.com/civledger/ledger/foundation/blockchain/storage/disk"
	"github.com/civledger/ledger/foundation/blockchain/storage/leveldb"
	"github.com/civledger/ledger/foundation/blockchain/storage/memory"
)

// Set of storage kinds that are supported.
const (
	KindMemory  = "memory"
	KindDisk    = "disk"
	KindLevelDB = "leveldb"
)

// Storage represents the behavior required to persist the registered
// addresses, the chain, the pool and the known peers. Every Save replaces
// the full collection.
type Storage interface {
	SaveAddresses(addrs []database.Address) error
	LoadAddresses() ([]database.Address, error)
	SaveBlocks(blocks []database.Block) error
	LoadBlocks() ([]database.Block, error)
	SaveTransactions(trans []database.Tx) error
	LoadTransactions() ([]database.Tx, error)
	SaveNodes(peers []peer.Peer) error
	LoadNodes() ([]peer.Peer, error)
	Close() error
}

// New constructs the storage of the specified kind. The path is ignored
// by the memory kind.
func New(kind string, dbPath string) (Storage, error) {
	switch kind {
	case KindMemory, "":
		return memory.New(), nil

	case KindDisk:
		return disk.New(dbPath)

	case KindLevelDB:
		return leveldb.New(dbPath)
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
