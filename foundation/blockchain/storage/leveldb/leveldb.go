// Package leveldb implements the ability to store the node's state in a
// LevelDB key value store.
package leveldb

import (
	"encoding/json"
	"fmt"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Set of key prefixes, one per collection. Entries are keyed by their
// position so iteration gives back the saved order.
const (
	prefixAddress = "address:"
	prefixBlock   = "block:"
	prefixTx      = "tx:"
	prefixPeer    = "peer:"
)

// LevelDB represents the serialization implementation for storing the
// node's collections in LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the database at the path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{db: db}, nil
}

// Close releases the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// SaveAddresses replaces the stored addresses.
func (l *LevelDB) SaveAddresses(addrs []database.Address) error {
	return replace(l.db, prefixAddress, addrs)
}

// LoadAddresses returns the stored addresses.
func (l *LevelDB) LoadAddresses() ([]database.Address, error) {
	return load[database.Address](l.db, prefixAddress)
}

// SaveBlocks replaces the stored chain.
func (l *LevelDB) SaveBlocks(blocks []database.Block) error {
	return replace(l.db, prefixBlock, blocks)
}

// LoadBlocks returns the stored chain.
func (l *LevelDB) LoadBlocks() ([]database.Block, error) {
	return load[database.Block](l.db, prefixBlock)
}

// SaveTransactions replaces the stored pool.
func (l *LevelDB) SaveTransactions(trans []database.Tx) error {
	return replace(l.db, prefixTx, trans)
}

// LoadTransactions returns the stored pool.
func (l *LevelDB) LoadTransactions() ([]database.Tx, error) {
	return load[database.Tx](l.db, prefixTx)
}

// SaveNodes replaces the stored peers.
func (l *LevelDB) SaveNodes(peers []peer.Peer) error {
	return replace(l.db, prefixPeer, peers)
}

// LoadNodes returns the stored peers.
func (l *LevelDB) LoadNodes() ([]peer.Peer, error) {
	return load[peer.Peer](l.db, prefixPeer)
}

// =============================================================================

// replace deletes every key under the prefix and writes the values in a
// single batch.
func replace[T any](db *leveldb.DB, prefix string, values []T) error {
	batch := new(leveldb.Batch)

	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		batch.Put(key(prefix, i), data)
	}

	return db.Write(batch, nil)
}

// load decodes every value under the prefix in key order.
func load[T any](db *leveldb.DB, prefix string) ([]T, error) {
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var values []T
	for iter.Next() {
		var v T
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", iter.Key(), err)
		}
		values = append(values, v)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return values, nil
}

func key(prefix string, i int) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefix, i))
}
