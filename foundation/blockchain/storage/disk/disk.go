// Package disk implements the ability to store the node's state on disk.
// Each collection lives in its own gzip compressed json file.
package disk

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// Set of files maintained under the database path.
const (
	fileAddresses    = "addresses.json.gz"
	fileBlocks       = "blocks.json.gz"
	fileTransactions = "transactions.json.gz"
	fileNodes        = "nodes.json.gz"
)

// Disk represents the serialization implementation for storing the node's
// collections in files on disk.
type Disk struct {
	mu     sync.Mutex
	dbPath string
}

// New constructs a Disk value for use, creating the path if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since every file is
// closed after it's written.
func (d *Disk) Close() error {
	return nil
}

// SaveAddresses replaces the stored addresses.
func (d *Disk) SaveAddresses(addrs []database.Address) error {
	return d.write(fileAddresses, addrs)
}

// LoadAddresses returns the stored addresses.
func (d *Disk) LoadAddresses() ([]database.Address, error) {
	var addrs []database.Address
	err := d.read(fileAddresses, &addrs)
	return addrs, err
}

// SaveBlocks replaces the stored chain.
func (d *Disk) SaveBlocks(blocks []database.Block) error {
	return d.write(fileBlocks, blocks)
}

// LoadBlocks returns the stored chain.
func (d *Disk) LoadBlocks() ([]database.Block, error) {
	var blocks []database.Block
	err := d.read(fileBlocks, &blocks)
	return blocks, err
}

// SaveTransactions replaces the stored pool.
func (d *Disk) SaveTransactions(trans []database.Tx) error {
	return d.write(fileTransactions, trans)
}

// LoadTransactions returns the stored pool.
func (d *Disk) LoadTransactions() ([]database.Tx, error) {
	var trans []database.Tx
	err := d.read(fileTransactions, &trans)
	return trans, err
}

// SaveNodes replaces the stored peers.
func (d *Disk) SaveNodes(peers []peer.Peer) error {
	return d.write(fileNodes, peers)
}

// LoadNodes returns the stored peers.
func (d *Disk) LoadNodes() ([]peer.Peer, error) {
	var peers []peer.Peer
	err := d.read(fileNodes, &peers)
	return peers, err
}

// =============================================================================

// write encodes the value into a temporary file and renames it over the
// collection's file so a crash never leaves a partial file behind.
func (d *Disk) write(name string, v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := filepath.Join(d.dbPath, name)

	f, err := os.CreateTemp(d.dbPath, name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		f.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

// read decodes the collection's file into the value. A missing file leaves
// the value untouched.
func (d *Disk) read(name string, v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.Open(filepath.Join(d.dbPath, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	return json.NewDecoder(zr).Decode(v)
}
