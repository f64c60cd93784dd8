// Package state is the core API for the node and composes the address
// registry, the transaction pool, the ledger and the known peers.
package state

import (
	"net/http"
	"sync"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/accounts"
	"github.com/civledger/ledger/foundation/blockchain/contract"
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/genesis"
	"github.com/civledger/ledger/foundation/blockchain/ledger"
	"github.com/civledger/ledger/foundation/blockchain/mempool"
	"github.com/civledger/ledger/foundation/blockchain/peer"
	"github.com/civledger/ledger/foundation/blockchain/storage"
	"github.com/civledger/ledger/foundation/blockchain/storage/memory"
)

// DefaultPeerTimeout is the time a single call to a peer can take.
const DefaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the node.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	StartMining() bool
	StopMining() bool
	IsMining() bool
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	Genesis        genesis.Genesis
	Host           string
	ListenPort     string
	SeedNodes      []string
	Storage        storage.Storage
	Contracts      *contract.Registry
	SelectStrategy string
	PeerTimeout    time.Duration
	IPCheckURL     string
	EvHandler      EventHandler
}

// State manages the node's view of the network.
type State struct {
	mu   sync.RWMutex
	self peer.Peer

	peerMu     sync.Mutex
	listenPort string
	ipCheckURL string
	seedNodes  []peer.Peer
	client     *http.Client
	evHandler  EventHandler
	genesis    genesis.Genesis
	storage    storage.Storage
	contracts  *contract.Registry
	knownPeers *peer.PeerSet
	accounts   *accounts.Accounts
	mempool    *mempool.Mempool
	ledger     *ledger.Ledger

	Worker Worker
}

// New constructs the node state and loads whatever was persisted by a
// previous run.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}

	contracts := cfg.Contracts
	if contracts == nil {
		contracts = contract.Default()
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = DefaultPeerTimeout
	}

	accts := accounts.New(strg, accounts.EventHandler(ev))

	mp, err := mempool.New(mempool.Config{
		Addresses:      accts,
		Validator:      contracts,
		Saver:          strg,
		SelectStrategy: cfg.SelectStrategy,
		EvHandler:      mempool.EventHandler(ev),
	})
	if err != nil {
		return nil, err
	}

	ldg := ledger.New(ledger.Config{
		Difficulty:    cfg.Genesis.Difficulty,
		TransPerBlock: cfg.Genesis.TransPerBlock,
		Pool:          mp,
		Saver:         strg,
		EvHandler:     ledger.EventHandler(ev),
	})

	var seeds []peer.Peer
	for _, host := range cfg.SeedNodes {
		if p := peer.New(host); !p.IsZero() {
			seeds = append(seeds, p)
		}
	}

	state := State{
		listenPort: cfg.ListenPort,
		ipCheckURL: cfg.IPCheckURL,
		seedNodes:  seeds,
		client:     &http.Client{Timeout: peerTimeout},
		evHandler:  ev,
		genesis:    cfg.Genesis,
		storage:    strg,
		contracts:  contracts,
		knownPeers: peer.NewPeerSet(),
		accounts:   accts,
		mempool:    mp,
		ledger:     ldg,
		Worker:     idleWorker{},
	}

	if cfg.Host != "" {
		state.self = peer.New(cfg.Host)
	}

	state.load()

	// The Worker is replaced by the call to worker.Run which registers
	// itself and starts everything up and running for the node.

	return &state, nil
}

// Shutdown tells the known peers this node is leaving and cleanly brings
// the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the storage is properly closed.
	defer func() {
		if err := s.storage.Close(); err != nil {
			s.evHandler("state: shutdown: close storage: ERROR: %s", err)
		}
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	if self := s.RetrieveSelf(); !self.IsZero() {
		s.BroadcastPost("node/remove", self)
	}

	return nil
}

// =============================================================================

// load restores the collections kept by the storage. Addresses go first
// since the pool needs to know the senders and blocks go before the pool so
// mined transactions are not loaded again.
func (s *State) load() {
	addrs, err := s.storage.LoadAddresses()
	if err != nil {
		s.evHandler("state: load: addresses: ERROR: %s", err)
	}
	s.accounts.Load(addrs)

	blocks, err := s.storage.LoadBlocks()
	if err != nil {
		s.evHandler("state: load: blocks: ERROR: %s", err)
	}
	s.ledger.Load(blocks)

	trans, err := s.storage.LoadTransactions()
	if err != nil {
		s.evHandler("state: load: transactions: ERROR: %s", err)
	}

	var pending []database.Tx
	for _, tx := range trans {
		if !s.ledger.ContainsTx(tx.Hash) {
			pending = append(pending, tx)
		}
	}
	s.mempool.Load(pending)

	nodes, err := s.storage.LoadNodes()
	if err != nil {
		s.evHandler("state: load: nodes: ERROR: %s", err)
	}
	for _, node := range nodes {
		if !node.Match(s.self.Address) {
			s.knownPeers.Add(node)
		}
	}

	s.evHandler("state: load: addresses[%d]: blocks[%d]: transactions[%d]: nodes[%d]", s.accounts.Count(), s.ledger.Length(), s.mempool.Count(), s.knownPeers.Count())
}

// =============================================================================

// idleWorker stands in until a worker registers itself.
type idleWorker struct{}

func (idleWorker) Shutdown()                 {}
func (idleWorker) StartMining() bool         { return false }
func (idleWorker) StopMining() bool          { return false }
func (idleWorker) IsMining() bool            { return false }
func (idleWorker) SignalCancelMining()       {}
func (idleWorker) SignalShareTx(database.Tx) {}
