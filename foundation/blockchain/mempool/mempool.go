// Package mempool maintains the pool of verified transactions that are
// waiting to be mined into a block.
package mempool

import (
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/mempool/selector"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLookup represents the behavior required to find the public key of
// a registered sender.
type AddressLookup interface {
	PublicKey(hash []byte) ([]byte, bool)
}

// Validator represents the behavior required to check the message text of
// a transaction.
type Validator interface {
	Validate(text string) bool
}

// Saver represents the behavior required to persist the pool.
type Saver interface {
	SaveTransactions(trans []database.Tx) error
}

// EventHandler defines a function that is called when events
// occur in the processing of transactions.
type EventHandler func(v string, args ...any)

// Config represents the collaborators a mempool needs.
type Config struct {
	Addresses      AddressLookup
	Validator      Validator
	Saver          Saver
	SelectStrategy string
	EvHandler      EventHandler
}

// =============================================================================

// Mempool represents a cache of verified transactions keyed by their hash.
// The arrival order of the transactions is kept for selection.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]database.Tx
	order    []string
	addrs    AddressLookup
	contract Validator
	saver    Saver
	selectFn selector.Func
	ev       EventHandler
}

// New constructs a new mempool using the configured select strategy.
func New(cfg Config) (*Mempool, error) {
	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyFIFO
	}

	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	mp := Mempool{
		pool:     make(map[string]database.Tx),
		addrs:    cfg.Addresses,
		contract: cfg.Validator,
		saver:    cfg.Saver,
		selectFn: selectFn,
		ev:       ev,
	}

	return &mp, nil
}

// Add verifies the transaction and stores it in the pool. False is returned
// when the transaction is rejected, the reason is reported through the
// event handler. Adding a transaction already in the pool is accepted and
// changes nothing.
func (mp *Mempool) Add(tx database.Tx) bool {
	if !mp.verify(tx) {
		return false
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.insert(tx)
	mp.persist()

	return true
}

// Load verifies and stores previously persisted transactions without
// writing them back. It returns the number of transactions accepted.
func (mp *Mempool) Load(trans []database.Tx) int {
	var n int
	for _, tx := range trans {
		if !mp.verify(tx) {
			continue
		}

		mp.mu.Lock()
		if mp.insert(tx) {
			n++
		}
		mp.mu.Unlock()
	}

	return n
}

// Remove deletes the transaction from the pool. Removing a transaction that
// isn't in the pool is not an error.
func (mp *Mempool) Remove(tx database.Tx) {
	mp.RemoveAll([]database.Tx{tx})
}

// RemoveAll deletes the transactions from the pool and persists once.
func (mp *Mempool) RemoveAll(trans []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed bool
	for _, tx := range trans {
		id := tx.ID()
		if _, exists := mp.pool[id]; !exists {
			continue
		}
		delete(mp.pool, id)
		removed = true
	}

	if !removed {
		return
	}

	order := mp.order[:0]
	for _, id := range mp.order {
		if _, exists := mp.pool[id]; exists {
			order = append(order, id)
		}
	}
	mp.order = order

	mp.persist()
}

// Contains reports whether a transaction with the hash is in the pool.
func (mp *Mempool) Contains(hash []byte) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[hexutil.Encode(hash)]
	return exists
}

// ContainsAll reports whether every transaction is in the pool.
func (mp *Mempool) ContainsAll(trans []database.Tx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tx := range trans {
		if _, exists := mp.pool[tx.ID()]; !exists {
			return false
		}
	}

	return true
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Copy returns the transactions in the order they arrived.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.copy()
}

// PickBest uses the configured select strategy to return the next set
// of transactions for the next block. Pass -1 for all the transactions.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	return mp.selectFn(mp.Copy(), howMany)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
	mp.order = nil

	mp.persist()
}

// =============================================================================

// verify runs the checks a transaction needs to pass before it's stored.
func (mp *Mempool) verify(tx database.Tx) bool {
	if mp.addrs == nil {
		mp.ev("mempool: verify: REJECTED: tx[%s]: no address registry", tx)
		return false
	}

	publicKey, exists := mp.addrs.PublicKey(tx.SenderHash)
	if !exists {
		mp.ev("mempool: verify: REJECTED: tx[%s]: unknown sender[%s]", tx, tx.SenderID())
		return false
	}

	if mp.contract != nil && !mp.contract.Validate(tx.Text) {
		mp.ev("mempool: verify: REJECTED: tx[%s]: message not accepted by contract", tx)
		return false
	}

	if !tx.VerifySignature(publicKey) {
		mp.ev("mempool: verify: REJECTED: tx[%s]: invalid signature", tx)
		return false
	}

	if !tx.VerifyHash() {
		mp.ev("mempool: verify: REJECTED: tx[%s]: hash does not match content", tx)
		return false
	}

	return true
}

// insert stores the transaction. The caller must hold the lock.
func (mp *Mempool) insert(tx database.Tx) bool {
	id := tx.ID()
	if _, exists := mp.pool[id]; exists {
		return false
	}

	mp.pool[id] = tx
	mp.order = append(mp.order, id)

	mp.ev("mempool: insert: tx[%s]: pool[%d]", tx, len(mp.pool))

	return true
}

// copy returns the transactions in arrival order. The caller must hold
// the lock.
func (mp *Mempool) copy() []database.Tx {
	trans := make([]database.Tx, 0, len(mp.order))
	for _, id := range mp.order {
		trans = append(trans, mp.pool[id])
	}

	return trans
}

// persist writes the pool. A failure is logged and the in memory pool is
// kept. The caller must hold the lock.
func (mp *Mempool) persist() {
	if mp.saver == nil {
		return
	}

	if err := mp.saver.SaveTransactions(mp.copy()); err != nil {
		mp.ev("mempool: persist: ERROR: %s", err)
	}
}
