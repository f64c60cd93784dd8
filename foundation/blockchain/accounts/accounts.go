// Package accounts maintains the registry of published addresses. Only
// addresses found here are allowed to sign transactions.
package accounts

import (
	"sort"
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Saver represents the behavior required to persist the registry.
type Saver interface {
	SaveAddresses(addrs []database.Address) error
}

// EventHandler defines a function that is called when events
// occur in the processing of addresses.
type EventHandler func(v string, args ...any)

// Accounts manages the set of addresses that have been published.
type Accounts struct {
	mu    sync.RWMutex
	addrs map[string]database.Address
	saver Saver
	ev    EventHandler
}

// New constructs an empty registry. The saver can be nil when the registry
// doesn't need to be persisted.
func New(saver Saver, evHandler EventHandler) *Accounts {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Accounts{
		addrs: make(map[string]database.Address),
		saver: saver,
		ev:    ev,
	}
}

// Add registers the address. False is returned when the address is
// malformed or already known. Addresses are never replaced or deleted.
func (act *Accounts) Add(addr database.Address) bool {
	if err := addr.Validate(); err != nil {
		act.ev("accounts: Add: REJECTED: %s", err)
		return false
	}

	act.mu.Lock()
	defer act.mu.Unlock()

	id := addr.ID()
	if _, exists := act.addrs[id]; exists {
		act.ev("accounts: Add: REJECTED: addr[%s]: already exists", addr)
		return false
	}

	act.addrs[id] = addr
	act.ev("accounts: Add: addr[%s]: registered", addr)

	act.persist()

	return true
}

// Load registers previously persisted addresses without writing them back.
// It returns the number of addresses accepted.
func (act *Accounts) Load(addrs []database.Address) int {
	act.mu.Lock()
	defer act.mu.Unlock()

	var n int
	for _, addr := range addrs {
		if err := addr.Validate(); err != nil {
			act.ev("accounts: Load: SKIPPED: %s", err)
			continue
		}
		if _, exists := act.addrs[addr.ID()]; exists {
			continue
		}
		act.addrs[addr.ID()] = addr
		n++
	}

	return n
}

// ByHash returns the address registered for the hash.
func (act *Accounts) ByHash(hash []byte) (database.Address, bool) {
	act.mu.RLock()
	defer act.mu.RUnlock()

	addr, exists := act.addrs[hexutil.Encode(hash)]
	return addr, exists
}

// PublicKey returns the public key registered for the address hash.
func (act *Accounts) PublicKey(hash []byte) ([]byte, bool) {
	addr, exists := act.ByHash(hash)
	if !exists {
		return nil, false
	}

	return addr.PublicKey, true
}

// Count returns the number of registered addresses.
func (act *Accounts) Count() int {
	act.mu.RLock()
	defer act.mu.RUnlock()

	return len(act.addrs)
}

// Copy returns the registered addresses ordered by their hash.
func (act *Accounts) Copy() []database.Address {
	act.mu.RLock()
	defer act.mu.RUnlock()

	return act.copy()
}

// =============================================================================

func (act *Accounts) copy() []database.Address {
	addrs := make([]database.Address, 0, len(act.addrs))
	for _, addr := range act.addrs {
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].ID() < addrs[j].ID()
	})

	return addrs
}

// persist writes the registry. A failure is logged and the in memory
// registry is kept. The caller must hold the lock.
func (act *Accounts) persist() {
	if act.saver == nil {
		return
	}

	if err := act.saver.SaveAddresses(act.copy()); err != nil {
		act.ev("accounts: persist: ERROR: %s", err)
	}
}
