// Package contract maintains the registry of message validators. The text of
// every transaction starts with the prefix of the contract that knows how to
// check it. The rest of the text is the body handed to the contract.
package contract

import (
	"fmt"
	"strings"
	"sync"
)

// Contract represents the behavior required to check a family of messages.
// Syntax checks the shape of the body, semantic checks its meaning.
type Contract interface {
	Prefix() string
	CheckSyntax(body string) bool
	CheckSemantic(body string) bool
}

// Registry holds the ordered set of contracts. The first contract whose
// prefix starts a text decides on it.
type Registry struct {
	mu        sync.RWMutex
	contracts []Contract
}

// New constructs a registry with the specified contracts in order.
func New(contracts ...Contract) (*Registry, error) {
	var r Registry
	for _, c := range contracts {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

// Register appends the contract to the registry.
func (r *Registry) Register(c Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Prefix() == "" {
		return fmt.Errorf("contract %T: empty prefix", c)
	}

	for _, existing := range r.contracts {
		if existing.Prefix() == c.Prefix() {
			return fmt.Errorf("contract %T: prefix %q already registered", c, c.Prefix())
		}
	}

	r.contracts = append(r.contracts, c)

	return nil
}

// Match returns the contract responsible for the text along with the body
// that follows the prefix.
func (r *Registry) Match(text string) (Contract, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.contracts {
		if body, found := strings.CutPrefix(text, c.Prefix()); found {
			return c, body, true
		}
	}

	return nil, "", false
}

// Validate reports whether the text is accepted by its contract. A text
// no contract is responsible for is invalid.
func (r *Registry) Validate(text string) bool {
	c, body, found := r.Match(text)
	if !found {
		return false
	}

	return c.CheckSyntax(body) && c.CheckSemantic(body)
}

// Prefixes returns the registered prefixes in order.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, len(r.contracts))
	for i, c := range r.contracts {
		prefixes[i] = c.Prefix()
	}

	return prefixes
}
