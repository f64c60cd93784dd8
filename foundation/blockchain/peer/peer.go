// Package peer maintains the peer related information such as the set
// of known peers and their status.
package peer

import (
	"sort"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network. The address is
// the base url other nodes use to reach it, like http://10.0.0.5:8080.
type Peer struct {
	Address string `json:"address"`
}

// New constructs a new peer value. A missing scheme defaults to http and
// trailing slashes are dropped so the same node always has the same
// identity.
func New(address string) Peer {
	address = strings.TrimSpace(address)
	address = strings.TrimRight(address, "/")

	if address != "" && !strings.Contains(address, "://") {
		address = "http://" + address
	}

	return Peer{
		Address: address,
	}
}

// Match validates if the specified address matches this node.
func (p Peer) Match(address string) bool {
	return p.Address == New(address).Address
}

// IsZero reports whether the peer has no address.
func (p Peer) IsZero() bool {
	return p.Address == ""
}

// URL returns the url for the path on this peer.
func (p Peer) URL(path string) string {
	return p.Address + "/" + strings.TrimLeft(path, "/")
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return p.Address
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	Self            Peer   `json:"self"`
	LatestBlockHash string `json:"latest_block_hash"`
	ChainLength     int    `json:"chain_length"`
	PoolLength      int    `json:"pool_length"`
	Mining          bool   `json:"mining"`
	KnownPeers      []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. False is returned if the node was already
// known or has no address.
func (ps *PeerSet) Add(peer Peer) bool {
	if peer.IsZero() {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set. False is returned if the node
// wasn't known.
func (ps *PeerSet) Remove(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	delete(ps.set, peer)

	return exists
}

// Contains reports whether the node is in the set.
func (ps *PeerSet) Contains(peer Peer) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	_, exists := ps.set[peer]
	return exists
}

// Count returns the number of known peers.
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers excluding the specified address,
// ordered by address.
func (ps *PeerSet) Copy(address string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		if !peer.Match(address) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Address < peers[j].Address
	})

	return peers
}
