package state

import (
	"context"
	"math/rand"

	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// Bootstrap joins the network through one of the seed nodes. The node's own
// address is resolved first. When the chosen seed is this node, it's the
// origin of the network and there is nothing to sync. Otherwise the seed's
// peers, addresses, chain and pool are adopted and this node registers
// itself with every known peer. Network failures are logged and never stop
// the node from running.
func (s *State) Bootstrap(ctx context.Context) error {
	s.evHandler("state: Bootstrap: started")
	defer s.evHandler("state: Bootstrap: completed")

	self, err := s.ResolveSelf(ctx)
	if err != nil {
		return err
	}

	if len(s.seedNodes) == 0 {
		s.evHandler("state: Bootstrap: no seed nodes: self[%s]: origin node", self)
		return nil
	}

	seed := s.seedNodes[rand.Intn(len(s.seedNodes))]
	if seed.Match(self.Address) {
		s.evHandler("state: Bootstrap: self[%s] is the seed: origin node", self)
		return nil
	}

	s.evHandler("state: Bootstrap: self[%s]: seed[%s]", self, seed)

	s.AddPeer(seed)
	s.syncPeers(ctx, seed)
	s.syncAddresses(ctx, seed)
	s.syncBlocks(ctx, seed)
	s.syncPool(ctx, seed)

	s.BroadcastPut("node", self)

	return nil
}

// =============================================================================

func (s *State) syncPeers(ctx context.Context, seed peer.Peer) {
	peers, err := s.NetRequestPeers(ctx, seed)
	if err != nil {
		s.evHandler("state: Bootstrap: syncPeers: seed[%s]: ERROR: %s", seed, err)
		return
	}

	for _, pr := range peers {
		s.AddPeer(pr)
	}
}

func (s *State) syncAddresses(ctx context.Context, seed peer.Peer) {
	addrs, err := s.NetRequestAddresses(ctx, seed)
	if err != nil {
		s.evHandler("state: Bootstrap: syncAddresses: seed[%s]: ERROR: %s", seed, err)
		return
	}

	for _, addr := range addrs {
		s.accounts.Add(addr)
	}
}

func (s *State) syncBlocks(ctx context.Context, seed peer.Peer) {
	blocks, err := s.NetRequestBlocks(ctx, seed)
	if err != nil {
		s.evHandler("state: Bootstrap: syncBlocks: seed[%s]: ERROR: %s", seed, err)
		return
	}

	n := s.ledger.Adopt(blocks)
	s.evHandler("state: Bootstrap: syncBlocks: seed[%s]: received[%d]: adopted[%d]: chain[%d]", seed, len(blocks), n, s.ledger.Length())
}

func (s *State) syncPool(ctx context.Context, seed peer.Peer) {
	trans, err := s.NetRequestPool(ctx, seed)
	if err != nil {
		s.evHandler("state: Bootstrap: syncPool: seed[%s]: ERROR: %s", seed, err)
		return
	}

	for _, tx := range trans {
		s.SubmitTransaction(tx, false)
	}
}
