package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"sort"
	"strings"

	"github.com/civledger/ledger/foundation/blockchain/peer"
)

// sharedAddressSpace is the carrier grade NAT range which isn't covered by
// netip's private ranges.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// ResolveSelf returns the address other nodes use to reach this node. A
// configured address always wins. Otherwise the address reported by the ip
// check service and then every local interface address is probed with the
// node's own health endpoint, and the first one that answers is used. When
// nothing answers the loopback address is used so a single node can still
// run on its own.
func (s *State) ResolveSelf(ctx context.Context) (peer.Peer, error) {
	if self := s.RetrieveSelf(); !self.IsZero() {
		return self, nil
	}

	if s.listenPort == "" {
		return peer.Peer{}, errors.New("listen port is required to resolve the node address")
	}

	var candidates []netip.Addr

	if s.ipCheckURL != "" {
		addr, err := s.externalAddr(ctx)
		switch {
		case err != nil:
			s.evHandler("state: ResolveSelf: external address: WARNING: %s", err)
		default:
			candidates = append(candidates, addr)
		}
	}

	local, err := LocalAddrs()
	if err != nil {
		s.evHandler("state: ResolveSelf: local addresses: WARNING: %s", err)
	}
	candidates = append(candidates, local...)

	for _, addr := range candidates {
		pr := peer.New(net.JoinHostPort(addr.String(), s.listenPort))

		s.evHandler("state: ResolveSelf: probing[%s]", pr)
		if s.NetProbeHealth(ctx, pr) {
			s.evHandler("state: ResolveSelf: self[%s]", pr)
			return s.setSelf(pr), nil
		}
	}

	pr := peer.New(net.JoinHostPort("127.0.0.1", s.listenPort))
	s.evHandler("state: ResolveSelf: WARNING: no address answered, using self[%s]", pr)

	return s.setSelf(pr), nil
}

// setSelf records the address unless another caller got there first.
func (s *State) setSelf(pr peer.Peer) peer.Peer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.self.IsZero() {
		s.self = pr
	}

	return s.self
}

// externalAddr asks the ip check service for the address this node is seen
// with from the outside. The service answers with the address as plain text.
func (s *State) externalAddr(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ipCheckURL, nil)
	if err != nil {
		return netip.Addr{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return netip.Addr{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("ip check service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return netip.Addr{}, err
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(string(data)))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("ip check service: %w", err)
	}

	return addr.Unmap(), nil
}

// =============================================================================

// LocalAddrs returns the unicast addresses of the local interfaces that
// could reach other nodes, private addresses first.
func LocalAddrs() ([]netip.Addr, error) {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	addrs := make([]netip.Addr, 0, len(ifAddrs))
	for _, ifAddr := range ifAddrs {
		prefix, err := netip.ParsePrefix(ifAddr.String())
		if err != nil {
			continue
		}
		addrs = append(addrs, prefix.Addr())
	}

	return RankAddrs(addrs), nil
}

// RankAddrs drops the addresses that can't be used to reach another node
// and orders the rest with private addresses ahead of public ones. IPv4
// addresses go ahead of IPv6 addresses within each group.
func RankAddrs(addrs []netip.Addr) []netip.Addr {
	ranked := make([]netip.Addr, 0, len(addrs))
	for _, addr := range addrs {
		addr = addr.Unmap()

		switch {
		case !addr.IsValid(),
			addr.IsLoopback(),
			addr.IsUnspecified(),
			addr.IsMulticast(),
			addr.IsLinkLocalUnicast():
			continue
		}

		ranked = append(ranked, addr)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := IsPrivate(ranked[i]), IsPrivate(ranked[j])
		if pi != pj {
			return pi
		}
		return ranked[i].Is4() && !ranked[j].Is4()
	})

	return ranked
}

// IsPrivate reports whether the address belongs to a private network range,
// including the carrier grade NAT range.
func IsPrivate(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() || sharedAddressSpace.Contains(addr)
}
