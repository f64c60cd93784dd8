package peer_test

import (
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{peer.New("host1:8080"), peer.New("http://host2:8080/"), peer.New("https://host3")},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, p := range tst.peers {
				if !ps.Add(p) {
					t.Fatalf("Test %s:\tShould be able to add peer %s.", tst.name, p)
				}
			}

			if ps.Add(peer.New("http://host1:8080")) {
				t.Fatalf("Test %s:\tShould not add the same peer twice.", tst.name)
			}

			if ps.Add(peer.New("")) {
				t.Fatalf("Test %s:\tShould not add a peer without an address.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2:8080")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			if !ps.Remove(peer.New("host2:8080")) || ps.Remove(peer.New("host2:8080")) {
				t.Fatalf("Test %s:\tShould remove a peer once.", tst.name)
			}

			if ps.Count() != len(tst.peers)-1 || ps.Contains(peer.New("host2:8080")) {
				t.Fatalf("Test %s:\tShould not contain a removed peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_New(t *testing.T) {
	tt := []struct {
		in  string
		exp string
	}{
		{in: "10.0.0.1:8080", exp: "http://10.0.0.1:8080"},
		{in: " http://10.0.0.1:8080/ ", exp: "http://10.0.0.1:8080"},
		{in: "https://node.example", exp: "https://node.example"},
		{in: "", exp: ""},
	}

	for _, tst := range tt {
		if got := peer.New(tst.in).Address; got != tst.exp {
			t.Fatalf("Should normalize %q to %q, got %q.", tst.in, tst.exp, got)
		}
	}

	if got := peer.New("host:1").URL("/blocks"); got != "http://host:1/blocks" {
		t.Fatalf("Should build the url, got %q.", got)
	}
}
