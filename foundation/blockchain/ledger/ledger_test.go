package ledger_test

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/ledger"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	difficulty    = 8
	transPerBlock = 5
)

type pool struct {
	trans   map[string]struct{}
	removed int
}

func newPool(trans ...database.Tx) *pool {
	p := pool{trans: make(map[string]struct{})}
	for _, tx := range trans {
		p.trans[tx.ID()] = struct{}{}
	}
	return &p
}

func (p *pool) ContainsAll(trans []database.Tx) bool {
	for _, tx := range trans {
		if _, exists := p.trans[tx.ID()]; !exists {
			return false
		}
	}
	return true
}

func (p *pool) RemoveAll(trans []database.Tx) {
	for _, tx := range trans {
		if _, exists := p.trans[tx.ID()]; exists {
			delete(p.trans, tx.ID())
			p.removed++
		}
	}
}

type saver struct {
	blocks []database.Block
}

func (s *saver) SaveBlocks(blocks []database.Block) error {
	s.blocks = append([]database.Block(nil), blocks...)
	return nil
}

type env struct {
	pk     *ecdsa.PrivateKey
	addr   database.Address
	pool   *pool
	saver  *saver
	events []string
	ldg    *ledger.Ledger
}

func newEnv(t *testing.T) *env {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	e := env{
		pk:    pk,
		addr:  database.NewAddress(pk.PublicKey),
		pool:  newPool(),
		saver: &saver{},
	}

	e.ldg = ledger.New(ledger.Config{
		Difficulty:    difficulty,
		TransPerBlock: transPerBlock,
		Pool:          e.pool,
		Saver:         e.saver,
		EvHandler: func(v string, args ...any) {
			e.events = append(e.events, fmt.Sprintf(v, args...))
		},
	})

	return &e
}

// trans signs and pools a transaction per city name.
func (e *env) trans(t *testing.T, cities ...string) []database.Tx {
	var trans []database.Tx
	for _, city := range cities {
		tx, err := database.NewTx("AC"+city, e.addr, e.pk)
		if err != nil {
			t.Fatalf("Should be able to sign transaction: %s", err)
		}
		e.pool.trans[tx.ID()] = struct{}{}
		trans = append(trans, tx)
	}
	return trans
}

func mine(t *testing.T, prev []byte, trans []database.Tx) database.Block {
	block, err := database.POW(context.Background(), database.POWArgs{
		PrevBlockHash: prev,
		Trans:         trans,
		Difficulty:    difficulty,
	})
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}
	return block
}

// lastEvent returns the last event reported by the ledger.
func (e *env) lastEvent() string {
	if len(e.events) == 0 {
		return ""
	}
	return e.events[len(e.events)-1]
}

// =============================================================================

func Test_Append(t *testing.T) {
	t.Log("Given the need to append valid blocks.")
	{
		e := newEnv(t)

		first := mine(t, nil, e.trans(t, "Berlin", "Paris"))
		ok, err := e.ldg.Append(first)
		if err != nil || !ok {
			t.Fatalf("\t%s\tShould accept a first block without a previous hash: %s", failed, e.lastEvent())
		}
		t.Logf("\t%s\tShould accept a first block without a previous hash.", success)

		second := mine(t, first.Hash, e.trans(t, "Rome"))
		if ok, _ := e.ldg.Append(second); !ok {
			t.Fatalf("\t%s\tShould accept a block linked to the latest block: %s", failed, e.lastEvent())
		}
		t.Logf("\t%s\tShould accept a block linked to the latest block.", success)

		if e.ldg.Length() != 2 || len(e.saver.blocks) != 2 {
			t.Fatalf("\t%s\tShould hold and persist two blocks.", failed)
		}

		if e.pool.removed != 3 || len(e.pool.trans) != 0 {
			t.Fatalf("\t%s\tShould remove the mined transactions from the pool, removed %d.", failed, e.pool.removed)
		}
		t.Logf("\t%s\tShould remove the mined transactions from the pool.", success)

		if !e.ldg.ContainsTx(second.Trans[0].Hash) {
			t.Fatalf("\t%s\tShould know the mined transaction.", failed)
		}

		latest, _ := e.ldg.LatestBlock()
		if latest.ID() != second.ID() {
			t.Fatalf("\t%s\tShould report the latest block.", failed)
		}
		t.Logf("\t%s\tShould report the latest block.", success)
	}
}

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to validate the first block rules.")
	{
		e := newEnv(t)

		linked := mine(t, crypto.Keccak256([]byte("nothing")), e.trans(t, "Berlin"))
		if ok, _ := e.ldg.Append(linked); ok {
			t.Fatalf("\t%s\tShould reject a first block with a previous hash.", failed)
		}
		t.Logf("\t%s\tShould reject a first block with a previous hash.", success)

		first := mine(t, nil, e.trans(t, "Paris"))
		if ok, _ := e.ldg.Append(first); !ok {
			t.Fatalf("\t%s\tShould accept the first block: %s", failed, e.lastEvent())
		}

		orphan := mine(t, nil, e.trans(t, "Rome"))
		if ok, _ := e.ldg.Append(orphan); ok {
			t.Fatalf("\t%s\tShould reject a second block without a previous hash.", failed)
		}
		t.Logf("\t%s\tShould reject a second block without a previous hash.", success)
	}
}

func Test_Reject(t *testing.T) {
	type table struct {
		name   string
		reason string
		empty  bool
		block  func(t *testing.T, e *env, latest database.Block) database.Block
	}

	tt := []table{
		{
			name:   "chain-link",
			reason: "previous block hash",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				return mine(t, latest.MerkleRoot, e.trans(t, "Rome"))
			},
		},
		{
			name:   "merkle-root",
			reason: "merkle root",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				b := mine(t, latest.Hash, e.trans(t, "Rome", "Madrid"))
				b.Trans = b.Trans[:1]
				return b
			},
		},
		{
			name:   "hash",
			reason: "block hash does not match",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				b := mine(t, latest.Hash, e.trans(t, "Rome"))
				b.Nonce++
				return b
			},
		},
		{
			name:   "size",
			reason: "too many transactions",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				return mine(t, latest.Hash, e.trans(t, "Rome", "Madrid", "Lisbon", "Vienna", "Prague", "Warsaw"))
			},
		},
		{
			name:   "size-first-block",
			reason: "too many transactions",
			empty:  true,
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				return mine(t, nil, e.trans(t, "Rome", "Madrid", "Lisbon", "Vienna", "Prague", "Warsaw"))
			},
		},
		{
			name:   "pool",
			reason: "missing from the pool",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				trans := e.trans(t, "Rome")
				delete(e.pool.trans, trans[0].ID())
				return mine(t, latest.Hash, trans)
			},
		},
		{
			name:   "difficulty",
			reason: "leading zero bits",
			block: func(t *testing.T, e *env, latest database.Block) database.Block {
				b, err := database.NewBlock(latest.Hash, e.trans(t, "Rome"))
				if err != nil {
					t.Fatalf("Should be able to build a block: %s", err)
				}
				for database.IsHashSolved(difficulty, b.CalculateHash()) {
					b.Nonce++
				}
				b.Hash = b.CalculateHash()
				return b
			},
		},
	}

	t.Log("Given the need to reject blocks that fail a single check.")
	{
		for _, tst := range tt {
			f := func(t *testing.T) {
				e := newEnv(t)

				var latest database.Block
				length := 0
				if !tst.empty {
					latest = mine(t, nil, e.trans(t, "Berlin"))
					if ok, _ := e.ldg.Append(latest); !ok {
						t.Fatalf("\t%s\tShould accept the first block: %s", failed, e.lastEvent())
					}
					length = 1
				}

				ok, err := e.ldg.Append(tst.block(t, e, latest))
				if err != nil {
					t.Fatalf("\t%s\tShould not get a crypto error: %s", failed, err)
				}
				if ok {
					t.Fatalf("\t%s\tShould reject the block.", failed)
				}
				if !strings.Contains(e.lastEvent(), tst.reason) {
					t.Logf("\t%s\tgot: %s", failed, e.lastEvent())
					t.Logf("\t%s\texp: %s", failed, tst.reason)
					t.Fatalf("\t%s\tShould reject the block for the right reason.", failed)
				}
				if e.ldg.Length() != length {
					t.Fatalf("\t%s\tShould leave the chain untouched.", failed)
				}
				t.Logf("\t%s\tShould reject the block for the right reason.", success)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_UnlessMined(t *testing.T) {
	t.Log("Given the need to keep mined transactions out of the pool.")
	{
		e := newEnv(t)

		first := mine(t, nil, e.trans(t, "Berlin"))
		if ok, _ := e.ldg.Append(first); !ok {
			t.Fatalf("\t%s\tShould accept the first block: %s", failed, e.lastEvent())
		}

		var called bool
		ok, mined := e.ldg.UnlessMined(first.Trans[0].Hash, func() bool {
			called = true
			return true
		})
		if ok || !mined || called {
			t.Fatalf("\t%s\tShould skip a transaction that was already mined.", failed)
		}
		t.Logf("\t%s\tShould skip a transaction that was already mined.", success)

		second := mine(t, first.Hash, e.trans(t, "Paris"))
		done := make(chan struct{})

		ok, mined = e.ldg.UnlessMined(second.Trans[0].Hash, func() bool {
			go func() {
				e.ldg.Append(second)
				close(done)
			}()

			select {
			case <-done:
				return false
			case <-time.After(100 * time.Millisecond):
				return true
			}
		})
		if !ok || mined {
			t.Fatalf("\t%s\tShould hold back a block append while adding to the pool.", failed)
		}
		t.Logf("\t%s\tShould hold back a block append while adding to the pool.", success)

		<-done
		if e.ldg.Length() != 2 {
			t.Fatalf("\t%s\tShould append the block once the add is done: %s", failed, e.lastEvent())
		}
		t.Logf("\t%s\tShould append the block once the add is done.", success)
	}
}

func Test_Adopt(t *testing.T) {
	t.Log("Given the need to adopt the chain of a peer.")
	{
		src := newEnv(t)

		b1 := mine(t, nil, src.trans(t, "Berlin"))
		b2 := mine(t, b1.Hash, src.trans(t, "Paris"))
		b3 := mine(t, b2.Hash, src.trans(t, "Rome"))

		dst := newEnv(t)
		if n := dst.ldg.Adopt([]database.Block{b1, b2}); n != 2 {
			t.Fatalf("\t%s\tShould adopt two blocks without pool membership, got %d: %s", failed, n, dst.lastEvent())
		}
		t.Logf("\t%s\tShould adopt blocks without pool membership.", success)

		if n := dst.ldg.Adopt([]database.Block{b1, b2, b3}); n != 1 {
			t.Fatalf("\t%s\tShould skip the blocks already held, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould skip the blocks already held.", success)

		fork := mine(t, b1.Hash, src.trans(t, "Madrid"))
		if n := dst.ldg.Adopt([]database.Block{b1, fork, b3}); n != 0 {
			t.Fatalf("\t%s\tShould stop at the first block that differs, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould stop at the first block that differs.", success)

		if dst.ldg.Length() != 3 || len(dst.saver.blocks) != 3 {
			t.Fatalf("\t%s\tShould hold and persist three blocks.", failed)
		}

		restored := newEnv(t)
		if n := restored.ldg.Load(dst.saver.blocks); n != 3 || len(restored.saver.blocks) != 0 {
			t.Fatalf("\t%s\tShould load persisted blocks without writing them back.", failed)
		}
		t.Logf("\t%s\tShould load persisted blocks without writing them back.", success)
	}
}
