package mempool_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/accounts"
	"github.com/civledger/ledger/foundation/blockchain/contract"
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/mempool"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type saver struct {
	saves int
}

func (s *saver) SaveTransactions(trans []database.Tx) error {
	s.saves++
	return nil
}

type env struct {
	pk    *ecdsa.PrivateKey
	addr  database.Address
	accts *accounts.Accounts
	saver *saver
	mp    *mempool.Mempool
}

func newEnv(t *testing.T) env {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	addr := database.NewAddress(pk.PublicKey)
	accts := accounts.New(nil, nil)
	accts.Add(addr)

	var s saver
	mp, err := mempool.New(mempool.Config{
		Addresses: accts,
		Validator: contract.Default(),
		Saver:     &s,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	return env{pk: pk, addr: addr, accts: accts, saver: &s, mp: mp}
}

func (e env) sign(t *testing.T, text string) database.Tx {
	tx, err := database.NewTx(text, e.addr, e.pk)
	if err != nil {
		t.Fatalf("Should be able to sign transaction: %s", err)
	}
	return tx
}

// =============================================================================

func Test_CRUD(t *testing.T) {
	e := newEnv(t)

	t.Log("Given the need to validate mempool api.")
	{
		texts := []string{"ACBerlin", "ACParis", "ACRome", "ACMadrid"}

		var trans []database.Tx
		for _, text := range texts {
			tx := e.sign(t, text)
			if !e.mp.Add(tx) {
				t.Fatalf("\t%s\tShould be able to add new transaction: %s", failed, tx)
			}
			trans = append(trans, tx)
		}
		t.Logf("\t%s\tShould be able to add new transactions.", success)

		if !e.mp.Add(trans[0]) || e.mp.Count() != len(texts) {
			t.Fatalf("\t%s\tShould accept a duplicate without changing the pool, got %d.", failed, e.mp.Count())
		}
		t.Logf("\t%s\tShould accept a duplicate without changing the pool.", success)

		for i, tx := range e.mp.Copy() {
			if tx.Text != texts[i] {
				t.Logf("\t%s\tgot: %s", failed, tx.Text)
				t.Logf("\t%s\texp: %s", failed, texts[i])
				t.Fatalf("\t%s\tShould get back the arrival order.", failed)
			}
		}
		t.Logf("\t%s\tShould get back the arrival order.", success)

		best := e.mp.PickBest(2)
		if len(best) != 2 || best[0].Text != texts[0] || best[1].Text != texts[1] {
			t.Fatalf("\t%s\tShould pick the first transactions to arrive.", failed)
		}
		t.Logf("\t%s\tShould pick the first transactions to arrive.", success)

		if !e.mp.ContainsAll(trans) {
			t.Fatalf("\t%s\tShould contain all the transactions.", failed)
		}

		e.mp.Remove(trans[1])
		e.mp.Remove(trans[1])
		if e.mp.Count() != 3 || e.mp.ContainsAll(trans) || e.mp.Contains(trans[1].Hash) {
			t.Fatalf("\t%s\tShould be able to remove a transaction.", failed)
		}
		t.Logf("\t%s\tShould be able to remove a transaction twice.", success)

		if got := e.mp.Copy(); got[1].Text != texts[2] {
			t.Fatalf("\t%s\tShould keep the arrival order after a remove.", failed)
		}

		e.mp.Truncate()
		if e.mp.Count() != 0 {
			t.Fatalf("\t%s\tShould be able to truncate mempool.", failed)
		}
		t.Logf("\t%s\tShould be able to truncate mempool.", success)

		if e.saver.saves == 0 {
			t.Fatalf("\t%s\tShould persist the pool.", failed)
		}
	}
}

func Test_Reject(t *testing.T) {
	e := newEnv(t)

	stranger, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	strangerAddr := database.NewAddress(stranger.PublicKey)

	type table struct {
		name string
		tx   func() database.Tx
	}

	tt := []table{
		{
			name: "unknown-sender",
			tx: func() database.Tx {
				tx, _ := database.NewTx("ACBerlin", strangerAddr, stranger)
				return tx
			},
		},
		{
			name: "invalid-message",
			tx: func() database.Tx {
				return e.sign(t, "ACNew York")
			},
		},
		{
			name: "unknown-prefix",
			tx: func() database.Tx {
				return e.sign(t, "ZZanything")
			},
		},
		{
			name: "bad-signature",
			tx: func() database.Tx {
				tx := e.sign(t, "ACBerlin")
				other := e.sign(t, "ACParis")
				tx.Signature = other.Signature
				return tx
			},
		},
		{
			name: "signed-by-other-key",
			tx: func() database.Tx {
				tx, _ := database.Tx{Text: "ACBerlin", SenderHash: e.addr.Hash, TimeStamp: 1}.Sign(stranger)
				return tx
			},
		},
		{
			name: "bad-hash",
			tx: func() database.Tx {
				tx := e.sign(t, "ACBerlin")
				tx.Hash = e.sign(t, "ACParis").Hash
				return tx
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			var reasons []string
			mp, err := mempool.New(mempool.Config{
				Addresses: e.accts,
				Validator: contract.Default(),
				EvHandler: func(v string, args ...any) { reasons = append(reasons, v) },
			})
			if err != nil {
				t.Fatalf("Should be able to construct the mempool: %s", err)
			}

			if mp.Add(tst.tx()) {
				t.Fatalf("\t%s\tShould reject the transaction.", failed)
			}
			if mp.Count() != 0 || len(reasons) == 0 {
				t.Fatalf("\t%s\tShould leave the pool empty and log a reason.", failed)
			}
			t.Logf("\t%s\tShould reject the transaction.", success)
		}

		t.Run(tst.name, f)
	}
}

func Test_Load(t *testing.T) {
	e := newEnv(t)

	good := e.sign(t, "ACBerlin")
	bad := e.sign(t, "ACParis")
	bad.Text = "ACRome"

	if n := e.mp.Load([]database.Tx{good, bad, good}); n != 1 {
		t.Fatalf("Should load one transaction, got %d.", n)
	}
	if e.saver.saves != 0 {
		t.Fatalf("Should not write back loaded transactions.")
	}
}
