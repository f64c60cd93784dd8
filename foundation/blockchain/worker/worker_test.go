package worker_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/genesis"
	"github.com/civledger/ledger/foundation/blockchain/state"
	"github.com/civledger/ledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const userKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func newNode(t *testing.T, transPerBlock uint16, cities ...string) *state.State {
	pk, err := crypto.HexToECDSA(userKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
	}
	addr := database.NewAddress(pk.PublicKey)

	st, err := state.New(state.Config{
		Genesis: genesis.Genesis{
			ChainName:     "test",
			Difficulty:    1,
			TransPerBlock: transPerBlock,
		},
		Host: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	st.UpsertAddress(addr, false)

	for _, city := range cities {
		tx, err := database.NewTx("AC"+city, addr, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
		}
		if !st.SubmitTransaction(tx, false) {
			t.Fatalf("\t%s\tShould accept the transaction for %s.", failed, city)
		}
	}

	return st
}

// waitFor polls the condition until it holds or the time is up.
func waitFor(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// =============================================================================

func Test_MineSingleTransaction(t *testing.T) {
	t.Log("Given the need to mine the single transaction in the pool.")
	{
		st := newNode(t, 100, "Berlin")

		worker.Run(st, 50*time.Millisecond, nil)
		defer st.Worker.Shutdown()

		if !st.Worker.StartMining() {
			t.Fatalf("\t%s\tShould be able to start the miner.", failed)
		}
		if st.Worker.StartMining() {
			t.Fatalf("\t%s\tShould not start a second miner.", failed)
		}
		t.Logf("\t%s\tShould start exactly one miner.", success)

		mined := waitFor(5*time.Second, func() bool {
			return st.QueryChainLength() == 1 && st.QueryMempoolLength() == 0
		})
		if !mined {
			t.Fatalf("\t%s\tShould mine one block and empty the pool, chain[%d] pool[%d].", failed, st.QueryChainLength(), st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould mine one block and empty the pool.", success)

		time.Sleep(200 * time.Millisecond)
		if st.QueryChainLength() != 1 {
			t.Fatalf("\t%s\tShould not mine blocks without transactions.", failed)
		}

		blocks := st.RetrieveBlocks()
		if len(blocks[0].Trans) != 1 || blocks[0].Trans[0].Text != "ACBerlin" {
			t.Fatalf("\t%s\tShould hold the transaction in the block.", failed)
		}
		t.Logf("\t%s\tShould hold the transaction in the block.", success)

		if !st.Worker.StopMining() || st.Worker.IsMining() {
			t.Fatalf("\t%s\tShould be able to stop the miner.", failed)
		}
		t.Logf("\t%s\tShould be able to stop the miner.", success)
	}
}

func Test_MaxTransPerBlock(t *testing.T) {
	t.Log("Given the need to respect the maximum transactions per block.")
	{
		var cities []string
		for i := 0; i < 5; i++ {
			cities = append(cities, fmt.Sprintf("City%c", 'A'+i))
		}

		st := newNode(t, 2, cities...)

		worker.Run(st, 50*time.Millisecond, nil)
		defer st.Worker.Shutdown()

		st.Worker.StartMining()

		mined := waitFor(5*time.Second, func() bool {
			return st.QueryMempoolLength() == 0
		})
		if !mined {
			t.Fatalf("\t%s\tShould mine every transaction, pool[%d].", failed, st.QueryMempoolLength())
		}

		blocks := st.RetrieveBlocks()
		if len(blocks) != 3 {
			t.Fatalf("\t%s\tShould mine three blocks, got %d.", failed, len(blocks))
		}
		for i, block := range blocks {
			if len(block.Trans) > 2 {
				t.Fatalf("\t%s\tShould not put more than 2 transactions in block %d, got %d.", failed, i, len(block.Trans))
			}
		}
		t.Logf("\t%s\tShould not exceed the maximum transactions per block.", success)

		if blocks[0].Trans[0].Text != "ACCityA" || blocks[2].Trans[0].Text != "ACCityE" {
			t.Fatalf("\t%s\tShould mine the transactions in arrival order.", failed)
		}
		t.Logf("\t%s\tShould mine the transactions in arrival order.", success)
	}
}
