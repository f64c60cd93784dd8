package selector_test

import (
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/mempool/selector"
)

func tx(sender byte, text string, ts int64) database.Tx {
	return database.Tx{
		Text:       text,
		SenderHash: []byte{sender},
		TimeStamp:  ts,
		Hash:       []byte(text),
	}
}

func texts(trans []database.Tx) []string {
	s := make([]string, len(trans))
	for i, tx := range trans {
		s[i] = tx.Text
	}
	return s
}

func Test_Strategies(t *testing.T) {
	pool := []database.Tx{
		tx(1, "a1", 30),
		tx(1, "a2", 10),
		tx(1, "a3", 20),
		tx(2, "b1", 15),
		tx(3, "c1", 5),
	}

	type table struct {
		strategy string
		howMany  int
		exp      []string
	}

	tt := []table{
		{strategy: selector.StrategyFIFO, howMany: -1, exp: []string{"a1", "a2", "a3", "b1", "c1"}},
		{strategy: selector.StrategyFIFO, howMany: 2, exp: []string{"a1", "a2"}},
		{strategy: selector.StrategyOldest, howMany: 3, exp: []string{"c1", "a2", "b1"}},
		{strategy: selector.StrategyFair, howMany: -1, exp: []string{"a1", "b1", "c1", "a2", "a3"}},
		{strategy: selector.StrategyFair, howMany: 10, exp: []string{"a1", "b1", "c1", "a2", "a3"}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			fn, err := selector.Retrieve(tst.strategy)
			if err != nil {
				t.Fatalf("Should be able to retrieve the strategy: %s", err)
			}

			got := texts(fn(pool, tst.howMany))
			if len(got) != len(tst.exp) {
				t.Fatalf("Should get back %d transactions, got %v.", len(tst.exp), got)
			}
			for i := range got {
				if got[i] != tst.exp[i] {
					t.Logf("got: %v", got)
					t.Logf("exp: %v", tst.exp)
					t.Fatalf("Should get back the right order.")
				}
			}

			if pool[0].Text != "a1" || pool[4].Text != "c1" {
				t.Fatalf("Should not modify the input.")
			}
		}

		t.Run(tst.strategy, f)
	}

	if _, err := selector.Retrieve("tip"); err == nil {
		t.Fatalf("Should not be able to retrieve an unknown strategy.")
	}
}
