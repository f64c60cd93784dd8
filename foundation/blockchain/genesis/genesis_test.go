package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/genesis"
)

func Test_Load(t *testing.T) {
	type table struct {
		name    string
		content string
		valid   bool
	}

	tt := []table{
		{name: "valid", content: `{"chain_name":"test","trans_per_block":5,"difficulty":3}`, valid: true},
		{name: "no-trans", content: `{"chain_name":"test","trans_per_block":0,"difficulty":3}`, valid: false},
		{name: "difficulty", content: `{"chain_name":"test","trans_per_block":5,"difficulty":300}`, valid: false},
		{name: "garbage", content: `{`, valid: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(tst.content), 0600); err != nil {
				t.Fatalf("Should be able to write the genesis file: %s", err)
			}

			gen, err := genesis.Load(path)
			if tst.valid && err != nil {
				t.Fatalf("Should be able to load the genesis file: %s", err)
			}
			if !tst.valid && err == nil {
				t.Fatalf("Should not be able to load the genesis file.")
			}

			if tst.valid && (gen.TransPerBlock != 5 || gen.Difficulty != 3) {
				t.Fatalf("Should get back the consensus values, got %+v.", gen)
			}
		}

		t.Run(tst.name, f)
	}
}
