package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Lookup(t *testing.T) {
	t.Log("Given the need to resolve address hashes to key file names.")
	{
		dir := t.TempDir()

		pk, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %s", failed, err)
		}
		if err := crypto.SaveECDSA(filepath.Join(dir, "registrar.ecdsa"), pk); err != nil {
			t.Fatalf("\t%s\tShould be able to save the key: %s", failed, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write a stray file: %s", failed, err)
		}

		ns, err := nameservice.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the name service: %s", failed, err)
		}

		id := database.NewAddress(pk.PublicKey).ID()
		if name := ns.Lookup(id); name != "registrar" {
			t.Fatalf("\t%s\tShould resolve the address to its file name, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould resolve the address to its file name.", success)

		if name := ns.Lookup("0xabc"); name != "0xabc" {
			t.Fatalf("\t%s\tShould return unknown ids as is, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould return unknown ids as is.", success)

		if len(ns.Copy()) != 1 {
			t.Fatalf("\t%s\tShould only load key files.", failed)
		}
		t.Logf("\t%s\tShould only load key files.", success)
	}
}
