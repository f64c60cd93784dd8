package cmd

import (
	"strings"
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/contract"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_CivilCommands(t *testing.T) {
	samples := map[string][]string{
		contract.PrefixCitizen:  {"Doe", "John", "19800101", "Main Street 1", "Jane Doe", "Jim Doe"},
		contract.PrefixCity:     {"Berlin"},
		contract.PrefixStreet:   {"Berlin", "Main Street"},
		contract.PrefixHouse:    {"Berlin", "Main Street", "12"},
		contract.PrefixDeath:    {"John", "Doe", "20200101"},
		contract.PrefixAlive:    {"John", "Doe"},
		contract.PrefixMarriage: {"John Doe", "Jane Roe", "20100601"},
		contract.PrefixDivorce:  {"John Doe", "Jane Roe"},
		contract.PrefixMove:     {"John", "Doe", "Side Street 4"},
	}

	registry := contract.Default()

	t.Log("Given the need to build civil registry messages from arguments.")
	{
		for i, c := range civils {
			t.Logf("\tTest %d:\tWhen handling the %q command.", i, c.prefix)
			{
				args := samples[c.prefix]

				cmd := c.command()
				if err := cmd.Args(cmd, args); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould take one argument per field: %s", failed, i, err)
				}
				if err := cmd.Args(cmd, args[1:]); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould refuse a missing field.", failed, i)
				}
				t.Logf("\t%s\tTest %d:\tShould take one argument per field.", success, i)

				text := c.prefix + strings.Join(args, contract.Separator)
				if !registry.Validate(text) {
					t.Fatalf("\t%s\tTest %d:\tShould build a valid message: %s", failed, i, text)
				}
				t.Logf("\t%s\tTest %d:\tShould build a valid message.", success, i)
			}
		}
	}
}
