package cmd

import (
	"strings"

	"github.com/civledger/ledger/foundation/blockchain/contract"
	"github.com/spf13/cobra"
)

// civil describes the command building one kind of civil registry message.
type civil struct {
	use    string
	short  string
	prefix string
}

var civils = []civil{
	{"citizen LAST FIRST BIRTHDAY ADDRESS MOTHER FATHER", "Register a citizen", contract.PrefixCitizen},
	{"city NAME", "Register a city", contract.PrefixCity},
	{"street CITY NAME", "Register a street in a city", contract.PrefixStreet},
	{"house CITY STREET NUMBER", "Register a house on a street", contract.PrefixHouse},
	{"death FIRST LAST DATE", "Declare the death of a citizen", contract.PrefixDeath},
	{"alive FIRST LAST", "Declare a citizen alive", contract.PrefixAlive},
	{"marriage PERSON1 PERSON2 DATE", "Register a marriage", contract.PrefixMarriage},
	{"divorce PERSON1 PERSON2", "Register a divorce", contract.PrefixDivorce},
	{"move FIRST LAST ADDRESS", "Change the address of a citizen", contract.PrefixMove},
}

func init() {
	for _, c := range civils {
		rootCmd.AddCommand(c.command())
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "message TEXT...",
		Short: "Send a free text message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendText(contract.PrefixMessage + strings.Join(args, " "))
		},
	})
}

// command returns a cobra command taking one argument per message field.
func (c civil) command() *cobra.Command {
	fields := len(strings.Fields(c.use)) - 1

	return &cobra.Command{
		Use:   c.use,
		Short: c.short,
		Args:  cobra.ExactArgs(fields),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendText(c.prefix + strings.Join(args, contract.Separator))
		},
	}
}
