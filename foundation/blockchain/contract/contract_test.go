package contract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/contract"
	"github.com/stretchr/testify/require"
)

func Test_Civil(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 0, 2).Format("20060102")

	tt := []struct {
		name  string
		text  string
		valid bool
	}{
		{name: "citizen", text: "ADDoe|John|19800101|Main Street 1, Berlin|Jane Doe|Jim Doe", valid: true},
		{name: "citizen-missing-field", text: "ADDoe|John|19800101|Main Street 1|Jane Doe", valid: false},
		{name: "citizen-bad-date", text: "ADDoe|John|19800231|Main Street 1|Jane Doe|Jim Doe", valid: false},
		{name: "citizen-future", text: "ADDoe|John|" + future + "|Main Street 1|Jane Doe|Jim Doe", valid: false},
		{name: "citizen-digits-in-name", text: "ADD0e|John|19800101|Main Street 1|Jane Doe|Jim Doe", valid: false},
		{name: "city", text: "ACBerlin", valid: true},
		{name: "city-space", text: "ACNew York", valid: false},
		{name: "city-empty", text: "AC", valid: false},
		{name: "street", text: "ASBerlin|Unter den Linden", valid: true},
		{name: "street-extra", text: "ASBerlin|Unter den Linden|1", valid: false},
		{name: "house", text: "AHBerlin|Unter den Linden|12", valid: true},
		{name: "house-zero", text: "AHBerlin|Unter den Linden|0", valid: false},
		{name: "house-letters", text: "AHBerlin|Unter den Linden|12a", valid: false},
		{name: "alive", text: "DAJohn|Doe", valid: true},
		{name: "death", text: "DHJohn|Doe|20200101", valid: true},
		{name: "death-too-old", text: "DHJohn|Doe|18991231", valid: false},
		{name: "marriage", text: "MRJohn Doe|Jane Roe|20200601", valid: true},
		{name: "marriage-self", text: "MRJohn Doe|john doe|20200601", valid: false},
		{name: "marriage-future", text: "MRJohn Doe|Jane Roe|" + future, valid: false},
		{name: "divorce", text: "DVJohn Doe|Jane Roe", valid: true},
		{name: "divorce-self", text: "DVJohn Doe|John Doe", valid: false},
		{name: "move", text: "CAJohn|Doe|Main Street 2, Berlin", valid: true},
		{name: "message", text: "MSHello there, neighbour!", valid: true},
		{name: "message-empty", text: "MS", valid: false},
		{name: "message-control", text: "MSbell\a", valid: false},
		{name: "message-long", text: "MS" + strings.Repeat("x", 1025), valid: false},
		{name: "unknown-prefix", text: "XXBerlin", valid: false},
		{name: "empty", text: "", valid: false},
	}

	reg := contract.Default()

	for _, tst := range tt {
		f := func(t *testing.T) {
			require.Equal(t, tst.valid, reg.Validate(tst.text), "text %q", tst.text)
		}

		t.Run(tst.name, f)
	}
}

// =============================================================================

type stubContract struct {
	prefix   string
	syntax   bool
	semantic bool
}

func (s stubContract) Prefix() string            { return s.prefix }
func (s stubContract) CheckSyntax(string) bool   { return s.syntax }
func (s stubContract) CheckSemantic(string) bool { return s.semantic }

func Test_Registry(t *testing.T) {
	reg, err := contract.New(
		stubContract{prefix: "OK", syntax: true, semantic: true},
		stubContract{prefix: "SY", syntax: false, semantic: true},
		stubContract{prefix: "SE", syntax: true, semantic: false},
	)
	require.NoError(t, err)

	require.True(t, reg.Validate("OKanything"))
	require.False(t, reg.Validate("SYanything"), "failed syntax must reject")
	require.False(t, reg.Validate("SEanything"), "failed semantic must reject")
	require.False(t, reg.Validate("NOanything"), "unknown prefix must reject")

	// The first registered contract whose prefix matches decides.
	require.NoError(t, reg.Register(stubContract{prefix: "O", syntax: false}))
	require.True(t, reg.Validate("OKanything"))
	require.False(t, reg.Validate("Oanything"))

	require.Error(t, reg.Register(stubContract{prefix: "OK"}), "duplicate prefix must be rejected")
	require.Error(t, reg.Register(stubContract{prefix: ""}), "empty prefix must be rejected")

	require.Equal(t, []string{"OK", "SY", "SE", "O"}, reg.Prefixes())

	c, body, found := reg.Match("SEbody")
	require.True(t, found)
	require.Equal(t, "SE", c.Prefix())
	require.Equal(t, "body", body)
}
