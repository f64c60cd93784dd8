// This program is the client used to publish addresses and submit signed
// civil registry messages to a node.
package main

import "github.com/civledger/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
