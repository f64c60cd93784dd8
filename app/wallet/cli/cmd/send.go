package cmd

import (
	"errors"
	"net/http"

	"github.com/civledger/ledger/foundation/blockchain/contract"
	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var text string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a raw message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendText(text)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&text, "text", "t", "", "Message with its two letter prefix.")
	sendCmd.MarkFlagRequired("text")
}

// sendText checks the message locally, signs it with the account key and
// submits it to the node.
func sendText(text string) error {
	if !contract.Default().Validate(text) {
		return errors.New("message is not valid for any contract")
	}

	privateKey, addr, err := loadAccount()
	if err != nil {
		return err
	}

	tx, err := database.NewTx(text, addr, privateKey)
	if err != nil {
		return err
	}

	return call(http.MethodPut, "/transaction", tx)
}
