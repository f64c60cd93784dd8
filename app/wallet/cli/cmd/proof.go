package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var proofCmd = &cobra.Command{
	Use:   "proof TX-ID",
	Short: "Check a transaction was mined into a block of the node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := fetch(http.MethodGet, "/transaction/"+args[0]+"/proof", nil)
		if data != nil {
			printJSON(data)
		}
		if err != nil {
			return err
		}

		proof, err := checkProof(data)
		if err != nil {
			return err
		}

		fmt.Printf("transaction %s is in block %s at height %d\n", proof.TxHash, proof.BlockHash, proof.Height)
		return nil
	},
}

// checkProof decodes the proof sent by the node and verifies it locally
// against the merkle root it names.
func checkProof(data []byte) (database.TxProof, error) {
	var proof database.TxProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return database.TxProof{}, fmt.Errorf("decoding proof: %w", err)
	}

	if !proof.Verify() {
		return database.TxProof{}, errors.New("proof does not lead to the merkle root of the block")
	}

	return proof, nil
}

func init() {
	rootCmd.AddCommand(proofCmd)
}
