// Package genesis maintains access to the genesis file. The genesis file
// holds the consensus parameters every node of a network must agree on.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Default values used when the genesis file doesn't provide them.
const (
	DefaultDifficulty    = 1
	DefaultTransPerBlock = 100
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	ChainName     string    `json:"chain_name"`      // Name of the network so operators can tell chains apart.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
	Difficulty    uint16    `json:"difficulty"`      // Leading zero bits a block hash needs to solve the work problem.
}

// Default returns the genesis used when no file is provided.
func Default() Genesis {
	return Genesis{
		ChainName:     "civledger",
		TransPerBlock: DefaultTransPerBlock,
		Difficulty:    DefaultDifficulty,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the values can run a network.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("genesis: trans_per_block must be greater than zero")
	}

	if g.Difficulty > 255 {
		return errors.New("genesis: difficulty can't exceed the 256 bit hash")
	}

	return nil
}
