package public

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type status struct {
	Status string `json:"status"`
}

type account struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	PublicKey hexutil.Bytes `json:"public_key"`
}

type actInfo struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Accounts    []account `json:"accounts"`
}

type miner struct {
	Status string `json:"status"`
	Mining bool   `json:"mining"`
}
