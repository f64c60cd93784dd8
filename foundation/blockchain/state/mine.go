package state

import (
	"context"
	"errors"

	"github.com/civledger/ledger/foundation/blockchain/database"
)

// Set of errors a mining operation can end with.
var (
	ErrNoTransactions = errors.New("no transactions in mempool")
	ErrBlockRejected  = errors.New("mined block rejected by the ledger")
)

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. Up to the configured number of
// transactions are taken from the pool in arrival order.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		PrevBlockHash: s.ledger.LatestHash(),
		Trans:         trans,
		Difficulty:    s.genesis.Difficulty,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: append to ledger")

	// A peer's block could have been appended while we were mining, the
	// ledger will then reject this block and the miner starts over.
	ok, err := s.ledger.Append(block)
	if err != nil {
		return database.Block{}, err
	}
	if !ok {
		return database.Block{}, ErrBlockRejected
	}

	s.blockEvent(block)

	return block, nil
}
