package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case ctx := <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation(ctx)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation keeps mining blocks from the pool until the miner is
// stopped or the worker is shut down.
func (w *Worker) runMiningOperation(ctx context.Context) {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	for {
		if ctx.Err() != nil || w.isShutdown() {
			return
		}

		err := w.mineBlock(ctx)

		switch {
		case err == nil:
			continue

		case ctx.Err() != nil:
			return

		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runMiningOperation: MINING: no transactions, waiting[%v]", w.minerIdle)

		case errors.Is(err, state.ErrBlockRejected), errors.Is(err, context.Canceled):
			w.evHandler("worker: runMiningOperation: MINING: restart with a fresh pool: %s", err)
			continue

		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}

		select {
		case <-time.After(w.minerIdle):
		case <-ctx.Done():
			return
		case <-w.shut:
			return
		}
	}
}

// mineBlock performs a single mining attempt. The attempt is cancelled when
// the miner is stopped or when a block from a peer moved the latest block.
// A mined block is proposed to the known peers.
func (w *Worker) mineBlock(ctx context.Context) error {

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: mineBlock: MINING: drained cancel channel")
	default:
	}

	// Create a context so this attempt can be cancelled on its own.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Can't return from this function until this G is complete.
	var wg sync.WaitGroup
	wg.Add(1)

	// This G exists to cancel the mining attempt.
	go func() {
		defer wg.Done()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: mineBlock: MINING: CANCEL: requested")
			cancel()
		case <-ctx.Done():
		}
	}()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	duration := time.Since(t)

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}

	w.evHandler("worker: mineBlock: MINING: blk[%s]: mining duration[%v]", block, duration)

	// WOW, we mined a block. Propose the new block to the network.
	w.state.NetSendBlockToPeers(block)

	return nil
}
