// Package worker implements mining, peer updates, and transaction sharing for
// the node.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of asking the known peers
// for the nodes they know about.
const peerUpdateInterval = time.Minute

// DefaultMinerIdle is the time the miner waits before looking at an empty
// pool again.
const DefaultMinerIdle = 10 * time.Second

// =============================================================================

// Worker manages the POW workflows for the node.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startMining  chan context.Context
	cancelMining chan struct{}
	txSharing    chan database.Tx
	minerIdle    time.Duration
	evHandler    state.EventHandler

	mu         sync.Mutex
	stopMining context.CancelFunc
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. The miner starts stopped.
func Run(st *state.State, minerIdle time.Duration, evHandler state.EventHandler) {
	if minerIdle <= 0 {
		minerIdle = DefaultMinerIdle
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:        st,
		ticker:       time.NewTicker(peerUpdateInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan context.Context, 1),
		cancelMining: make(chan struct{}, 1),
		txSharing:    make(chan database.Tx, maxTxShareRequests),
		minerIdle:    minerIdle,
		evHandler:    ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: stop mining")
	w.StopMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// StartMining moves the miner to the running state. False is returned if
// the miner was already running.
func (w *Worker) StartMining() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopMining != nil || w.isShutdown() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.stopMining = cancel

	// Drop the request of a previous run that was stopped before the
	// mining G picked it up.
	select {
	case <-w.startMining:
	default:
	}
	w.startMining <- ctx

	w.evHandler("worker: StartMining: mining started")

	return true
}

// StopMining moves the miner to the stopped state. The mining G notices
// before its next nonce attempt. False is returned if the miner wasn't
// running.
func (w *Worker) StopMining() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopMining == nil {
		return false
	}

	w.stopMining()
	w.stopMining = nil

	w.evHandler("worker: StopMining: mining stopped")

	return true
}

// IsMining reports whether the miner is running.
func (w *Worker) IsMining() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stopMining != nil
}

// SignalCancelMining signals the G executing the mining operation to drop
// the block it's working on and start over from the new latest block.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- struct{}{}:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
