// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"
	"sort"

	"github.com/civledger/ledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO   = "fifo"
	StrategyOldest = "oldest"
	StrategyFair   = "fair"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:   fifoSelect,
	StrategyOldest: oldestSelect,
	StrategyFair:   fairSelect,
}

// Func defines a function that takes the pool's transactions in the order
// they arrived and selects howMany of them in an order based on the
// function's strategy. Receiving -1 for howMany must return all the
// transactions in the strategy's ordering. The input must not be modified.
type Func func(transactions []database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect returns transactions in the order they arrived.
var fifoSelect = func(trans []database.Tx, howMany int) []database.Tx {
	return limit(append([]database.Tx(nil), trans...), howMany)
}

// oldestSelect returns transactions by the time they were signed. Arrival
// order breaks ties.
var oldestSelect = func(trans []database.Tx, howMany int) []database.Tx {
	final := append([]database.Tx(nil), trans...)
	sort.SliceStable(final, func(i, j int) bool {
		return final[i].TimeStamp < final[j].TimeStamp
	})

	return limit(final, howMany)
}

// fairSelect gives every sender a turn so a single busy sender can't fill
// a block on its own. Each sender's transactions keep their arrival order.
var fairSelect = func(trans []database.Tx, howMany int) []database.Tx {

	// Group the transactions by sender, remembering the order in which the
	// senders were first seen.
	var senders []string
	m := make(map[string][]database.Tx)
	for _, tx := range trans {
		id := tx.SenderID()
		if _, exists := m[id]; !exists {
			senders = append(senders, id)
		}
		m[id] = append(m[id], tx)
	}

	// Pick the first transaction for each sender. Each iteration represents
	// a new row of selections. Keep doing that until all the transactions
	// have been selected.
	final := make([]database.Tx, 0, len(trans))
	for len(final) < len(trans) {
		for _, id := range senders {
			if len(m[id]) > 0 {
				final = append(final, m[id][0])
				m[id] = m[id][1:]
			}
		}
	}

	return limit(final, howMany)
}

// limit returns at most howMany transactions.
func limit(trans []database.Tx, howMany int) []database.Tx {
	if howMany < 0 || howMany > len(trans) {
		return trans
	}

	return trans[:howMany]
}
