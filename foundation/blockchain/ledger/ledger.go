// Package ledger maintains the append only chain of verified blocks.
//
// A node accepts exactly one chain. A block that doesn't extend the latest
// block is rejected, there is no fork choice or reorganization. Nodes that
// mine competing blocks at the same height will keep different chains.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Pool represents the behavior required from the transaction pool. Every
// transaction of a new block must be waiting in the pool.
type Pool interface {
	ContainsAll(trans []database.Tx) bool
	RemoveAll(trans []database.Tx)
}

// Saver represents the behavior required to persist the chain.
type Saver interface {
	SaveBlocks(blocks []database.Block) error
}

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Config represents the consensus values and collaborators of a ledger.
type Config struct {
	Difficulty    uint16
	TransPerBlock uint16
	Pool          Pool
	Saver         Saver
	EvHandler     EventHandler
}

// =============================================================================

// Ledger manages the chain of blocks.
type Ledger struct {
	mu            sync.RWMutex
	blocks        []database.Block
	mined         map[string]struct{}
	difficulty    uint16
	transPerBlock uint16
	pool          Pool
	saver         Saver
	ev            EventHandler
}

// New constructs an empty ledger.
func New(cfg Config) *Ledger {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Ledger{
		mined:         make(map[string]struct{}),
		difficulty:    cfg.Difficulty,
		transPerBlock: cfg.TransPerBlock,
		pool:          cfg.Pool,
		saver:         cfg.Saver,
		ev:            ev,
	}
}

// Append verifies the block extends the chain and appends it. False is
// returned when the block is rejected, the reason is reported through the
// event handler. An error is only returned for a crypto failure. The block's
// transactions are removed from the pool once the block is appended.
func (l *Ledger) Append(block database.Block) (bool, error) {
	ok, err := l.append(block)
	if !ok || err != nil {
		return ok, err
	}

	if l.pool != nil {
		l.pool.RemoveAll(block.Trans)
	}

	return true, nil
}

// Adopt appends blocks received from a peer while joining the network.
// Blocks already held at the same height are skipped and adoption stops at
// the first block that doesn't fit. Pool membership is not required since
// these blocks were accepted by the network before this node existed. It
// returns the number of blocks appended.
func (l *Ledger) Adopt(blocks []database.Block) int {
	return l.adopt(blocks, true)
}

// Load appends previously persisted blocks without writing them back. The
// same checks as Adopt are performed.
func (l *Ledger) Load(blocks []database.Block) int {
	return l.adopt(blocks, false)
}

// =============================================================================

// Blocks returns a copy of the chain.
func (l *Ledger) Blocks() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]database.Block(nil), l.blocks...)
}

// LatestBlock returns the last block of the chain.
func (l *Ledger) LatestBlock() (database.Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.blocks) == 0 {
		return database.Block{}, false
	}

	return l.blocks[len(l.blocks)-1], true
}

// LatestHash returns the hash of the last block, or nil for an empty chain.
func (l *Ledger) LatestHash() []byte {
	block, exists := l.LatestBlock()
	if !exists {
		return nil
	}

	return block.Hash
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

// ContainsTx reports whether a transaction with the hash has been mined.
func (l *Ledger) ContainsTx(hash []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, exists := l.mined[hexutil.Encode(hash)]
	return exists
}

// UnlessMined calls add only when the transaction with the hash hasn't been
// mined. No block can be appended while add runs, so a transaction can't
// slip back into the pool after the block holding it was appended. The
// mined result reports whether add was skipped.
func (l *Ledger) UnlessMined(hash []byte, add func() bool) (ok bool, mined bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, exists := l.mined[hexutil.Encode(hash)]; exists {
		return false, true
	}

	return add(), false
}

// Difficulty returns the difficulty blocks must meet.
func (l *Ledger) Difficulty() uint16 {
	return l.difficulty
}

// TransPerBlock returns the maximum number of transactions in a block.
func (l *Ledger) TransPerBlock() uint16 {
	return l.transPerBlock
}

// =============================================================================

// append runs the checks and appends the block under the lock.
func (l *Ledger) append(block database.Block) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkLink(block); err != nil {
		l.ev("ledger: Append: REJECTED: blk[%s]: %s", block, err)
		return false, nil
	}

	if err := l.checkMerkleRoot(block); err != nil {
		if errors.Is(err, signature.ErrCrypto) {
			return false, err
		}
		l.ev("ledger: Append: REJECTED: blk[%s]: %s", block, err)
		return false, nil
	}

	if err := l.checkHash(block); err != nil {
		l.ev("ledger: Append: REJECTED: blk[%s]: %s", block, err)
		return false, nil
	}

	if err := l.checkSize(block); err != nil {
		l.ev("ledger: Append: REJECTED: blk[%s]: %s", block, err)
		return false, nil
	}

	if l.pool != nil && !l.pool.ContainsAll(block.Trans) {
		l.ev("ledger: Append: REJECTED: blk[%s]: transactions missing from the pool", block)
		return false, nil
	}

	if err := l.checkDifficulty(block); err != nil {
		l.ev("ledger: Append: REJECTED: blk[%s]: %s", block, err)
		return false, nil
	}

	l.push(block)
	l.ev("ledger: Append: blk[%s]: appended: height[%d]", block, len(l.blocks))

	l.persist()

	return true, nil
}

func (l *Ledger) adopt(blocks []database.Block, persist bool) int {
	var appended []database.Block

	l.mu.Lock()
	{
		for i, block := range blocks {
			if i < len(l.blocks) {
				if bytes.Equal(l.blocks[i].Hash, block.Hash) {
					continue
				}
				l.ev("ledger: Adopt: STOPPED: height[%d]: blk[%s]: differs from local blk[%s]", i+1, block, l.blocks[i])
				break
			}

			if err := l.checkStructure(block); err != nil {
				l.ev("ledger: Adopt: STOPPED: height[%d]: blk[%s]: %s", i+1, block, err)
				break
			}

			l.push(block)
			appended = append(appended, block)
		}

		if persist && len(appended) > 0 {
			l.persist()
		}
	}
	l.mu.Unlock()

	if l.pool != nil {
		for _, block := range appended {
			l.pool.RemoveAll(block.Trans)
		}
	}

	l.ev("ledger: Adopt: appended[%d]: height[%d]", len(appended), l.Length())

	return len(appended)
}

// checkStructure runs every check except pool membership.
func (l *Ledger) checkStructure(block database.Block) error {
	checks := []func(database.Block) error{
		l.checkLink,
		l.checkMerkleRoot,
		l.checkHash,
		l.checkSize,
		l.checkDifficulty,
	}

	for _, check := range checks {
		if err := check(block); err != nil {
			return err
		}
	}

	return nil
}

// checkLink makes sure the block extends the latest block. The caller must
// hold the lock.
func (l *Ledger) checkLink(block database.Block) error {
	if len(l.blocks) == 0 {
		if len(block.PrevBlockHash) != 0 {
			return fmt.Errorf("first block can't have a previous block hash, got %s", hexutil.Encode(block.PrevBlockHash))
		}
		return nil
	}

	latest := l.blocks[len(l.blocks)-1]
	if !bytes.Equal(block.PrevBlockHash, latest.Hash) {
		return fmt.Errorf("previous block hash doesn't match our latest block, got %s, exp %s", hexutil.Encode(block.PrevBlockHash), latest.ID())
	}

	return nil
}

func (l *Ledger) checkMerkleRoot(block database.Block) error {
	root, err := block.CalculateMerkleRoot()
	if err != nil {
		return fmt.Errorf("%w: merkle root: %s", signature.ErrCrypto, err)
	}

	if !bytes.Equal(root, block.MerkleRoot) {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", hexutil.Encode(block.MerkleRoot), hexutil.Encode(root))
	}

	return nil
}

func (l *Ledger) checkHash(block database.Block) error {
	hash := block.CalculateHash()
	if !bytes.Equal(hash, block.Hash) {
		return fmt.Errorf("block hash does not match content, got %s, exp %s", block.ID(), hexutil.Encode(hash))
	}

	return nil
}

func (l *Ledger) checkSize(block database.Block) error {
	if len(block.Trans) > int(l.transPerBlock) {
		return fmt.Errorf("block has too many transactions, got %d, max %d", len(block.Trans), l.transPerBlock)
	}

	return nil
}

func (l *Ledger) checkDifficulty(block database.Block) error {
	if !database.IsHashSolved(l.difficulty, block.Hash) {
		return fmt.Errorf("block hash has %d leading zero bits, need %d", database.LeadingZeroBits(block.Hash), l.difficulty)
	}

	return nil
}

// push appends the block and indexes its transactions. The caller must hold
// the lock.
func (l *Ledger) push(block database.Block) {
	l.blocks = append(l.blocks, block)
	for _, tx := range block.Trans {
		l.mined[tx.ID()] = struct{}{}
	}
}

// persist writes the chain. A failure is logged and the in memory chain is
// kept. The caller must hold the lock.
func (l *Ledger) persist() {
	if l.saver == nil {
		return
	}

	if err := l.saver.SaveBlocks(l.blocks); err != nil {
		l.ev("ledger: persist: ERROR: %s", err)
	}
}
