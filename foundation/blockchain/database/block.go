package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/merkle"
	"github.com/civledger/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block represents a group of transactions batched together. The first block
// of a chain carries no previous block hash.
type Block struct {
	PrevBlockHash hexutil.Bytes `json:"prev_block_hash,omitempty"`
	Trans         []Tx          `json:"transactions"`
	MerkleRoot    hexutil.Bytes `json:"merkle_root"`
	Nonce         uint64        `json:"nonce"`
	TimeStamp     int64         `json:"timestamp"` // Milliseconds since the unix epoch.
	Hash          hexutil.Bytes `json:"hash"`
}

// NewBlock constructs a block for the transactions that still needs a nonce
// to be found. The hash is calculated for the zero nonce.
func NewBlock(prevBlockHash []byte, trans []Tx) (Block, error) {
	root, err := CalculateMerkleRoot(trans)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		PrevBlockHash: bytes.Clone(prevBlockHash),
		Trans:         append([]Tx(nil), trans...),
		MerkleRoot:    root,
		TimeStamp:     time.Now().UTC().UnixMilli(),
	}
	b.Hash = b.CalculateHash()

	return b, nil
}

// CalculateHash returns the hash the block should carry. Only the header
// fields take part since the transactions are bound by the merkle root.
func (b Block) CalculateHash() []byte {
	return signature.Hash(b.PrevBlockHash, b.MerkleRoot, signature.Int64(b.TimeStamp), signature.Uint64(b.Nonce))
}

// CalculateMerkleRoot returns the merkle root for the block's transactions.
func (b Block) CalculateMerkleRoot() ([]byte, error) {
	return CalculateMerkleRoot(b.Trans)
}

// ID returns the hex representation of the block hash.
func (b Block) ID() string {
	return hexutil.Encode(b.Hash)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	id := b.ID()
	if len(id) > 12 {
		id = id[:12]
	}

	return fmt.Sprintf("%s:txs[%d]:nonce[%d]", id, len(b.Trans), b.Nonce)
}

// =============================================================================

// txLeaf adapts a stored transaction hash to the merkle Hashable interface.
type txLeaf []byte

// Hash implements the merkle Hashable interface.
func (l txLeaf) Hash() ([]byte, error) {
	return l, nil
}

// Equals implements the merkle Hashable interface.
func (l txLeaf) Equals(other txLeaf) bool {
	return bytes.Equal(l, other)
}

// CalculateMerkleRoot computes the merkle root over the ordered hashes the
// transactions carry. A block without transactions has an empty root.
func CalculateMerkleRoot(trans []Tx) ([]byte, error) {
	if len(trans) == 0 {
		return []byte{}, nil
	}

	leafs := make([]txLeaf, len(trans))
	for i, tx := range trans {
		leafs[i] = txLeaf(tx.Hash)
	}

	tree, err := merkle.NewTree(leafs)
	if err != nil {
		return nil, err
	}

	return tree.MerkleRoot, nil
}

// TxProof shows a transaction is part of a block. Anyone holding the block
// hash and merkle root can check it without the other transactions.
type TxProof struct {
	BlockHash  hexutil.Bytes   `json:"block_hash"`
	Height     int             `json:"height"`
	MerkleRoot hexutil.Bytes   `json:"merkle_root"`
	TxHash     hexutil.Bytes   `json:"tx_hash"`
	Hashes     []hexutil.Bytes `json:"hashes"`
	Order      []int64         `json:"order"`
}

// Verify reports whether the proof leads from the transaction hash to the
// merkle root.
func (p TxProof) Verify() bool {
	proof := make([][]byte, len(p.Hashes))
	for i, h := range p.Hashes {
		proof[i] = h
	}

	return merkle.VerifyProof(p.TxHash, proof, p.Order, p.MerkleRoot)
}

// Proof builds the proof that the transaction with the hash is part of the
// block. The height is left for the caller to fill in.
func (b Block) Proof(txHash []byte) (TxProof, error) {
	if len(b.Trans) == 0 {
		return TxProof{}, merkle.ErrNotFound
	}

	leafs := make([]txLeaf, len(b.Trans))
	for i, tx := range b.Trans {
		leafs[i] = txLeaf(tx.Hash)
	}

	tree, err := merkle.NewTree(leafs)
	if err != nil {
		return TxProof{}, err
	}

	proof, order, err := tree.Proof(txLeaf(txHash))
	if err != nil {
		return TxProof{}, err
	}

	hashes := make([]hexutil.Bytes, len(proof))
	for i, h := range proof {
		hashes[i] = h
	}

	p := TxProof{
		BlockHash:  bytes.Clone(b.Hash),
		MerkleRoot: bytes.Clone(b.MerkleRoot),
		TxHash:     bytes.Clone(txHash),
		Hashes:     hashes,
		Order:      order,
	}

	return p, nil
}

// =============================================================================

// LeadingZeroBits counts the number of zero bits at the start of the hash,
// reading bytes in order and bits from most significant to least.
func LeadingZeroBits(hash []byte) int {
	var n int
	for _, b := range hash {
		if b != 0 {
			return n + bits.LeadingZeros8(b)
		}
		n += 8
	}

	return n
}

// IsHashSolved checks the hash meets the difficulty.
func IsHashSolved(difficulty uint16, hash []byte) bool {
	return LeadingZeroBits(hash) >= int(difficulty)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlockHash []byte
	Trans         []Tx
	Difficulty    uint16
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The context is checked before every
// nonce attempt so mining can be stopped at any time.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if len(args.Trans) == 0 {
		return Block{}, errors.New("no transactions to mine")
	}

	nb, err := NewBlock(args.PrevBlockHash, args.Trans)
	if err != nil {
		return Block{}, err
	}

	ev("database: POW: MINING: started: txs[%d]: difficulty[%d]", len(nb.Trans), args.Difficulty)
	defer ev("database: POW: MINING: completed")

	var attempts uint64
	for nb.Nonce = 0; ; nb.Nonce++ {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if err := ctx.Err(); err != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", attempts)
			return Block{}, err
		}

		hash := nb.CalculateHash()
		if !IsHashSolved(args.Difficulty, hash) {
			continue
		}

		nb.Hash = hash
		ev("database: POW: MINING: SOLVED: blk[%s]: attempts[%d]", nb, attempts)

		return nb, nil
	}
}
