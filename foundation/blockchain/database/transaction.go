package database

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Tx is a signed message from an address. The text starts with the prefix
// of the contract that knows how to check it.
type Tx struct {
	Text       string        `json:"text"`
	SenderHash hexutil.Bytes `json:"sender_hash"`
	Signature  hexutil.Bytes `json:"signature"`
	TimeStamp  int64         `json:"timestamp"` // Milliseconds since the unix epoch.
	Hash       hexutil.Bytes `json:"hash"`
}

// NewTx constructs and signs a new transaction for the sender. This is how
// clients like a wallet produce transactions for the blockchain.
func NewTx(text string, sender Address, privateKey *ecdsa.PrivateKey) (Tx, error) {
	tx := Tx{
		Text:       text,
		SenderHash: bytes.Clone(sender.Hash),
		TimeStamp:  time.Now().UTC().UnixMilli(),
	}

	return tx.Sign(privateKey)
}

// Sign uses the specified private key to sign the transaction and fills in
// the signature and hash.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	sig, err := signature.Sign(tx.SignableData(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	tx.Hash = tx.CalculateHash()

	return tx, nil
}

// SignableData returns the bytes that are covered by the signature.
func (tx Tx) SignableData() []byte {
	return signature.Encode([]byte(tx.Text), tx.SenderHash, signature.Int64(tx.TimeStamp))
}

// CalculateHash returns the hash the transaction should carry.
func (tx Tx) CalculateHash() []byte {
	return signature.Hash([]byte(tx.Text), tx.SenderHash, signature.Int64(tx.TimeStamp))
}

// VerifyHash reports whether the stored hash matches the content.
func (tx Tx) VerifyHash() bool {
	return bytes.Equal(tx.Hash, tx.CalculateHash())
}

// VerifySignature reports whether the signature was produced by the owner of
// the public key over the signable data.
func (tx Tx) VerifySignature(publicKey []byte) bool {
	return signature.Verify(tx.SignableData(), tx.Signature, publicKey)
}

// ID returns the hex representation of the transaction hash. This is the key
// used when transactions are stored in maps.
func (tx Tx) ID() string {
	return hexutil.Encode(tx.Hash)
}

// SenderID returns the hex representation of the sender hash.
func (tx Tx) SenderID() string {
	return hexutil.Encode(tx.SenderHash)
}

// Equals reports whether both transactions carry the same hash.
func (tx Tx) Equals(otherTx Tx) bool {
	return bytes.Equal(tx.Hash, otherTx.Hash)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	id := tx.ID()
	if len(id) > 12 {
		id = id[:12]
	}

	text := tx.Text
	if len(text) > 24 {
		text = text[:24] + "..."
	}

	return fmt.Sprintf("%s:%q", id, text)
}
