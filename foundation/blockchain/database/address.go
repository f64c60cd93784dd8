// Package database defines the entities that are recorded on the blockchain
// and the hashing rules that bind them together.
package database

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/civledger/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Address represents a participant who is allowed to sign transactions. The
// hash of the public key is the identity of the address.
type Address struct {
	PublicKey hexutil.Bytes `json:"public_key"`
	Hash      hexutil.Bytes `json:"hash"`
}

// NewAddress constructs an address for the specified public key.
func NewAddress(publicKey ecdsa.PublicKey) Address {
	return AddressFromBytes(signature.PublicKeyBytes(publicKey))
}

// AddressFromBytes constructs an address for the encoded public key.
func AddressFromBytes(publicKey []byte) Address {
	return Address{
		PublicKey: bytes.Clone(publicKey),
		Hash:      signature.Hash(publicKey),
	}
}

// Validate checks the public key is well formed and the hash was derived
// from it.
func (a Address) Validate() error {
	if !signature.ValidPublicKey(a.PublicKey) {
		return fmt.Errorf("address %s: invalid public key", a.ID())
	}

	if !bytes.Equal(a.Hash, signature.Hash(a.PublicKey)) {
		return fmt.Errorf("address %s: hash does not match public key", a.ID())
	}

	return nil
}

// ID returns the hex representation of the address hash. This is the key
// used when addresses are stored in maps.
func (a Address) ID() string {
	return hexutil.Encode(a.Hash)
}

// String implements the fmt.Stringer interface for logging.
func (a Address) String() string {
	id := a.ID()
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
