// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/minio/sha256-simd"
)

// ErrCrypto is returned when the cryptographic environment can't complete an
// operation, such as signing with a broken key. Callers can't recover from
// this by changing the input.
var ErrCrypto = errors.New("crypto failure")

// HashLength is the number of bytes produced by Hash.
const HashLength = sha256.Size

// civStamp is mixed into every signed digest. This will make it clear the
// signature was produced for the civil ledger and not some other system
// using the same keys.
var civStamp = []byte("\x19Civil Ledger Signed Message:\n32")

// =============================================================================

// Encode produces a deterministic byte representation of the parts. Every
// part is prefixed by its length so ("ab", "c") and ("a", "bc") never encode
// to the same bytes.
func Encode(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += 8 + len(p)
	}

	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(p)))
		buf = append(buf, p...)
	}

	return buf
}

// Hash returns the sha256 digest of the encoded parts.
func Hash(parts ...[]byte) []byte {
	sum := sha256.Sum256(Encode(parts...))
	return sum[:]
}

// Int64 returns the big endian bytes for the value so numbers can take part
// in hashing.
func Int64(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

// Uint64 returns the big endian bytes for the value.
func Uint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// =============================================================================

// GenerateKey produces a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %s", ErrCrypto, err)
	}

	return pk, nil
}

// PublicKeyBytes returns the uncompressed encoding of the public key. This
// is the form stored in an address.
func PublicKeyBytes(publicKey ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&publicKey)
}

// Sign uses the specified private key to sign the data.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: missing private key", ErrCrypto)
	}

	digest := stamp(data)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %s", ErrCrypto, err)
	}

	// Check the signature we just produced can be verified with the public
	// key. If not, the key itself is broken.
	if !crypto.VerifySignature(PublicKeyBytes(privateKey.PublicKey), digest, sig[:crypto.RecoveryIDOffset]) {
		return nil, fmt.Errorf("%w: produced signature does not verify", ErrCrypto)
	}

	return sig, nil
}

// Verify reports whether the signature was produced over the data by the
// owner of the public key. Malformed keys or signatures report false.
func Verify(data []byte, sig []byte, publicKey []byte) bool {
	if len(sig) != crypto.SignatureLength || sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
		return false
	}

	digest := stamp(data)

	if !crypto.VerifySignature(publicKey, digest, sig[:crypto.RecoveryIDOffset]) {
		return false
	}

	// The recovery id must lead back to the same public key.
	recovered, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return false
	}

	return bytes.Equal(recovered, publicKey)
}

// ValidPublicKey reports whether the bytes represent a secp256k1 public key.
func ValidPublicKey(publicKey []byte) bool {
	_, err := crypto.UnmarshalPubkey(publicKey)
	return err == nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with the
// civil ledger stamp embedded into the final hash.
func stamp(data []byte) []byte {
	h := sha256.Sum256(data)

	s := sha256.New()
	s.Write(civStamp)
	s.Write(h[:])

	return s.Sum(nil)
}
