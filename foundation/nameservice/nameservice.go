// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the address hashes of the local key files.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of address ids for name lookup.
type NameService struct {
	names map[string]string
}

// New constructs a name service with the addresses of the key files found
// under the root folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		names: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		addr := database.NewAddress(privateKey.PublicKey)
		ns.names[addr.ID()] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address id. The id itself is
// returned when no name is known.
func (ns *NameService) Lookup(id string) string {
	name, exists := ns.names[id]
	if !exists {
		return id
	}
	return name
}

// Copy returns a copy of the map of address ids and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.names))
	for id, name := range ns.names {
		cpy[id] = name
	}
	return cpy
}
