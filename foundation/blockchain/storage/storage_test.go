package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/civledger/ledger/foundation/blockchain/peer"
	"github.com/civledger/ledger/foundation/blockchain/storage"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func Test_RoundTrip(t *testing.T) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	require.NoError(t, err, "Should be able to load the private key.")

	addr := database.NewAddress(pk.PublicKey)

	var trans []database.Tx
	for _, text := range []string{"ACBerlin", "ASBerlin|Unter den Linden", "MSHello"} {
		tx, err := database.NewTx(text, addr, pk)
		require.NoError(t, err, "Should be able to sign a transaction.")
		trans = append(trans, tx)
	}

	block, err := database.NewBlock(nil, trans[:2])
	require.NoError(t, err, "Should be able to build a block.")

	peers := []peer.Peer{peer.New("10.0.0.1:8080"), peer.New("10.0.0.2:8080")}

	for _, kind := range []string{storage.KindMemory, storage.KindDisk, storage.KindLevelDB} {
		t.Run(kind, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), kind)

			strg, err := storage.New(kind, dbPath)
			require.NoError(t, err, "Should be able to open the storage.")

			got, err := strg.LoadBlocks()
			require.NoError(t, err, "Should be able to load from empty storage.")
			require.Empty(t, got, "Should start with an empty chain.")

			require.NoError(t, strg.SaveAddresses([]database.Address{addr}))
			require.NoError(t, strg.SaveBlocks([]database.Block{block}))
			require.NoError(t, strg.SaveTransactions(trans))
			require.NoError(t, strg.SaveTransactions(trans[2:]))
			require.NoError(t, strg.SaveNodes(peers))

			addrs, err := strg.LoadAddresses()
			require.NoError(t, err)
			require.Equal(t, []database.Address{addr}, addrs, "Should get back the addresses.")

			blocks, err := strg.LoadBlocks()
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			require.Equal(t, block.Hash, blocks[0].Hash, "Should get back the block.")
			require.Equal(t, block.CalculateHash(), blocks[0].CalculateHash(), "Should keep the block content.")
			require.Len(t, blocks[0].Trans, 2)
			require.True(t, blocks[0].Trans[1].VerifySignature(addr.PublicKey), "Should keep the transaction signatures.")

			pool, err := strg.LoadTransactions()
			require.NoError(t, err)
			require.Len(t, pool, 1, "Should replace the pool on save.")
			require.Equal(t, trans[2].Hash, pool[0].Hash)

			nodes, err := strg.LoadNodes()
			require.NoError(t, err)
			require.Equal(t, peers, nodes, "Should get back the peers in order.")

			require.NoError(t, strg.Close(), "Should be able to close the storage.")
		})
	}
}

func Test_Reopen(t *testing.T) {
	for _, kind := range []string{storage.KindDisk, storage.KindLevelDB} {
		t.Run(kind, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), kind)

			strg, err := storage.New(kind, dbPath)
			require.NoError(t, err)

			var peers []peer.Peer
			for i := 0; i < 12; i++ {
				peers = append(peers, peer.New(filepath.Join("host", string(rune('a'+i)))))
			}
			require.NoError(t, strg.SaveNodes(peers))
			require.NoError(t, strg.Close())

			strg, err = storage.New(kind, dbPath)
			require.NoError(t, err, "Should be able to reopen the storage.")
			defer strg.Close()

			nodes, err := strg.LoadNodes()
			require.NoError(t, err)
			require.Equal(t, peers, nodes, "Should survive a restart in the saved order.")
		})
	}
}

func Test_UnknownKind(t *testing.T) {
	_, err := storage.New("papyrus", t.TempDir())
	require.Error(t, err, "Should reject an unknown storage kind.")
}
