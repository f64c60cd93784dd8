// Package cmd contains the civil registry client commands.
package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/civledger/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	accountName string
	accountPath string
	nodeURL     string
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:          "civ",
	Short:        "Client for the civil registry ledger",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

// loadAccount reads the private key of the selected account.
func loadAccount() (*ecdsa.PrivateKey, database.Address, error) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return nil, database.Address{}, fmt.Errorf("loading key: %w", err)
	}

	return privateKey, database.NewAddress(privateKey.PublicKey), nil
}

// =============================================================================

var client = http.Client{Timeout: 10 * time.Second}

// call sends the request to the node and prints the response.
func call(method string, path string, dataSend any) error {
	data, err := fetch(method, path, dataSend)
	if data != nil {
		printJSON(data)
	}

	return err
}

// fetch sends the request to the node and returns the response body. An
// error status still returns the body so it can be shown.
func fetch(method string, path string, dataSend any) ([]byte, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(nodeURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return data, fmt.Errorf("node answered %s", resp.Status)
	}

	return data, nil
}

// printJSON indents the document when a person is reading it.
func printJSON(data []byte) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		os.Stdout.Write(data)
		fmt.Println()
		return
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		os.Stdout.Write(data)
		fmt.Println()
		return
	}

	fmt.Println(out.String())
}
