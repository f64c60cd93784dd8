package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var minerCmd = &cobra.Command{
	Use:       "miner start|stop",
	Short:     "Start or stop the miner of the node",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"start", "stop"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodPost, "/miner/"+args[0], nil)
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the blocks of the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodGet, "/blocks", nil)
	},
}

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Print the transactions waiting to be mined",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodGet, "/transactions", nil)
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts [ID]",
	Short: "Print the addresses registered with the node",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/accounts"
		if len(args) == 1 {
			path += "/" + args[0]
		}
		return call(http.MethodGet, path, nil)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(http.MethodGet, "/status", nil)
	},
}

func init() {
	rootCmd.AddCommand(minerCmd, chainCmd, poolCmd, accountsCmd, statusCmd)
}
