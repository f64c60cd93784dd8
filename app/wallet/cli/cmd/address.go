package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, addr, err := loadAccount()
		if err != nil {
			return err
		}

		fmt.Println(addr.ID())
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Register the address of the account with the network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, addr, err := loadAccount()
		if err != nil {
			return err
		}

		return call(http.MethodPut, "/address", addr)
	},
}

func init() {
	addressCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(addressCmd)
}
