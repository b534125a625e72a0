package cmd

import (
	"fmt"

	"github.com/roffe/gobafang"
	"github.com/spf13/cobra"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "list available adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range gobafang.ListAdapters() {
			fmt.Println(a.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
