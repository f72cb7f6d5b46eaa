// ABOUTME: Usage command reporting how much of the storage budget is used.

package main

import (
	"fmt"

	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show storage usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ok := recipeStore.Usage()
		if !ok {
			fmt.Println("Storage usage is not tracked for this backend.")
			return nil
		}

		n := len(recipeStore.Load(cmd.Context()))
		fmt.Printf("%d recipes\n", n)
		fmt.Print(ui.FormatUsage(u))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
