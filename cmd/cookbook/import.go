// ABOUTME: Import command for restoring recipes from a JSON export.
// ABOUTME: Recipes are merged by ID; existing ones are replaced.

package main

import (
	"fmt"
	"os"

	"github.com/harper/cookbook/internal/export"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import recipes from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		parsed, err := export.ParseJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse export: %w", err)
		}

		n, err := recipeStore.Import(cmd.Context(), parsed.Recipes)
		if err != nil {
			return storeFailure("failed to import recipes", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Imported %d recipes", n)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
