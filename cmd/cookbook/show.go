// ABOUTME: Show command for displaying a recipe.
// ABOUTME: Renders instructions and notes as markdown with glamour.

package main

import (
	"fmt"

	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		recipe, err := recipeStore.GetByPrefix(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		fmt.Print(ui.FormatRecipeHeader(recipe))

		content := ui.RecipeMarkdown(recipe)
		if raw {
			fmt.Print(content)
			return nil
		}

		rendered, err := ui.FormatMarkdown(content)
		if err != nil {
			fmt.Print(content)
			return nil //nolint:nilerr // Fall back to plain text
		}
		fmt.Print(rendered)

		if n := len(recipe.Images); n > 0 {
			fmt.Printf("Use \"cookbook image get %s <1-%d>\" to save a photo.\n", ui.ShortID(recipe.ID), n)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("raw", false, "print markdown without rendering")
	rootCmd.AddCommand(showCmd)
}
