// ABOUTME: Remove command for deleting recipes.
// ABOUTME: Includes confirmation prompt before deletion.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id-prefix>",
	Short: "Remove a recipe",
	Long:  `Delete a recipe and its photos.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		recipe, err := recipeStore.GetByPrefix(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		if !force {
			fmt.Printf("Delete recipe %q (%s)? [y/N] ", recipe.Title, ui.ShortID(recipe.ID))
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := recipeStore.Delete(cmd.Context(), recipe.ID); err != nil {
			return storeFailure("failed to delete recipe", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Deleted recipe %s", ui.ShortID(recipe.ID))))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	rootCmd.AddCommand(rmCmd)
}
