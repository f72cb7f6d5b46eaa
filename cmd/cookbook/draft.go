// ABOUTME: Draft commands for inspecting and discarding the saved draft.
// ABOUTME: Recovery itself happens through "cookbook add --from-draft".

package main

import (
	"errors"
	"fmt"

	"github.com/harper/cookbook/internal/store"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage the unsaved recipe draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := recipeStore.LoadDraft(cmd.Context())
		if errors.Is(err, store.ErrNoDraft) {
			fmt.Println("No draft saved.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load draft: %w", err)
		}

		kind := "new recipe"
		if !d.IsNew() {
			kind = "edit of " + ui.ShortID(d.ID)
		}
		fmt.Printf("Draft (%s), last saved %s\n", kind, d.LastModified.Local().Format("2006-01-02 15:04"))

		r := draftRecipe(d)
		fmt.Print(ui.FormatRecipeHeader(r))
		fmt.Print(ui.RecipeMarkdown(r))
		fmt.Println()
		fmt.Println("Run \"cookbook add --from-draft\" to continue editing.")
		return nil
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := recipeStore.ClearDraft(cmd.Context()); err != nil {
			return storeFailure("failed to clear draft", err)
		}
		fmt.Println(ui.Success("Draft discarded"))
		return nil
	},
}

func init() {
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftClearCmd)
	rootCmd.AddCommand(draftCmd)
}
