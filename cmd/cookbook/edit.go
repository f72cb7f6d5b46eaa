// ABOUTME: Edit command for updating existing recipes.
// ABOUTME: Changes fields from flags, or opens the form and $EDITOR when none are given.

package main

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/harper/cookbook/internal/models"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id-prefix>",
	Short: "Edit a recipe",
	Long: `Edit a recipe's fields, photos, or instructions.

With no flags, a form opens with the current values followed by $EDITOR
for the instructions. Use --image to add photos and --remove-image with a
1-based photo number to drop one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		original, err := recipeStore.GetByPrefix(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		form := newRecipeForm(original, true)
		form.startAutosave(ctx)
		defer form.saver.Stop()

		if err := applyFieldFlags(cmd, form); err != nil {
			return err
		}
		if err := removeImages(cmd, form); err != nil {
			return err
		}
		images, _ := cmd.Flags().GetStringArray("image")
		if err := loadImages(ctx, form, images); err != nil {
			form.keepDraft()
			return err
		}

		if !anyFieldFlag(cmd) {
			if !isInteractive() {
				return errors.New("nothing to change: pass field flags or run at a terminal")
			}
			if err := runDetailsForm(form); err != nil {
				form.keepDraft()
				if errors.Is(err, huh.ErrUserAborted) {
					return errors.New("cancelled")
				}
				return err
			}
			if err := editInstructions(ctx, form); err != nil {
				form.keepDraft()
				return err
			}
		}

		if sameRecipe(original, form.recipe()) {
			form.saver.Stop()
			form.saver.Reset()
			fmt.Println("No changes made.")
			return nil
		}

		return saveForm(ctx, cmd, form, "Updated")
	},
}

var fieldFlags = []string{"title", "date", "rating", "instructions", "instructions-file", "notes", "image", "remove-image"}

func anyFieldFlag(cmd *cobra.Command) bool {
	for _, name := range fieldFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// removeImages drops the photos named by --remove-image.
func removeImages(cmd *cobra.Command, f *recipeForm) error {
	positions, _ := cmd.Flags().GetIntSlice("remove-image")
	if len(positions) == 0 {
		return nil
	}

	n := f.imageCount()
	drop := make([]int, 0, len(positions))
	for _, p := range positions {
		if p < 1 || p > n {
			return fmt.Errorf("no photo %d: recipe has %d", p, n)
		}
		if !slices.Contains(drop, p-1) {
			drop = append(drop, p-1)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(drop)))

	f.update(func(f *recipeForm) {
		for _, i := range drop {
			f.images = slices.Delete(f.images, i, i+1)
		}
	})
	return nil
}

func sameRecipe(a, b models.Recipe) bool {
	return a.Title == b.Title &&
		a.Date == b.Date &&
		a.Rating == b.Rating &&
		a.Instructions == b.Instructions &&
		a.Notes == b.Notes &&
		slices.Equal(a.Images, b.Images)
}

func init() {
	editCmd.Flags().StringP("title", "t", "", "new title")
	addFieldFlags(editCmd)
	editCmd.Flags().IntSlice("remove-image", nil, "photo number to remove (1-based, repeatable)")
	rootCmd.AddCommand(editCmd)
}
