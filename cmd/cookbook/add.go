// ABOUTME: Add command for creating new recipes.
// ABOUTME: Supports flags, an interactive form, $EDITOR instructions, and draft recovery.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/harper/cookbook/internal/models"
	"github.com/harper/cookbook/internal/store"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new recipe",
	Long: `Add a new recipe.

Fields can be given as flags. When the title is missing and you are at a
terminal, a form asks for the details. Instructions open in $EDITOR unless
given with --instructions or --instructions-file. Photos are downscaled and
compressed before saving.

Changes are saved as a draft while you work. If the save fails or you quit,
run "cookbook add --from-draft" to continue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fromDraft, _ := cmd.Flags().GetBool("from-draft")

		var form *recipeForm
		if fromDraft {
			d, err := recipeStore.LoadDraft(ctx)
			if errors.Is(err, store.ErrNoDraft) {
				return errors.New("no draft to recover")
			}
			if err != nil {
				return fmt.Errorf("failed to load draft: %w", err)
			}
			form = formFromDraft(d)
		} else {
			form = newRecipeForm(models.Recipe{Date: time.Now().Format(models.DateLayout)}, false)
		}

		form.startAutosave(ctx)
		defer form.saver.Stop()

		if len(args) == 1 {
			form.update(func(f *recipeForm) { f.title = args[0] })
		}
		if err := applyFieldFlags(cmd, form); err != nil {
			return err
		}
		images, _ := cmd.Flags().GetStringArray("image")
		if err := loadImages(ctx, form, images); err != nil {
			form.keepDraft()
			return err
		}

		if err := fillInteractively(cmd, form); err != nil {
			form.keepDraft()
			if errors.Is(err, huh.ErrUserAborted) {
				return errors.New("cancelled")
			}
			return err
		}

		verb := "Created"
		if form.editing {
			verb = "Updated"
		}
		return saveForm(ctx, cmd, form, verb)
	},
}

// fillInteractively prompts for anything still missing when at a terminal.
func fillInteractively(cmd *cobra.Command, f *recipeForm) error {
	rec := f.recipe()
	if rec.Title == "" && isInteractive() {
		if err := runDetailsForm(f); err != nil {
			return err
		}
	}

	if f.recipe().Instructions == "" && isInteractive() {
		return editInstructions(cmd.Context(), f)
	}
	return nil
}

func init() {
	addFieldFlags(addCmd)
	addCmd.Flags().Bool("from-draft", false, "continue from the saved draft")
	rootCmd.AddCommand(addCmd)
}
