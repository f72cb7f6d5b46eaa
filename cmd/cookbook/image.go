// ABOUTME: Image command for extracting recipe photos to files.
// ABOUTME: Photos are stored inline as data URLs and decoded on the way out.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Work with recipe photos",
}

var imageGetCmd = &cobra.Command{
	Use:   "get <id-prefix> <number>",
	Short: "Save a recipe photo to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		recipe, err := recipeStore.GetByPrefix(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > len(recipe.Images) {
			return fmt.Errorf("no photo %s: recipe has %d", args[1], len(recipe.Images))
		}

		mimeType, data, err := imaging.DecodeDataURL(recipe.Images[n-1])
		if err != nil {
			return fmt.Errorf("failed to decode photo: %w", err)
		}

		if output == "" {
			output = fmt.Sprintf("%s-%d%s", ui.ShortID(recipe.ID), n, imaging.Extension(mimeType))
		}
		if err := os.WriteFile(output, data, 0600); err != nil {
			return fmt.Errorf("failed to write photo: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Saved photo %d to %s (%s)", n, output, ui.FormatBytes(int64(len(data))))))
		return nil
	},
}

func init() {
	imageGetCmd.Flags().StringP("output", "o", "", "output file")
	imageCmd.AddCommand(imageGetCmd)
	rootCmd.AddCommand(imageCmd)
}
