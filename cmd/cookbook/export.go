// ABOUTME: Export command for backing up recipes.
// ABOUTME: Supports JSON and markdown export formats.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/harper/cookbook/internal/export"
	"github.com/harper/cookbook/internal/models"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recipes",
	Long: `Export recipes to JSON or markdown.

JSON goes to stdout unless --output is given and can be restored with
"cookbook import". Markdown writes one file per recipe into the --output
directory, with photos alongside.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")
		recipePrefix, _ := cmd.Flags().GetString("recipe")

		var recipes []models.Recipe
		if recipePrefix != "" {
			r, err := recipeStore.GetByPrefix(cmd.Context(), recipePrefix)
			if err != nil {
				return fmt.Errorf("failed to get recipe: %w", err)
			}
			recipes = append(recipes, r)
		} else {
			recipes = recipeStore.Load(cmd.Context())
		}

		switch format {
		case "json":
			return exportJSON(recipes, outputPath)
		case "md":
			return exportMarkdown(recipes, outputPath)
		default:
			return fmt.Errorf("unknown format: %s", format)
		}
	},
}

func exportJSON(recipes []models.Recipe, outputPath string) error {
	data, err := export.JSON(recipes, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Println(ui.Success(fmt.Sprintf("Exported %d recipes to %s", len(recipes), outputPath)))
	return nil
}

func exportMarkdown(recipes []models.Recipe, outputPath string) error {
	if outputPath == "" {
		outputPath = "cookbook-export"
	}

	n, err := export.WriteMarkdownDir(outputPath, recipes)
	if err != nil {
		return fmt.Errorf("failed to export markdown: %w", err)
	}
	fmt.Println(ui.Success(fmt.Sprintf("Exported %d recipes to %s", n, outputPath)))
	return nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "export format (json|md)")
	exportCmd.Flags().StringP("output", "o", "", "output file (json) or directory (md)")
	exportCmd.Flags().StringP("recipe", "r", "", "export a single recipe by ID prefix")
	rootCmd.AddCommand(exportCmd)
}
