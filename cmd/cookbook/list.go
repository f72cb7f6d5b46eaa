// ABOUTME: List command for browsing recipes.
// ABOUTME: Supports search, sort order, and paging with a show-more prompt.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/harper/cookbook/internal/store"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes",
	Long: `List recipes, newest first by default.

Search matches title, instructions, and notes without regard to case.
Sort orders: date-desc, date-asc, rating-desc, rating-asc.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		searchFlag, _ := cmd.Flags().GetString("search")
		sortFlag, _ := cmd.Flags().GetString("sort")
		pageFlag, _ := cmd.Flags().GetInt("page")
		allFlag, _ := cmd.Flags().GetBool("all")

		order, ok := store.ParseSortOrder(sortFlag)
		if !ok {
			return fmt.Errorf("unknown sort order %q", sortFlag)
		}

		filter := &store.Filter{Search: searchFlag, Sort: order, Page: pageFlag}
		if allFlag {
			filter.PerPage = -1
		}

		page := recipeStore.List(cmd.Context(), filter)
		if page.Total == 0 {
			if searchFlag != "" {
				fmt.Println("No recipes match your search.")
			} else {
				fmt.Println("No recipes yet. Add one with \"cookbook add\".")
			}
			return nil
		}

		reader := bufio.NewReader(os.Stdin)
		for {
			for _, r := range page.Recipes {
				fmt.Print(ui.FormatRecipeListItem(r))
			}
			fmt.Print(ui.FormatPagination(page.Page, page.TotalPages, page.Total))

			if page.Page >= page.TotalPages || !isInteractive() {
				return nil
			}

			fmt.Print(ui.FormatShowMorePrompt(page.Page+1, page.TotalPages))
			response, err := reader.ReadString('\n')
			if err != nil {
				return nil //nolint:nilerr // Intentional: silently exit on stdin issues
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return nil
			}

			filter.Page = page.Page + 1
			page = recipeStore.List(cmd.Context(), filter)
			fmt.Println()
		}
	},
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "search query")
	listCmd.Flags().String("sort", string(store.SortDateDesc), "sort order")
	listCmd.Flags().IntP("page", "p", 1, "page number")
	listCmd.Flags().BoolP("all", "a", false, "show every recipe on one page")
	rootCmd.AddCommand(listCmd)
}
