// ABOUTME: Search, sort, and pagination over the recipe collection.
// ABOUTME: Listing is computed on a fresh load and never touches storage.

package store

import (
	"context"
	"sort"
	"strings"

	"github.com/harper/cookbook/internal/models"
)

// DefaultPerPage is the number of recipe cards per page.
const DefaultPerPage = 6

// SortOrder selects how List orders recipes.
type SortOrder string

const (
	SortDateDesc   SortOrder = "date-desc"
	SortDateAsc    SortOrder = "date-asc"
	SortRatingDesc SortOrder = "rating-desc"
	SortRatingAsc  SortOrder = "rating-asc"
)

// SortOrders lists the accepted sort orders, default first.
var SortOrders = []SortOrder{SortDateDesc, SortDateAsc, SortRatingDesc, SortRatingAsc}

// Filter defines criteria for listing recipes.
type Filter struct {
	Search  string    // case-insensitive match on title, instructions, notes
	Sort    SortOrder // defaults to date-desc
	Page    int       // 1-based; clamped into range
	PerPage int       // 0 = DefaultPerPage, < 0 = everything on one page
}

// Page is one page of listing results.
type Page struct {
	Recipes    []models.Recipe
	Page       int
	TotalPages int
	Total      int
}

// List returns the recipes matching the filter, sorted and paginated.
func (s *Store) List(ctx context.Context, filter *Filter) Page {
	if filter == nil {
		filter = &Filter{}
	}

	var matched []models.Recipe
	for _, r := range s.Load(ctx) {
		if matchesSearch(r, filter.Search) {
			matched = append(matched, r)
		}
	}

	sortRecipes(matched, filter.Sort)

	perPage := filter.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if perPage < 0 {
		perPage = len(matched)
	}

	total := len(matched)
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Recipes:    matched[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
}

// ParseSortOrder validates a sort order name; empty means the default.
func ParseSortOrder(name string) (SortOrder, bool) {
	if name == "" {
		return SortDateDesc, true
	}
	for _, o := range SortOrders {
		if string(o) == name {
			return o, true
		}
	}
	return "", false
}

func matchesSearch(r models.Recipe, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Instructions), q) ||
		strings.Contains(strings.ToLower(r.Notes), q)
}

func sortRecipes(recipes []models.Recipe, order SortOrder) {
	var less func(a, b models.Recipe) bool
	switch order {
	case SortDateAsc:
		less = func(a, b models.Recipe) bool { return a.ParsedDate().Before(b.ParsedDate()) }
	case SortRatingDesc:
		less = func(a, b models.Recipe) bool { return a.Rating > b.Rating }
	case SortRatingAsc:
		less = func(a, b models.Recipe) bool { return a.Rating < b.Rating }
	default:
		less = func(a, b models.Recipe) bool { return a.ParsedDate().After(b.ParsedDate()) }
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		return less(recipes[i], recipes[j])
	})
}
