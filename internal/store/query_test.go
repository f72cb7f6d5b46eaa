// ABOUTME: Tests for recipe search, sort orders, pagination, and the draft slot.

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := New(kv.NewMemory())
	require.NoError(t, s.Save(context.Background(), []models.Recipe{
		{ID: "a", Title: "Pasta", Date: "2024-03-01", Rating: 2, Instructions: "Boil noodles", Notes: ""},
		{ID: "b", Title: "Borš", Date: "2024-05-01", Rating: 4, Instructions: "Keeda peete", Notes: "Sour cream"},
		{ID: "c", Title: "Cake", Date: "2023-12-24", Rating: 5, Instructions: "Bake", Notes: "Use pasta flour"},
	}))
	return s
}

func ids(recipes []models.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.ID
	}
	return out
}

func TestListSortOrders(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		sort SortOrder
		want []string
	}{
		{"", []string{"b", "a", "c"}},
		{SortDateDesc, []string{"b", "a", "c"}},
		{SortDateAsc, []string{"c", "a", "b"}},
		{SortRatingDesc, []string{"c", "b", "a"}},
		{SortRatingAsc, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			page := s.List(ctx, &Filter{Sort: tt.sort})
			assert.Equal(t, tt.want, ids(page.Recipes))
		})
	}
}

func TestListSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	s := seededStore(t)
	page := s.List(context.Background(), &Filter{Search: "PASTA"})

	assert.ElementsMatch(t, []string{"a", "c"}, ids(page.Recipes))
	assert.Equal(t, 2, page.Total)
}

func TestListSearchNoResults(t *testing.T) {
	s := seededStore(t)
	page := s.List(context.Background(), &Filter{Search: "sushi"})

	assert.Empty(t, page.Recipes)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	var recipes []models.Recipe
	for i := 1; i <= 14; i++ {
		recipes = append(recipes, models.Recipe{
			ID: fmt.Sprintf("r%02d", i), Title: "T", Instructions: "i",
			Date: fmt.Sprintf("2024-01-%02d", i),
		})
	}
	require.NoError(t, s.Save(ctx, recipes))

	first := s.List(ctx, nil)
	assert.Len(t, first.Recipes, DefaultPerPage)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 14, first.Total)
	assert.Equal(t, "r14", first.Recipes[0].ID)

	last := s.List(ctx, &Filter{Page: 3})
	assert.Equal(t, []string{"r02", "r01"}, ids(last.Recipes))

	clamped := s.List(ctx, &Filter{Page: 99})
	assert.Equal(t, 3, clamped.Page)

	all := s.List(ctx, &Filter{PerPage: -1})
	assert.Len(t, all.Recipes, 14)
	assert.Equal(t, 1, all.TotalPages)
}

func TestParseSortOrder(t *testing.T) {
	o, ok := ParseSortOrder("")
	assert.True(t, ok)
	assert.Equal(t, SortDateDesc, o)

	o, ok = ParseSortOrder("rating-asc")
	assert.True(t, ok)
	assert.Equal(t, SortRatingAsc, o)

	_, ok = ParseSortOrder("alphabetical")
	assert.False(t, ok)
}

func TestDraftSlot(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	_, err := s.LoadDraft(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)

	first := models.NewDraft("", "First", "2024-01-01", 1, "a", "", nil)
	second := models.NewDraft("", "Second", "2024-01-01", 2, "b", "", nil)
	require.NoError(t, s.SaveDraft(ctx, first))
	require.NoError(t, s.SaveDraft(ctx, second))

	got, err := s.LoadDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title, "only the latest snapshot survives")
	assert.True(t, got.IsDraft)

	for _, r := range s.Load(ctx) {
		assert.NotEqual(t, got.ID, r.ID, "drafts never appear in the collection")
	}

	require.NoError(t, s.ClearDraft(ctx))
	_, err = s.LoadDraft(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.NoError(t, s.ClearDraft(ctx))
}

func TestSaveDraftStorageFull(t *testing.T) {
	q, err := kv.NewQuota(kv.NewMemory(), 10)
	require.NoError(t, err)
	s := New(q)

	err = s.SaveDraft(context.Background(), models.NewDraft("", "Title", "2024-01-01", 0, "x", "", nil))
	assert.True(t, IsStorageFull(err))
}
