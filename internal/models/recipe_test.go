// ABOUTME: Tests for Recipe model constructor, validation, and copies.
// ABOUTME: Validates ID generation, timestamp handling, and field rules.

package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewRecipe(t *testing.T) {
	r := NewRecipe("  Borš ", "2024-05-01", 4, "Keeda...", "", nil)

	if r.ID == "" {
		t.Error("expected ID to be generated")
	}
	if r.Title != "Borš" {
		t.Errorf("expected trimmed title %q, got %q", "Borš", r.Title)
	}
	if r.Images == nil {
		t.Error("expected images to be an empty slice, not nil")
	}
	if !r.Created.Equal(r.Modified) {
		t.Errorf("expected created == modified, got %v and %v", r.Created, r.Modified)
	}
}

func TestNewRecipeIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRecipe("t", "2024-01-01", 0, "i", "", nil).ID
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestRecipeTouch(t *testing.T) {
	r := NewRecipe("Test", "2024-01-01", 3, "Cook it", "", nil)
	original := r.Modified

	time.Sleep(2 * time.Millisecond)
	r.Touch()

	if !r.Modified.After(original) {
		t.Error("expected Modified to be updated")
	}
}

func TestRecipeValidate(t *testing.T) {
	valid := func() *Recipe {
		return NewRecipe("Soup", "2024-05-01", 3, "Boil water", "", nil)
	}

	tests := []struct {
		name   string
		mutate func(r *Recipe)
		want   error
	}{
		{"valid", func(r *Recipe) {}, nil},
		{"missing title", func(r *Recipe) { r.Title = "  " }, ErrTitleRequired},
		{"missing date", func(r *Recipe) { r.Date = "" }, ErrDateRequired},
		{"bad date", func(r *Recipe) { r.Date = "01/05/2024" }, ErrInvalidDate},
		{"missing instructions", func(r *Recipe) { r.Instructions = "" }, ErrInstructionsRequired},
		{"negative rating", func(r *Recipe) { r.Rating = -1 }, ErrRatingOutOfRange},
		{"rating too high", func(r *Recipe) { r.Rating = 6 }, ErrRatingOutOfRange},
		{"too many images", func(r *Recipe) { r.Images = []string{"a", "b", "c", "d"} }, ErrTooManyImages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := r.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.want != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected error to wrap ErrValidation, got %v", err)
			}
		})
	}
}

func TestRecipeCloneIsDeep(t *testing.T) {
	r := NewRecipe("Test", "2024-01-01", 1, "x", "", []string{"img1", "img2"})
	c := r.Clone()
	c.Images[0] = "changed"

	if r.Images[0] != "img1" {
		t.Error("expected clone to not share the images slice")
	}
}

func TestRecipeWithImages(t *testing.T) {
	r := NewRecipe("Test", "2024-01-01", 1, "x", "", []string{"a", "b", "c"})
	c := r.WithImages(r.Images[:1])

	if len(c.Images) != 1 || c.Images[0] != "a" {
		t.Errorf("expected [a], got %v", c.Images)
	}
	if len(r.Images) != 3 {
		t.Errorf("expected original to keep 3 images, got %d", len(r.Images))
	}
}

func TestParsedDate(t *testing.T) {
	r := Recipe{Date: "2024-05-01"}
	if got := r.ParsedDate(); got.Year() != 2024 || got.Month() != time.May || got.Day() != 1 {
		t.Errorf("unexpected parsed date %v", got)
	}

	r.Date = "not a date"
	if !r.ParsedDate().IsZero() {
		t.Error("expected zero time for unparseable date")
	}
}

func TestNewDraft(t *testing.T) {
	d := NewDraft("", "Title", "2024-01-01", 2, "Steps", "", []string{"img"})

	if !strings.HasPrefix(d.ID, DraftIDPrefix) {
		t.Errorf("expected draft ID prefix, got %q", d.ID)
	}
	if !d.IsDraft {
		t.Error("expected IsDraft to be set")
	}
	if d.LastModified.IsZero() {
		t.Error("expected LastModified to be set")
	}
	if !d.IsNew() {
		t.Error("expected draft without editing ID to be new")
	}
}

func TestDraftToRecipe(t *testing.T) {
	edit := NewDraft("123", "Title", "2024-01-01", 2, "Steps", "n", nil)
	if got := edit.ToRecipe(); got.ID != "123" {
		t.Errorf("expected edit draft to keep ID 123, got %q", got.ID)
	}

	fresh := NewDraft("", "Title", "2024-01-01", 2, "Steps", "n", nil)
	r := fresh.ToRecipe()
	if strings.HasPrefix(r.ID, DraftIDPrefix) || r.ID == "" {
		t.Errorf("expected fresh recipe ID, got %q", r.ID)
	}
	if r.Title != "Title" || r.Rating != 2 {
		t.Errorf("expected fields to carry over, got %+v", r)
	}
}
