// ABOUTME: Recipe-level operations built on Load and Save.
// ABOUTME: Each mutation reloads the collection fresh before writing it back.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/cookbook/internal/models"
)

// Upsert replaces the recipe with the same ID or appends it, then saves the
// collection. Created is kept from the stored copy; Modified is always bumped.
// The stamped recipe is returned even when the save fails.
func (s *Store) Upsert(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	recipes := s.Load(ctx)
	now := s.now()

	r = r.Clone()
	if r.ID == "" {
		r.ID = models.NewID()
	}

	if i := indexOf(recipes, r.ID); i >= 0 {
		r.Created = recipes[i].Created
		if r.Created.IsZero() {
			r.Created = now
		}
		r.Modified = now
		recipes[i] = r
	} else {
		r.Created = now
		r.Modified = now
		recipes = append(recipes, r)
	}

	if err := s.Save(ctx, recipes); err != nil {
		return r, err
	}
	return r, nil
}

// Import merges recipes into the collection in one save, replacing any with
// a matching ID. Stored timestamps are kept; missing ones are stamped now.
// One invalid recipe rejects the whole batch before anything is written.
func (s *Store) Import(ctx context.Context, incoming []models.Recipe) (int, error) {
	for i := range incoming {
		if err := incoming[i].Validate(); err != nil {
			return 0, fmt.Errorf("import recipe %d (%q): %w", i+1, incoming[i].Title, err)
		}
	}

	recipes := s.Load(ctx)
	now := s.now()

	for _, r := range incoming {
		r = r.Clone()
		if r.ID == "" {
			r.ID = models.NewID()
		}
		if r.Created.IsZero() {
			r.Created = now
		}
		if r.Modified.IsZero() {
			r.Modified = r.Created
		}
		if i := indexOf(recipes, r.ID); i >= 0 {
			recipes[i] = r
		} else {
			recipes = append(recipes, r)
		}
	}

	if err := s.Save(ctx, recipes); err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// Delete removes the recipe with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	recipes := s.Load(ctx)
	i := indexOf(recipes, id)
	if i < 0 {
		return ErrRecipeNotFound
	}
	recipes = append(recipes[:i], recipes[i+1:]...)
	return s.Save(ctx, recipes)
}

// Get returns the recipe with exactly this ID.
func (s *Store) Get(ctx context.Context, id string) (models.Recipe, error) {
	recipes := s.Load(ctx)
	if i := indexOf(recipes, id); i >= 0 {
		return recipes[i], nil
	}
	return models.Recipe{}, ErrRecipeNotFound
}

// GetByPrefix finds a recipe by exact ID, or by an ID prefix of at least
// 6 characters.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) (models.Recipe, error) {
	recipes := s.Load(ctx)
	if i := indexOf(recipes, prefix); i >= 0 {
		return recipes[i], nil
	}
	if len(prefix) < 6 {
		return models.Recipe{}, ErrPrefixTooShort
	}

	var matches []models.Recipe
	for _, r := range recipes {
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r)
		}
	}

	if len(matches) == 0 {
		return models.Recipe{}, ErrRecipeNotFound
	}
	if len(matches) > 1 {
		return models.Recipe{}, fmt.Errorf("%w: %d matches", ErrAmbiguousPrefix, len(matches))
	}
	return matches[0], nil
}

func indexOf(recipes []models.Recipe, id string) int {
	for i, r := range recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}
