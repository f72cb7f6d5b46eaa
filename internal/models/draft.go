// ABOUTME: Draft model for the single in-progress recipe form snapshot.
// ABOUTME: Drafts live outside the recipe collection and never show in listings.

package models

import (
	"fmt"
	"time"
)

// DraftIDPrefix marks drafts of recipes that have not been saved yet.
const DraftIDPrefix = "draft_"

type Draft struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Rating       int       `json:"rating"`
	Instructions string    `json:"instructions"`
	Notes        string    `json:"notes"`
	Images       []string  `json:"images"`
	IsDraft      bool      `json:"isDraft"`
	LastModified time.Time `json:"lastModified"`
}

// NewDraft snapshots form values. editingID is empty for a new recipe.
func NewDraft(editingID, title, date string, rating int, instructions, notes string, images []string) Draft {
	now := Now()
	id := editingID
	if id == "" {
		id = fmt.Sprintf("%s%d", DraftIDPrefix, now.UnixMilli())
	}
	imgs := make([]string, len(images))
	copy(imgs, images)
	return Draft{
		ID:           id,
		Title:        title,
		Date:         date,
		Rating:       rating,
		Instructions: instructions,
		Notes:        notes,
		Images:       imgs,
		IsDraft:      true,
		LastModified: now,
	}
}

// IsNew reports whether the draft belongs to a recipe that was never saved.
func (d Draft) IsNew() bool {
	return len(d.ID) >= len(DraftIDPrefix) && d.ID[:len(DraftIDPrefix)] == DraftIDPrefix
}

// ToRecipe turns a recovered draft back into an unsaved recipe.
// New drafts get a fresh recipe ID; edit drafts keep the recipe they belong to.
func (d Draft) ToRecipe() Recipe {
	id := d.ID
	if d.IsNew() {
		id = NewID()
	}
	imgs := make([]string, len(d.Images))
	copy(imgs, d.Images)
	return Recipe{
		ID:           id,
		Title:        d.Title,
		Date:         d.Date,
		Rating:       d.Rating,
		Instructions: d.Instructions,
		Notes:        d.Notes,
		Images:       imgs,
	}
}
