// ABOUTME: Recipe model representing one cooking entry with photos.
// ABOUTME: Provides constructor, validation, and copy helpers for the recipe lifecycle.

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxImagesPerRecipe is the number of photos a recipe may carry.
	MaxImagesPerRecipe = 3
	// MaxRating is the top of the star scale.
	MaxRating = 5
	// DateLayout is the calendar date format used for Recipe.Date.
	DateLayout = "2006-01-02"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrTitleRequired        = fmt.Errorf("%w: title is required", ErrValidation)
	ErrDateRequired         = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	ErrInstructionsRequired = fmt.Errorf("%w: instructions are required", ErrValidation)
	ErrRatingOutOfRange     = fmt.Errorf("%w: rating must be between 0 and %d", ErrValidation, MaxRating)
	ErrTooManyImages        = fmt.Errorf("%w: at most %d images per recipe", ErrValidation, MaxImagesPerRecipe)
)

type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Rating       int       `json:"rating"`
	Instructions string    `json:"instructions"`
	Notes        string    `json:"notes"`
	Images       []string  `json:"images"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
}

// Now returns the current instant at the precision stored on disk.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewID returns a random recipe ID. Random IDs keep short prefixes unique.
func NewID() string {
	return uuid.New().String()
}

func NewRecipe(title, date string, rating int, instructions, notes string, images []string) *Recipe {
	now := Now()
	if images == nil {
		images = []string{}
	}
	return &Recipe{
		ID:           NewID(),
		Title:        strings.TrimSpace(title),
		Date:         date,
		Rating:       rating,
		Instructions: strings.TrimSpace(instructions),
		Notes:        strings.TrimSpace(notes),
		Images:       images,
		Created:      now,
		Modified:     now,
	}
}

func (r *Recipe) Touch() {
	r.Modified = Now()
}

// Validate checks the fields a recipe needs before it can be saved.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.Date == "" {
		return ErrDateRequired
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.Instructions) == "" {
		return ErrInstructionsRequired
	}
	if r.Rating < 0 || r.Rating > MaxRating {
		return ErrRatingOutOfRange
	}
	if len(r.Images) > MaxImagesPerRecipe {
		return ErrTooManyImages
	}
	return nil
}

// Clone returns a deep copy so callers can mutate images freely.
func (r Recipe) Clone() Recipe {
	c := r
	c.Images = make([]string, len(r.Images))
	copy(c.Images, r.Images)
	return c
}

// WithImages returns a copy of the recipe carrying the given images.
func (r Recipe) WithImages(images []string) Recipe {
	c := r.Clone()
	c.Images = make([]string, len(images))
	copy(c.Images, images)
	return c
}

// ParsedDate returns the recipe date, or the zero time if it does not parse.
func (r Recipe) ParsedDate() time.Time {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
