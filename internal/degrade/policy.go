// ABOUTME: Storage-full recovery: retry a recipe save with fewer images.
// ABOUTME: Asks for confirmation once, then walks a fixed ladder of reductions.

package degrade

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/models"
	"github.com/harper/cookbook/internal/store"
)

// ConfirmMessage is shown before any image is dropped.
const ConfirmMessage = "Storage is full. Save the recipe with fewer images? Only the first image will be kept."

var (
	ErrDeclined  = errors.New("reduced save declined")
	ErrExhausted = errors.New("recipe could not be saved even without images; delete some old recipes")
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

var (
	// AlwaysConfirm accepts every reduction.
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	// NeverConfirm declines every reduction.
	NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
)

// Saver persists one recipe. *store.Store satisfies it.
type Saver interface {
	Upsert(ctx context.Context, r models.Recipe) (models.Recipe, error)
}

// Rung is one step of image reduction.
type Rung int

const (
	RungFull Rung = iota
	RungFirstImage
	RungNoImages
)

// Ladder is the order reductions are tried in after a storage-full error.
var Ladder = []Rung{RungFirstImage, RungNoImages}

func (r Rung) String() string {
	switch r {
	case RungFull:
		return "full"
	case RungFirstImage:
		return "first-image"
	case RungNoImages:
		return "no-images"
	}
	return fmt.Sprintf("rung(%d)", int(r))
}

// Apply returns a copy of rec reduced to this rung.
func (r Rung) Apply(rec models.Recipe) models.Recipe {
	switch r {
	case RungFirstImage:
		if len(rec.Images) > 0 {
			return rec.WithImages(rec.Images[:1])
		}
		return rec.WithImages(nil)
	case RungNoImages:
		return rec.WithImages(nil)
	}
	return rec.Clone()
}

// Outcome reports how a recipe ended up being saved.
type Outcome struct {
	Recipe   models.Recipe
	Rung     Rung
	Attempts int
	Declined bool
}

// Reduced reports whether images were dropped to make the save fit.
func (o *Outcome) Reduced() bool {
	return o.Rung != RungFull
}

type Policy struct {
	saver   Saver
	confirm Confirmer
	log     *logger.Logger
}

// New returns a policy. A nil confirmer declines; a nil logger discards.
func New(saver Saver, confirm Confirmer, log *logger.Logger) *Policy {
	if confirm == nil {
		confirm = NeverConfirm
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Policy{saver: saver, confirm: confirm, log: log.Component("degrade")}
}

// Save attempts a full save and falls back to DegradeAndRetry when storage
// is full. Any other error is returned unchanged.
func (p *Policy) Save(ctx context.Context, rec models.Recipe) (*Outcome, error) {
	rec = withID(rec)

	saved, err := p.saver.Upsert(ctx, rec.Clone())
	if err == nil {
		return &Outcome{Recipe: saved, Rung: RungFull, Attempts: 1}, nil
	}
	if !store.IsStorageFull(err) {
		return nil, err
	}

	p.log.Warn().Str("recipe_id", rec.ID).Int("images", len(rec.Images)).Msg("storage full on save")
	out, err := p.DegradeAndRetry(ctx, rec)
	if out != nil {
		out.Attempts++
	}
	return out, err
}

// DegradeAndRetry asks for confirmation, then tries each Ladder rung as a
// fresh save, stopping at the first that fits. rec itself is never changed.
func (p *Policy) DegradeAndRetry(ctx context.Context, rec models.Recipe) (*Outcome, error) {
	rec = withID(rec)

	ok, err := p.confirm.Confirm(ctx, ConfirmMessage)
	if err != nil {
		return nil, fmt.Errorf("confirm reduced save: %w", err)
	}
	if !ok {
		p.log.Info().Str("recipe_id", rec.ID).Msg("reduced save declined")
		return &Outcome{Recipe: rec.Clone(), Rung: RungFull, Declined: true}, ErrDeclined
	}

	out := &Outcome{}
	for _, rung := range Ladder {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Attempts++
		out.Rung = rung

		saved, err := p.saver.Upsert(ctx, rung.Apply(rec))
		if err == nil {
			out.Recipe = saved
			p.log.Info().Str("recipe_id", saved.ID).Stringer("rung", rung).Msg("saved with reduced images")
			return out, nil
		}
		if !store.IsStorageFull(err) {
			return out, err
		}
		p.log.Warn().Str("recipe_id", rec.ID).Stringer("rung", rung).Msg("still over quota")
	}

	out.Recipe = RungNoImages.Apply(rec)
	return out, ErrExhausted
}

// withID copies rec and assigns an ID if it has none, so every attempt
// targets the same recipe.
func withID(rec models.Recipe) models.Recipe {
	rec = rec.Clone()
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	return rec
}
