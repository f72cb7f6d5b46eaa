// ABOUTME: Concurrent normalization of a recipe's photo uploads.
// ABOUTME: Every upload gets a result in input order; one bad file never stops the rest.

package imaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/harper/cookbook/internal/models"
	"golang.org/x/sync/errgroup"
)

// Upload is one raw file selected for a recipe.
type Upload struct {
	Name string
	Data []byte
}

// Result is the outcome for one upload. Exactly one of Image or Err is set.
type Result struct {
	Name  string
	Image string
	Err   error
}

// WithProgress returns a copy of n that reports batch progress to fn.
func (n *Normalizer) WithProgress(fn func(done, total int)) *Normalizer {
	c := *n
	c.opts.Progress = fn
	return &c
}

// NormalizeBatch normalizes uploads concurrently. existing is the number of
// images the recipe already carries; going over the per-recipe cap fails
// before any work starts. It returns once every upload has finished.
func (n *Normalizer) NormalizeBatch(ctx context.Context, uploads []Upload, existing int) ([]Result, error) {
	if existing+len(uploads) > models.MaxImagesPerRecipe {
		return nil, fmt.Errorf("%w: %d existing + %d new", ErrTooManyImages, existing, len(uploads))
	}

	results := make([]Result, len(uploads))
	total := len(uploads)

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	if n.opts.Concurrency > 0 {
		g.SetLimit(n.opts.Concurrency)
	}

	for i, u := range uploads {
		g.Go(func() error {
			img, err := n.Normalize(gctx, u.Data)
			results[i] = Result{Name: u.Name, Image: img, Err: err}
			if err != nil {
				n.log.Warn().Err(err).Str("file", u.Name).Msg("image skipped")
			}

			mu.Lock()
			done++
			d := done
			if n.opts.Progress != nil {
				n.opts.Progress(d, total)
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Images returns the successful images from results, in order.
func Images(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Image)
		}
	}
	return out
}
