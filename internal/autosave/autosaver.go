// ABOUTME: Periodic draft autosave for the recipe form.
// ABOUTME: Writes the form snapshot to the draft slot on a ticker, only when it changed.

package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/models"
)

// DefaultInterval is how often a dirty form is written out.
const DefaultInterval = 30 * time.Second

// Source provides the current form state.
type Source interface {
	Snapshot() models.Draft
}

// SourceFunc adapts a function to Source.
type SourceFunc func() models.Draft

func (f SourceFunc) Snapshot() models.Draft {
	return f()
}

// Writer persists a draft. *store.Store satisfies it.
type Writer interface {
	SaveDraft(ctx context.Context, d models.Draft) error
}

// Autosaver tracks whether the form changed since the last successful write
// and writes it on a fixed interval.
type Autosaver struct {
	src      Source
	w        Writer
	interval time.Duration
	log      *logger.Logger

	// gen counts edits; the form is dirty while saved lags behind it.
	mu    sync.Mutex
	gen   uint64
	saved uint64

	writeMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an idle autosaver. interval <= 0 uses DefaultInterval.
func New(src Source, w Writer, interval time.Duration, log *logger.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Autosaver{src: src, w: w, interval: interval, log: log.Component("autosave")}
}

// MarkDirty records that the form changed.
func (a *Autosaver) MarkDirty() {
	a.mu.Lock()
	a.gen++
	a.mu.Unlock()
}

// Dirty reports whether there are changes not yet written.
func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen != a.saved
}

// Reset marks the form clean without writing, e.g. after the recipe itself
// was saved.
func (a *Autosaver) Reset() {
	a.mu.Lock()
	a.saved = a.gen
	a.mu.Unlock()
}

// Tick writes the draft if the form is dirty. On success the form is clean
// unless it changed again while the write was in flight; on failure it stays
// dirty so the next tick retries.
func (a *Autosaver) Tick(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	gen := a.gen
	dirty := gen != a.saved
	a.mu.Unlock()
	if !dirty {
		return nil
	}

	d := a.src.Snapshot()
	if err := a.w.SaveDraft(ctx, d); err != nil {
		a.log.Warn().Err(err).Str("draft_id", d.ID).Msg("autosave failed")
		return err
	}

	a.mu.Lock()
	if gen > a.saved {
		a.saved = gen
	}
	a.mu.Unlock()

	a.log.Debug().Str("draft_id", d.ID).Msg("draft saved")
	return nil
}

// Flush makes one best-effort write on the way out. The outcome is ignored.
func (a *Autosaver) Flush(ctx context.Context) {
	_ = a.Tick(ctx)
}

// Start stops any previous run, then ticks every interval until ctx is
// cancelled or Stop is called. Write errors are logged and otherwise ignored.
func (a *Autosaver) Start(ctx context.Context) {
	a.Stop()

	a.runMu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(1)
	a.runMu.Unlock()

	go func() {
		defer a.wg.Done()
		t := time.NewTicker(a.interval)
		defer t.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				_ = a.Tick(runCtx)
			}
		}
	}()
}

// Stop cancels the ticker goroutine and waits for it to exit. Safe to call
// when not running.
func (a *Autosaver) Stop() {
	a.runMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
}
