// ABOUTME: Shared recipe form state for add and edit, with draft autosave.
// ABOUTME: Handles the interactive huh form, photo loading, and degraded saves.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/harper/cookbook/internal/autosave"
	"github.com/harper/cookbook/internal/degrade"
	"github.com/harper/cookbook/internal/export"
	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/models"
	"github.com/harper/cookbook/internal/store"
	"github.com/harper/cookbook/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// recipeForm holds the values being entered. It is the autosave source, so
// every access goes through mu.
type recipeForm struct {
	mu sync.Mutex

	draftID      string
	editing      bool
	title        string
	date         string
	rating       int
	instructions string
	notes        string
	images       []string

	saver *autosave.Autosaver
}

func newRecipeForm(r models.Recipe, editing bool) *recipeForm {
	f := &recipeForm{
		editing:      editing,
		title:        r.Title,
		date:         r.Date,
		rating:       r.Rating,
		instructions: r.Instructions,
		notes:        r.Notes,
		images:       append([]string(nil), r.Images...),
	}
	if editing {
		f.draftID = r.ID
	} else {
		f.draftID = models.NewDraft("", "", "", 0, "", "", nil).ID
	}
	return f
}

func formFromDraft(d models.Draft) *recipeForm {
	f := newRecipeForm(d.ToRecipe(), !d.IsNew())
	f.draftID = d.ID
	return f
}

func (f *recipeForm) Snapshot() models.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.NewDraft(f.draftID, f.title, f.date, f.rating, f.instructions, f.notes, f.images)
}

// update applies fn under the lock and marks the form changed.
func (f *recipeForm) update(fn func(f *recipeForm)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
	if f.saver != nil {
		f.saver.MarkDirty()
	}
}

func (f *recipeForm) recipe() models.Recipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := models.Recipe{
		Title:        strings.TrimSpace(f.title),
		Date:         f.date,
		Rating:       f.rating,
		Instructions: f.instructions,
		Notes:        f.notes,
		Images:       append([]string{}, f.images...),
	}
	if f.editing {
		r.ID = f.draftID
	}
	return r
}

func (f *recipeForm) imageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.images)
}

// startAutosave writes the form to the draft slot while the session runs.
func (f *recipeForm) startAutosave(ctx context.Context) {
	f.saver = autosave.New(f, recipeStore, cfg.AutosaveInterval(), appLog)
	f.saver.Start(ctx)
}

// keepDraft writes the form to the draft slot so nothing typed is lost. When
// storage is full it retries without photos, and as a last resort writes the
// text to a recovery file under the data directory. It returns that file's
// path, or "" when the draft slot holds the form.
func (f *recipeForm) keepDraft() string {
	f.saver.Stop()
	ctx := context.Background()

	d := f.Snapshot()
	err := recipeStore.SaveDraft(ctx, d)
	if store.IsStorageFull(err) && len(d.Images) > 0 {
		d.Images = nil
		if err = recipeStore.SaveDraft(ctx, d); err == nil {
			fmt.Fprintln(os.Stderr, ui.Warning("Storage is full, so the draft was kept without its photos."))
		}
	}
	if err == nil {
		f.saver.Reset()
		fmt.Fprintln(os.Stderr, ui.Warning("Your changes were kept as a draft. Run \"cookbook add --from-draft\" to pick up where you left off."))
		return ""
	}

	appLog.Warn().Err(err).Str("draft_id", d.ID).Msg("draft not saved")
	path, ferr := writeRecoveryFile(d)
	if ferr != nil {
		appLog.Error().Err(ferr).Str("draft_id", d.ID).Msg("recovery file not written")
		fmt.Fprintln(os.Stderr, ui.Error(fmt.Sprintf("Your changes could not be saved: %v", ferr)))
		return ""
	}
	fmt.Fprintln(os.Stderr, ui.Warning(fmt.Sprintf("The draft could not be saved, so your text was written to %s", path)))
	return path
}

// writeRecoveryFile writes the draft's text as markdown. Photos are left out.
func writeRecoveryFile(d models.Draft) (string, error) {
	r := draftRecipe(d)
	r.Images = nil
	md, err := export.Markdown(r, nil)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(cfg.DataDir, "recovered")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, export.SanitizeFilename(d.ID)+".md")
	if err := os.WriteFile(path, []byte(md), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// draftRecipe shows a draft as a recipe without assigning it a new ID.
func draftRecipe(d models.Draft) models.Recipe {
	return models.Recipe{
		ID:           d.ID,
		Title:        d.Title,
		Date:         d.Date,
		Rating:       d.Rating,
		Instructions: d.Instructions,
		Notes:        d.Notes,
		Images:       d.Images,
	}
}

// applyFieldFlags copies any field flags the user set into the form.
func applyFieldFlags(cmd *cobra.Command, f *recipeForm) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		f.update(func(f *recipeForm) { f.title = v })
	}
	if flags.Changed("date") {
		v, _ := flags.GetString("date")
		if _, err := time.Parse(models.DateLayout, v); err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", v)
		}
		f.update(func(f *recipeForm) { f.date = v })
	}
	if flags.Changed("rating") {
		v, _ := flags.GetInt("rating")
		f.update(func(f *recipeForm) { f.rating = v })
	}
	if flags.Changed("instructions") {
		v, _ := flags.GetString("instructions")
		f.update(func(f *recipeForm) { f.instructions = v })
	}
	if flags.Changed("instructions-file") {
		path, _ := flags.GetString("instructions-file")
		data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is intended
		if err != nil {
			return fmt.Errorf("failed to read instructions file: %w", err)
		}
		f.update(func(f *recipeForm) { f.instructions = string(data) })
	}
	if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		f.update(func(f *recipeForm) { f.notes = v })
	}
	return nil
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("date", "d", "", "date cooked (YYYY-MM-DD)")
	cmd.Flags().IntP("rating", "r", 0, "rating from 0 to 5")
	cmd.Flags().StringP("instructions", "i", "", "instructions text")
	cmd.Flags().String("instructions-file", "", "read instructions from file")
	cmd.Flags().StringP("notes", "n", "", "notes")
	cmd.Flags().StringArray("image", nil, "photo to attach (repeatable)")
	cmd.Flags().BoolP("yes", "y", false, "save with fewer photos without asking when storage is full")
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runDetailsForm prompts for title, date, rating, and notes.
func runDetailsForm(f *recipeForm) error {
	f.mu.Lock()
	title, date, notes := f.title, f.date, f.notes
	rating := strconv.Itoa(f.rating)
	f.mu.Unlock()

	ratings := make([]huh.Option[string], 0, models.MaxRating+1)
	for i := 0; i <= models.MaxRating; i++ {
		label := "unrated"
		if i > 0 {
			label = ui.FormatStars(i)
		}
		ratings = append(ratings, huh.NewOption(label, strconv.Itoa(i)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Date cooked").
				Description("YYYY-MM-DD").
				Value(&date).
				Validate(func(s string) error {
					if _, err := time.Parse(models.DateLayout, s); err != nil {
						return errors.New("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Rating").
				Options(ratings...).
				Value(&rating),
			huh.NewText().
				Title("Notes").
				Value(&notes),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	n, _ := strconv.Atoi(rating)
	f.update(func(f *recipeForm) {
		f.title, f.date, f.rating, f.notes = title, date, n, notes
	})
	return nil
}

// editInstructions opens $EDITOR and feeds every write back into the form.
func editInstructions(ctx context.Context, f *recipeForm) error {
	f.mu.Lock()
	initial := f.instructions
	f.mu.Unlock()

	text, err := editText(ctx, initial, func(s string) {
		f.update(func(f *recipeForm) { f.instructions = s })
	})
	if err != nil {
		return err
	}
	f.update(func(f *recipeForm) { f.instructions = strings.TrimSpace(text) })
	return nil
}

// loadImages normalizes photo files and appends the ones that succeed.
// Failures are reported and skipped.
func loadImages(ctx context.Context, f *recipeForm, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	uploads := make([]imaging.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p) //nolint:gosec // user-supplied path is intended
		if err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
		uploads = append(uploads, imaging.Upload{Name: p, Data: data})
	}

	progress := normalizer.WithProgress(func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rProcessing photos... %d/%d", done, total)
	})
	results, err := progress.NormalizeBatch(ctx, uploads, f.imageCount())
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "\rProcessing photos... done")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(os.Stderr, ui.Warning(fmt.Sprintf("Skipped %s: %v", r.Name, r.Err)))
		}
	}

	added := imaging.Images(results)
	if len(added) > 0 {
		f.update(func(f *recipeForm) { f.images = append(f.images, added...) })
	}
	return nil
}

// confirmer asks before dropping photos. Non-interactive runs decline unless
// --yes was given.
func confirmer(cmd *cobra.Command) degrade.Confirmer {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return degrade.AlwaysConfirm
	}
	if !isInteractive() {
		return degrade.NeverConfirm
	}
	return degrade.ConfirmFunc(func(_ context.Context, message string) (bool, error) {
		var ok bool
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(message).
				Affirmative("Save with fewer photos").
				Negative("Cancel").
				Value(&ok),
		)).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	})
}

// saveForm validates and saves the form, walking the reduced-photo fallback
// when storage is full. Unsaved changes are kept as a draft on failure.
func saveForm(ctx context.Context, cmd *cobra.Command, f *recipeForm, verb string) error {
	f.saver.Stop()

	rec := f.recipe()
	if err := rec.Validate(); err != nil {
		f.keepDraft()
		return err
	}

	policy := degrade.New(recipeStore, confirmer(cmd), appLog)
	out, err := policy.Save(ctx, rec)
	switch {
	case err == nil:
		f.saver.Reset()
	case errors.Is(err, degrade.ErrDeclined):
		f.keepDraft()
		return errors.New("recipe not saved: storage is full")
	case errors.Is(err, degrade.ErrExhausted):
		f.keepDraft()
		return err
	default:
		f.keepDraft()
		return storeFailure("failed to save recipe", err)
	}

	fmt.Println(ui.Success(fmt.Sprintf("%s recipe %s", verb, ui.ShortID(out.Recipe.ID))))
	if out.Reduced() {
		fmt.Println(ui.Warning(fmt.Sprintf("Storage was full, so only %d of %d photos were kept.", len(out.Recipe.Images), len(rec.Images))))
	}
	if u, ok := recipeStore.Usage(); ok && u.Low() {
		fmt.Println(ui.Warning(fmt.Sprintf("Storage is running low (%s left).", ui.FormatBytes(u.Remaining))))
	}
	return nil
}

// storeFailure wraps err, using the store's user-facing message when it has one.
func storeFailure(action string, err error) error {
	var se *store.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %s", action, se.Message())
	}
	return fmt.Errorf("%s: %w", action, err)
}
