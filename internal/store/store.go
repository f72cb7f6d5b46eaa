// ABOUTME: Recipe store persisting the whole collection to primary and backup slots.
// ABOUTME: Load repairs missing or corrupt slots; Save keeps both slots identical.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/logger"
	"github.com/harper/cookbook/internal/models"
)

// Slot keys in the key-value store.
const (
	PrimaryKey = "cookbook:recipes"
	BackupKey  = "cookbook:recipes_backup"
	DraftKey   = "cookbook:recipe_draft"
)

// Store owns the recipe collection. Load, Save and the helpers built on
// them are the only way the collection changes.
type Store struct {
	kv  kv.Store
	log *logger.Logger
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for repair and cleanup messages.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.log = l.Component("store")
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(st kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:  st,
		log: logger.Nop(),
		now: models.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying key-value store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Load returns the stored collection. It never fails: a corrupt or missing
// primary falls back to the backup, and with neither the collection is empty.
func (s *Store) Load(ctx context.Context) []models.Recipe {
	primary, err := s.kv.Get(PrimaryKey)
	switch {
	case err == nil:
		recipes, derr := decodeRecipes(primary)
		if derr == nil {
			s.syncSlot(BackupKey, primary)
			return recipes
		}
		s.log.Warn().Err(derr).Msg("primary slot is corrupt, trying backup")
	case !errors.Is(err, kv.ErrNotFound):
		s.log.Warn().Err(err).Msg("read primary slot")
	}

	backup, err := s.kv.Get(BackupKey)
	switch {
	case err == nil:
		recipes, derr := decodeRecipes(backup)
		if derr == nil {
			s.log.Info().Int("recipes", len(recipes)).Msg("restoring primary slot from backup")
			s.syncSlot(PrimaryKey, backup)
			return recipes
		}
		s.log.Error().Err(derr).Msg("backup slot is corrupt, starting empty")
	case !errors.Is(err, kv.ErrNotFound):
		s.log.Error().Err(err).Msg("read backup slot")
	}

	return []models.Recipe{}
}

// syncSlot makes key hold data, skipping the write when it already does.
func (s *Store) syncSlot(key string, data []byte) {
	current, err := s.kv.Get(key)
	if err == nil && bytes.Equal(current, data) {
		return
	}
	if err := s.kv.Set(key, data); err != nil {
		s.log.Warn().Err(err).Str("slot", key).Msg("repair slot")
	}
}

// Save writes the collection to the primary slot, mirrors it to the backup
// slot, then clears any draft. A failed backup write rolls the primary back
// so the two slots never disagree.
func (s *Store) Save(ctx context.Context, recipes []models.Recipe) error {
	data, err := encodeRecipes(recipes)
	if err != nil {
		return &Error{Kind: KindGeneral, Op: "encode recipes", Err: err}
	}

	previous, prevErr := s.kv.Get(PrimaryKey)

	if err := s.kv.Set(PrimaryKey, data); err != nil {
		return newError("write primary slot", err)
	}
	if err := s.kv.Set(BackupKey, data); err != nil {
		s.rollbackPrimary(previous, prevErr)
		return newError("write backup slot", err)
	}

	if err := s.kv.Delete(DraftKey); err != nil {
		s.log.Warn().Err(err).Msg("clear draft after save")
	}
	return nil
}

func (s *Store) rollbackPrimary(previous []byte, prevErr error) {
	var err error
	switch {
	case prevErr == nil:
		err = s.kv.Set(PrimaryKey, previous)
	case errors.Is(prevErr, kv.ErrNotFound):
		err = s.kv.Delete(PrimaryKey)
	default:
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("roll back primary slot")
	}
}

// Usage reports quota consumption when the backend enforces one.
func (s *Store) Usage() (kv.Usage, bool) {
	q, ok := s.kv.(*kv.Quota)
	if !ok {
		return kv.Usage{}, false
	}
	return q.Usage(), true
}

func decodeRecipes(data []byte) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("unmarshal recipes: %w", err)
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	for i := range recipes {
		if recipes[i].Images == nil {
			recipes[i].Images = []string{}
		}
	}
	return recipes, nil
}

func encodeRecipes(recipes []models.Recipe) ([]byte, error) {
	out := make([]models.Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r
		if out[i].Images == nil {
			out[i].Images = []string{}
		}
	}
	return json.Marshal(out)
}
