// ABOUTME: Draft slot operations: a single overwritten form snapshot.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/models"
)

// SaveDraft overwrites the draft slot with d.
func (s *Store) SaveDraft(ctx context.Context, d models.Draft) error {
	if d.Images == nil {
		d.Images = []string{}
	}
	d.IsDraft = true
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.kv.Set(DraftKey, data); err != nil {
		return newError("write draft slot", err)
	}
	return nil
}

// LoadDraft returns the saved draft, or ErrNoDraft.
func (s *Store) LoadDraft(ctx context.Context) (models.Draft, error) {
	data, err := s.kv.Get(DraftKey)
	if errors.Is(err, kv.ErrNotFound) {
		return models.Draft{}, ErrNoDraft
	}
	if err != nil {
		return models.Draft{}, err
	}

	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Draft{}, fmt.Errorf("unmarshal draft: %w", err)
	}
	return d, nil
}

// ClearDraft removes the draft slot. Clearing an empty slot is not an error.
func (s *Store) ClearDraft(ctx context.Context) error {
	return s.kv.Delete(DraftKey)
}
