// Package draft persists in-progress campaign drafts as explicit snapshot
// values, so a caller can save its composing state and restore it later
// (e.g. across a payment redirect).
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wb-go/wbf/retry"

	"github.com/kimsangwoo/bizmsg/internal/model"
)

// Snapshot is the serializable in-progress state of one campaign draft.
type Snapshot struct {
	Key     string      `json:"key"`
	Draft   model.Draft `json:"draft"`
	SavedAt time.Time   `json:"saved_at"`
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// Store saves and restores draft snapshots in the cache.
type Store struct {
	cache cache
}

func NewStore(c cache) *Store {
	return &Store{cache: c}
}

func key(k string) string { return "draft:" + k }

// Save serializes the snapshot and stores it under its key.
func (s *Store) Save(ctx context.Context, strategy retry.Strategy, snap Snapshot) error {
	if snap.Key == "" {
		return fmt.Errorf("draft snapshot key is empty")
	}

	snap.SavedAt = time.Now()

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal draft snapshot: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, key(snap.Key), string(body)); err != nil {
		return fmt.Errorf("save draft snapshot: %w", err)
	}

	return nil
}

// Load restores the snapshot stored under key.
func (s *Store) Load(ctx context.Context, strategy retry.Strategy, k string) (Snapshot, error) {
	body, err := s.cache.GetWithRetry(ctx, strategy, key(k))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load draft snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal draft snapshot: %w", err)
	}

	return snap, nil
}
