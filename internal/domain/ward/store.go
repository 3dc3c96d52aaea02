package ward

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract; renaming it orphans existing
// installations.
const StorageKey = "ward_data"

// Store persists the ward document under its fixed key.
type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored ward, or nil when nothing usable is stored. Decode
// failures and store errors are both reported as nil — the caller creates a
// fresh ward either way, never an error dialog.
func (s *Store) Load(ctx context.Context) *Ward {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return nil
	}
	return ParseWard([]byte(raw))
}

// Save writes the ward. The ward is the primary record, so a failed write is
// retried once before the error is surfaced.
func (s *Store) Save(ctx context.Context, w *Ward) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode ward: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
			return fmt.Errorf("save ward: %w", err)
		}
	}
	return nil
}
