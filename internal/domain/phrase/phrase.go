// Package phrase stores the user's quick-insert text snippets. The stored
// form is a flat JSON string array.
package phrase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract.
const StorageKey = "user_phrases"

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored phrases, dropping non-string elements. Anything
// unusable yields an empty list.
func (s *Store) Load(ctx context.Context) []string {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return []string{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []string{}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return []string{}
	}
	phrases := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			phrases = append(phrases, s)
		}
	}
	return phrases
}

func (s *Store) Save(ctx context.Context, phrases []string) error {
	if phrases == nil {
		phrases = []string{}
	}
	payload, err := json.Marshal(phrases)
	if err != nil {
		return fmt.Errorf("encode phrases: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save phrases: %w", err)
	}
	return nil
}
