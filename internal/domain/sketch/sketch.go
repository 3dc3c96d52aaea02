// Package sketch stores freehand drawings captured on the canvas. Each
// sketch carries a data-URL image and a last-modified timestamp; the list is
// presented most recently updated first.
package sketch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract.
const StorageKey = "user_sketches"

type Sketch struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Image     *string `json:"image,omitempty"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewSketch builds a sketch with a generated id, stamped now.
func NewSketch(title string, image *string) Sketch {
	return Sketch{
		ID:        uuid.NewString(),
		Title:     title,
		Image:     image,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// parseSketch requires id and title; a missing or malformed updatedAt is
// replaced with the current time rather than dropping the sketch.
func parseSketch(v any) *Sketch {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return nil
	}
	title, ok := obj["title"].(string)
	if !ok {
		return nil
	}
	sk := &Sketch{ID: id, Title: title}
	if s, ok := obj["image"].(string); ok {
		sk.Image = &s
	}
	if s, ok := obj["updatedAt"].(string); ok && s != "" {
		sk.UpdatedAt = s
	} else {
		sk.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return sk
}

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored sketches newest first.
func (s *Store) Load(ctx context.Context) []Sketch {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return []Sketch{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []Sketch{}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return []Sketch{}
	}
	sketches := make([]Sketch, 0, len(arr))
	for _, v := range arr {
		if sk := parseSketch(v); sk != nil {
			sketches = append(sketches, *sk)
		}
	}
	sort.SliceStable(sketches, func(i, j int) bool {
		return sketches[i].UpdatedAt > sketches[j].UpdatedAt
	})
	return sketches
}

// Save writes the sketches as given. Unlike ordered lists there is no
// position to renormalize; ordering is derived from UpdatedAt on load.
func (s *Store) Save(ctx context.Context, sketches []Sketch) error {
	payload, err := json.Marshal(sketches)
	if err != nil {
		return fmt.Errorf("encode sketches: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save sketches: %w", err)
	}
	return nil
}
