// Package preferences stores the user defaults that seed a freshly created
// ward and the display settings of the client.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract.
const StorageKey = "user_preferences"

// Valid themes. Anything else stored falls back to "system".
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type Preferences struct {
	DefaultDepartment string `json:"defaultDepartment"`
	DefaultWardNumber string `json:"defaultWardNumber"`
	DefaultBedCount   int    `json:"defaultBedCount"`
	Theme             string `json:"theme"`
	BedsPerRow        int    `json:"bedsPerRow"`
}

func Default() Preferences {
	return Preferences{
		DefaultDepartment: "Surgery Department",
		DefaultWardNumber: "1",
		DefaultBedCount:   12,
		Theme:             ThemeSystem,
		BedsPerRow:        4,
	}
}

// Parse decodes stored preferences, falling back field-by-field to the
// defaults. Out-of-range values are replaced, never clamped.
func Parse(raw []byte) Preferences {
	p := Default()
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return p
	}
	if s, ok := obj["defaultDepartment"].(string); ok {
		p.DefaultDepartment = s
	}
	if s, ok := obj["defaultWardNumber"].(string); ok {
		p.DefaultWardNumber = s
	}
	if n, ok := obj["defaultBedCount"].(float64); ok {
		if v := int(n); float64(v) == n && v >= 1 && v <= 100 {
			p.DefaultBedCount = v
		}
	}
	if s, ok := obj["theme"].(string); ok {
		if s == ThemeLight || s == ThemeDark || s == ThemeSystem {
			p.Theme = s
		}
	}
	if n, ok := obj["bedsPerRow"].(float64); ok {
		if v := int(n); float64(v) == n && v >= 2 && v <= 6 {
			p.BedsPerRow = v
		}
	}
	return p
}

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored preferences, or the defaults when nothing usable
// is stored.
func (s *Store) Load(ctx context.Context) Preferences {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return Default()
	}
	return Parse([]byte(raw))
}

// Save writes the preferences, substituting defaults for unset fields.
func (s *Store) Save(ctx context.Context, p Preferences) error {
	def := Default()
	if p.DefaultDepartment == "" {
		p.DefaultDepartment = def.DefaultDepartment
	}
	if p.DefaultWardNumber == "" {
		p.DefaultWardNumber = def.DefaultWardNumber
	}
	if p.DefaultBedCount < 1 || p.DefaultBedCount > 100 {
		p.DefaultBedCount = def.DefaultBedCount
	}
	if p.Theme != ThemeLight && p.Theme != ThemeDark && p.Theme != ThemeSystem {
		p.Theme = def.Theme
	}
	if p.BedsPerRow < 2 || p.BedsPerRow > 6 {
		p.BedsPerRow = def.BedsPerRow
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// WardSeed implements the ward service's SeedSource.
func (s *Store) WardSeed(ctx context.Context) (title, wardNumber string, bedCount int) {
	p := s.Load(ctx)
	return p.DefaultDepartment, p.DefaultWardNumber, p.DefaultBedCount
}
