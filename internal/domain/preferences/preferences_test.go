package preferences

import (
	"context"
	"testing"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	p := NewStore(kv.NewMemory()).Load(context.Background())
	if p != Default() {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestParseFieldFallbacks(t *testing.T) {
	p := Parse([]byte(`{
		"defaultDepartment": "Medicine",
		"defaultBedCount": 0,
		"theme": "neon",
		"bedsPerRow": 7
	}`))
	if p.DefaultDepartment != "Medicine" {
		t.Errorf("valid field dropped: %q", p.DefaultDepartment)
	}
	if p.DefaultBedCount != 12 {
		t.Errorf("out-of-range bed count must fall back, got %d", p.DefaultBedCount)
	}
	if p.Theme != ThemeSystem {
		t.Errorf("invalid theme must fall back, got %q", p.Theme)
	}
	if p.BedsPerRow != 4 {
		t.Errorf("out-of-range bedsPerRow must fall back, got %d", p.BedsPerRow)
	}
	if p.DefaultWardNumber != "1" {
		t.Errorf("absent field must default, got %q", p.DefaultWardNumber)
	}
}

func TestParseBoundaries(t *testing.T) {
	p := Parse([]byte(`{"defaultBedCount":100,"bedsPerRow":2,"theme":"dark"}`))
	if p.DefaultBedCount != 100 || p.BedsPerRow != 2 || p.Theme != ThemeDark {
		t.Fatalf("boundary values rejected: %+v", p)
	}
	p = Parse([]byte(`{"defaultBedCount":101,"bedsPerRow":1}`))
	if p.DefaultBedCount != 12 || p.BedsPerRow != 4 {
		t.Fatalf("out-of-range values kept: %+v", p)
	}
}

func TestParseGarbage(t *testing.T) {
	if p := Parse([]byte(`[1,2,3]`)); p != Default() {
		t.Fatalf("expected defaults for non-object, got %+v", p)
	}
	if p := Parse([]byte(`{{{`)); p != Default() {
		t.Fatalf("expected defaults for garbage, got %+v", p)
	}
}

func TestSaveFillsInvalidFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	err := store.Save(ctx, Preferences{DefaultDepartment: "Medicine", Theme: "neon"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	p := store.Load(ctx)
	if p.DefaultDepartment != "Medicine" {
		t.Errorf("valid field lost: %q", p.DefaultDepartment)
	}
	if p.Theme != ThemeSystem || p.DefaultBedCount != 12 || p.BedsPerRow != 4 {
		t.Errorf("invalid fields not defaulted: %+v", p)
	}
}

func TestWardSeed(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())
	_ = store.Save(ctx, Preferences{
		DefaultDepartment: "Orthopaedics",
		DefaultWardNumber: "5",
		DefaultBedCount:   20,
		Theme:             ThemeLight,
		BedsPerRow:        3,
	})

	title, number, count := store.WardSeed(ctx)
	if title != "Orthopaedics" || number != "5" || count != 20 {
		t.Fatalf("seed wrong: %q %q %d", title, number, count)
	}
}
