package sketch

import (
	"context"
	"testing"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

func TestLoadSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `[
		{"id":"a","title":"old","updatedAt":"2026-01-01T10:00:00Z"},
		{"id":"b","title":"new","updatedAt":"2026-08-01T10:00:00Z"},
		{"id":"c","title":"mid","updatedAt":"2026-04-01T10:00:00Z"}
	]`)

	sketches := NewStore(mem).Load(ctx)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if sketches[i].ID != id {
			t.Fatalf("position %d: got %q, want %q", i, sketches[i].ID, id)
		}
	}
}

func TestLoadDropsMalformedAndStampsMissingUpdatedAt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `[
		{"id":"a","title":"keeps","image":"data:image/png;base64,AAAA"},
		{"title":"no id"},
		{"id":"b"}
	]`)

	sketches := NewStore(mem).Load(ctx)
	if len(sketches) != 1 {
		t.Fatalf("expected 1 sketch, got %+v", sketches)
	}
	if sketches[0].UpdatedAt == "" {
		t.Fatal("missing updatedAt must be stamped, not empty")
	}
	if sketches[0].Image == nil {
		t.Fatal("image lost")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())

	sk := NewSketch("wound diagram", nil)
	if err := store.Save(ctx, []Sketch{sk}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := store.Load(ctx)
	if len(got) != 1 || got[0].ID != sk.ID || got[0].Title != "wound diagram" {
		t.Fatalf("round trip lost data: %+v", got)
	}
}
