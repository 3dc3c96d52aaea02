package phrase

import (
	"context"
	"testing"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

func TestLoadFiltersNonStrings(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `["continue IV antibiotics", 42, null, "chase bloods", {"x":1}]`)

	phrases := NewStore(mem).Load(ctx)
	if len(phrases) != 2 || phrases[0] != "continue IV antibiotics" || phrases[1] != "chase bloods" {
		t.Fatalf("unexpected phrases: %+v", phrases)
	}
}

func TestLoadEmptyOnGarbage(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `{"a":1}`)
	if got := NewStore(mem).Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestSaveNilBecomesEmptyArray(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem)

	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, _ := mem.Get(ctx, StorageKey)
	if !ok || raw != "[]" {
		t.Fatalf("expected stored [], got %q ok=%v", raw, ok)
	}
}
