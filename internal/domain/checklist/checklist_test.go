package checklist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

func TestLoadEmptyAndGarbage(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem)

	if items := store.Load(ctx); len(items) != 0 {
		t.Fatalf("expected empty list, got %+v", items)
	}

	_ = mem.Set(ctx, StorageKey, `{"not":"an array"}`)
	if items := store.Load(ctx); len(items) != 0 {
		t.Fatalf("expected empty list for non-array, got %+v", items)
	}

	_ = mem.Set(ctx, StorageKey, `{{{`)
	if items := store.Load(ctx); len(items) != 0 {
		t.Fatalf("expected empty list for garbage, got %+v", items)
	}
}

func TestLoadDropsMalformedElements(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `[
		{"id":"a","text":"valid"},
		{"text":"no id"},
		{"id":"","text":"empty id"},
		{"id":"b"},
		42,
		{"id":"c","text":"also valid","done":true}
	]`)

	items := NewStore(mem).Load(ctx)
	if len(items) != 2 {
		t.Fatalf("expected 2 survivors, got %+v", items)
	}
	if items[0].ID != "a" || items[1].ID != "c" || !items[1].Done {
		t.Fatalf("wrong survivors: %+v", items)
	}
}

func TestLoadFieldFallbacks(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `[
		{"id":"a","text":"x","done":"yes","order":2.5,"date":"08-01"}
	]`)

	items := NewStore(mem).Load(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %+v", items)
	}
	it := items[0]
	if it.Done {
		t.Error("non-bool done must read false")
	}
	if it.Order != 0 {
		t.Errorf("non-integral order must read 0, got %d", it.Order)
	}
	if it.Date != nil {
		t.Errorf("malformed date must be dropped, got %q", *it.Date)
	}
}

func TestLoadSortsByDateThenOrder(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `[
		{"id":"a","text":"mid","order":0,"date":"2024-01-10"},
		{"id":"b","text":"undated","order":1},
		{"id":"c","text":"early","order":2,"date":"2024-01-05"}
	]`)

	items := NewStore(mem).Load(ctx)
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: got %q, want %q (full: %+v)", i, items[i].ID, id, items)
		}
	}
}

func TestSaveRenormalizesOrder(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem)

	items := []Item{
		{ID: "a", Text: "first", Order: 7},
		{ID: "b", Text: "second", Order: 3},
	}
	if err := store.Save(ctx, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _, _ := mem.Get(ctx, StorageKey)
	var stored []Item
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if stored[0].Order != 0 || stored[1].Order != 1 {
		t.Fatalf("order not renormalized: %+v", stored)
	}
	// caller's slice is untouched
	if items[0].Order != 7 {
		t.Fatalf("input slice mutated: %+v", items)
	}
}

func TestNewItem(t *testing.T) {
	it := NewItem("buy gloves", 4)
	if it.ID == "" || it.Text != "buy gloves" || it.Order != 4 || it.Done || it.Date != nil {
		t.Fatalf("unexpected item: %+v", it)
	}
}
