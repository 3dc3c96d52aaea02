package kv

import (
	"context"
	"testing"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get(ctx, "a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := m.Set(ctx, "a", "2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _, _ = m.Get(ctx, "a")
	if v != "2" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Set(ctx, "a", "1")
	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatal("expected key gone after delete")
	}
	// deleting an absent key is not an error
	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestMemorySetMany(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.SetMany(ctx, map[string]string{"a": "1", "b": "2", "c": "3"})
	if err != nil {
		t.Fatalf("setmany: %v", err)
	}
	for k, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		v, ok, _ := m.Get(ctx, k)
		if !ok || v != want {
			t.Fatalf("key %q: got %q ok=%v, want %q", k, v, ok, want)
		}
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", m.Len())
	}
}
