package ward

import (
	"context"
	"errors"
	"testing"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// flakyStore fails Set the first failures times, then succeeds.
type flakyStore struct {
	*kv.Memory
	failures int
	setCalls int
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.setCalls++
	if f.setCalls <= f.failures {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(kv.NewMemory())
	if w := s.Load(context.Background()); w != nil {
		t.Fatalf("expected nil for empty store, got %+v", w)
	}
}

func TestStoreLoadGarbage(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, StorageKey, `{"broken`)
	if w := NewStore(mem).Load(ctx); w != nil {
		t.Fatalf("expected nil for garbage, got %+v", w)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	w := &Ward{ID: "w1", Title: "Surgery", Beds: []Bed{{ID: "b1", Number: 1}}}
	if err := s.Save(ctx, w); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := s.Load(ctx)
	if got == nil || got.ID != "w1" || len(got.Beds) != 1 {
		t.Fatalf("load after save: %+v", got)
	}
}

func TestStoreSaveRetriesOnce(t *testing.T) {
	ctx := context.Background()
	w := &Ward{ID: "w1", Title: "Surgery", Beds: []Bed{}}

	// one failure: the retry succeeds
	f := &flakyStore{Memory: kv.NewMemory(), failures: 1}
	if err := NewStore(f).Save(ctx, w); err != nil {
		t.Fatalf("expected retry to absorb one failure: %v", err)
	}
	if f.setCalls != 2 {
		t.Fatalf("expected 2 set calls, got %d", f.setCalls)
	}

	// two failures: the error surfaces, no third attempt
	f = &flakyStore{Memory: kv.NewMemory(), failures: 2}
	if err := NewStore(f).Save(ctx, w); err == nil {
		t.Fatal("expected error after retry failed")
	}
	if f.setCalls != 2 {
		t.Fatalf("expected exactly 2 set calls, got %d", f.setCalls)
	}
}
