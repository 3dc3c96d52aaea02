// Package checklist stores the personal todo list. Items carry an optional
// due date; the list is kept sorted by date with undated items last.
package checklist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract.
const StorageKey = "user_checklist"

var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
	// Order is the stable tie-break within a date; renormalized to the array
	// index on every save.
	Order int     `json:"order"`
	Date  *string `json:"date,omitempty"`
}

// NewItem builds an unchecked item with a generated id.
func NewItem(text string, order int) Item {
	return Item{ID: uuid.NewString(), Text: text, Order: order}
}

// parseItem validates one stored element; malformed elements are dropped
// individually, they never fail the whole list.
func parseItem(v any) *Item {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return nil
	}
	text, ok := obj["text"].(string)
	if !ok {
		return nil
	}
	item := &Item{ID: id, Text: text}
	item.Done = obj["done"] == true
	if n, ok := obj["order"].(float64); ok && n == math.Trunc(n) {
		item.Order = int(n)
	}
	if s, ok := obj["date"].(string); ok && isoDateRE.MatchString(s) {
		item.Date = &s
	}
	return item
}

// Sort orders items by date ascending with undated items last, tie-broken
// by Order.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.Order < b.Order
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case *a.Date != *b.Date:
			return *a.Date < *b.Date
		default:
			return a.Order < b.Order
		}
	})
}

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored items sorted, or an empty list when nothing
// usable is stored.
func (s *Store) Load(ctx context.Context) []Item {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return []Item{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []Item{}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return []Item{}
	}
	items := make([]Item, 0, len(arr))
	for _, v := range arr {
		if item := parseItem(v); item != nil {
			items = append(items, *item)
		}
	}
	Sort(items)
	return items
}

// Save writes the items with Order renormalized to the array index.
func (s *Store) Save(ctx context.Context, items []Item) error {
	out := make([]Item, len(items))
	for i, item := range items {
		item.Order = i
		out[i] = item
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	return nil
}
