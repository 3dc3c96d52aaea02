// Package reference stores the user's personal reference cards, ordered by
// an explicit position that is renormalized on every save.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

// StorageKey is part of the storage contract.
const StorageKey = "user_references"

type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Order int    `json:"order"`
}

// NewCard builds a card with a generated id.
func NewCard(title, body string, order int) Card {
	return Card{ID: uuid.NewString(), Title: title, Body: body, Order: order}
}

func parseCard(v any) *Card {
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
	body, ok := obj["body"].(string)
	if !ok {
		return nil
	}
	card := &Card{ID: id, Title: title, Body: body}
	if n, ok := obj["order"].(float64); ok && n == math.Trunc(n) {
		card.Order = int(n)
	}
	return card
}

type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the stored cards sorted by Order, dropping malformed elements
// individually. Anything unusable yields an empty list.
func (s *Store) Load(ctx context.Context) []Card {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return []Card{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []Card{}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return []Card{}
	}
	cards := make([]Card, 0, len(arr))
	for _, v := range arr {
		if card := parseCard(v); card != nil {
			cards = append(cards, *card)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Order < cards[j].Order })
	return cards
}

// Save writes the cards with Order renormalized to the array index.
func (s *Store) Save(ctx context.Context, cards []Card) error {
	out := make([]Card, len(cards))
	for i, card := range cards {
		card.Order = i
		out[i] = card
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode references: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save references: %w", err)
	}
	return nil
}
