// Package backup implements the versioned export/import envelope. Export
// gathers the persisted documents into one JSON file; import validates the
// envelope coarsely and overwrites the stored documents in a single atomic
// write. Sketches are excluded: their embedded images would dominate the
// file size.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roundshub/roundshub/internal/domain/phrase"
	"github.com/roundshub/roundshub/internal/domain/preferences"
	"github.com/roundshub/roundshub/internal/domain/reference"
	"github.com/roundshub/roundshub/internal/domain/ward"
	"github.com/roundshub/roundshub/internal/platform/kv"
)

// Version is the only envelope version understood by Import.
const Version = 1

// ErrInvalidBackup marks envelopes rejected before anything is written.
var ErrInvalidBackup = errors.New("invalid backup")

// Envelope is the backup wire format. Fields other than Version are carried
// as raw JSON: import trusts the inner documents and lets the defensive
// parsers deal with them on the next load.
type Envelope struct {
	Version     int             `json:"version"`
	Ward        json.RawMessage `json:"ward"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	References  json.RawMessage `json:"references,omitempty"`
	Phrases     json.RawMessage `json:"phrases,omitempty"`
}

// Service wires the per-domain stores together for whole-dataset operations.
type Service struct {
	kv         kv.Store
	ward       *ward.Service
	prefs      *preferences.Store
	references *reference.Store
	phrases    *phrase.Store
}

func NewService(
	store kv.Store,
	wardSvc *ward.Service,
	prefs *preferences.Store,
	refs *reference.Store,
	phrases *phrase.Store,
) *Service {
	return &Service{
		kv:         store,
		ward:       wardSvc,
		prefs:      prefs,
		references: refs,
		phrases:    phrases,
	}
}

// Filename returns the export filename for the given day, e.g.
// "RoundsHub-backup-2026-08-29.json".
func Filename(now time.Time) string {
	return fmt.Sprintf("RoundsHub-backup-%s.json", now.Format("2006-01-02"))
}

// Export serializes the current dataset as a pretty-printed envelope. A ward
// that has never loaded exports as null.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	env := Envelope{Version: Version}

	if w := s.ward.Snapshot(); w != nil {
		raw, err := json.Marshal(w)
		if err != nil {
			return nil, fmt.Errorf("encode ward: %w", err)
		}
		env.Ward = raw
	} else {
		env.Ward = json.RawMessage("null")
	}

	raw, err := json.Marshal(s.prefs.Load(ctx))
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	env.Preferences = raw

	raw, err = json.Marshal(s.references.Load(ctx))
	if err != nil {
		return nil, fmt.Errorf("encode references: %w", err)
	}
	env.References = raw

	raw, err = json.Marshal(s.phrases.Load(ctx))
	if err != nil {
		return nil, fmt.Errorf("encode phrases: %w", err)
	}
	env.Phrases = raw

	return json.MarshalIndent(env, "", "  ")
}

// validate performs the coarse envelope check: the version must match and
// the ward must be null or an object with a string id. Inner documents are
// not deep-validated here; the defensive load parsers handle that.
func validate(env *Envelope) error {
	if env.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, env.Version)
	}
	if wardIsNull(env.Ward) {
		return nil
	}
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(env.Ward, &probe); err != nil {
		return fmt.Errorf("%w: ward payload: %v", ErrInvalidBackup, err)
	}
	if _, ok := probe.ID.(string); !ok {
		return fmt.Errorf("%w: ward payload missing id", ErrInvalidBackup)
	}
	return nil
}

func wardIsNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Import replaces the stored dataset with the envelope's contents. The
// write is all-or-nothing: a rejected envelope leaves every key untouched.
// Missing optional sections reset their documents to empty rather than
// keeping stale data. After the write the in-memory ward is reloaded.
func (s *Service) Import(ctx context.Context, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := validate(&env); err != nil {
		return err
	}

	// Always all four keys: restore is a full overwrite, so a null ward
	// clears any stored one rather than leaving it behind.
	pairs := map[string]string{
		ward.StorageKey:        "null",
		preferences.StorageKey: "{}",
		reference.StorageKey:   "[]",
		phrase.StorageKey:      "[]",
	}
	if !wardIsNull(env.Ward) {
		pairs[ward.StorageKey] = string(env.Ward)
	}
	if len(env.Preferences) > 0 {
		pairs[preferences.StorageKey] = string(env.Preferences)
	}
	if len(env.References) > 0 {
		pairs[reference.StorageKey] = string(env.References)
	}
	if len(env.Phrases) > 0 {
		pairs[phrase.StorageKey] = string(env.Phrases)
	}

	if err := s.kv.SetMany(ctx, pairs); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	s.ward.Reload(ctx)
	return nil
}
