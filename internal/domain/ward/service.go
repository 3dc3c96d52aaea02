package ward

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults used when no preference store is wired in.
const (
	DefaultTitle      = "Surgery Department"
	DefaultWardNumber = "1"
	DefaultBedCount   = 12
)

// ErrBedNotFound is returned by bed mutators for an unknown bed id.
var ErrBedNotFound = errors.New("bed not found")

// SeedSource supplies the values a freshly created ward is seeded from.
// Implemented by the preferences store.
type SeedSource interface {
	WardSeed(ctx context.Context) (title, wardNumber string, bedCount int)
}

// Service owns the live ward value. All edits go through its mutators; each
// one replaces the whole aggregate with a new snapshot, notifies
// subscribers, and persists. Snapshots handed out are never mutated again,
// so pointer comparison detects change.
//
// Mutators are serialized by a mutex and apply in call order against the
// last in-memory value. There is no compare-and-swap against the store:
// persisted writes are last-write-wins, matching the single-user model.
type Service struct {
	mu     sync.Mutex
	store  *Store
	seed   SeedSource
	logger zerolog.Logger

	ward    *Ward
	subs    map[int]func(*Ward)
	nextSub int
}

func NewService(store *Store, seed SeedSource, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		seed:   seed,
		logger: logger,
		subs:   make(map[int]func(*Ward)),
	}
}

// Init transitions the service from loading to ready: load the stored ward,
// or synthesize the initial one from preference defaults. A failed first
// persist is logged, not fatal — the user is not blocked by a write failure
// on first run.
func (s *Service) Init(ctx context.Context) {
	loaded := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded != nil {
		s.ward = loaded
		return
	}
	s.ward = s.createInitial(ctx)
	if err := s.store.Save(ctx, s.ward); err != nil {
		s.logger.Warn().Err(err).Msg("initial ward save failed; will retry on first edit")
	}
}

func (s *Service) createInitial(ctx context.Context) *Ward {
	title, wardNumber, bedCount := DefaultTitle, DefaultWardNumber, DefaultBedCount
	if s.seed != nil {
		title, wardNumber, bedCount = s.seed.WardSeed(ctx)
	}
	if bedCount < 1 {
		bedCount = DefaultBedCount
	}
	w := &Ward{ID: uuid.NewString(), Title: title, Beds: make([]Bed, bedCount)}
	if wardNumber != "" {
		w.WardNumber = &wardNumber
	}
	for i := range w.Beds {
		w.Beds[i] = Bed{ID: uuid.NewString(), Number: i + 1}
	}
	return w
}

// Ready reports whether the initial load has completed.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ward != nil
}

// Snapshot returns the current ward value, nil while loading. The snapshot
// is shared and must be treated as read-only.
func (s *Service) Snapshot() *Ward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ward
}

// Subscribe registers fn to run after every state change. The returned
// function unsubscribes. Callbacks run synchronously under the service lock
// and must not call back into mutators.
func (s *Service) Subscribe(fn func(*Ward)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// persist installs next as the current snapshot, notifies subscribers, then
// saves. The new state is kept even when the save fails — the error is
// surfaced so the caller can warn the user, but the edit is not rolled back.
func (s *Service) persist(ctx context.Context, next *Ward) error {
	s.ward = next
	for _, fn := range s.subs {
		fn(next)
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.Error().Err(err).Msg("ward save failed")
		return err
	}
	return nil
}

func (s *Service) UpdateTitle(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	next := s.ward.Clone()
	next.Title = title
	return s.persist(ctx, next)
}

// UpdateWardNumber sets the ward number; an empty string clears it.
func (s *Service) UpdateWardNumber(ctx context.Context, wardNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	next := s.ward.Clone()
	if wardNumber == "" {
		next.WardNumber = nil
	} else {
		next.WardNumber = &wardNumber
	}
	return s.persist(ctx, next)
}

// AddBeds appends count beds numbered after the current maximum. count < 1
// is a no-op; any upper bound is the caller's policy, not enforced here.
func (s *Service) AddBeds(ctx context.Context, count int) error {
	if count < 1 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	maxNum := 0
	for _, b := range s.ward.Beds {
		if b.Number > maxNum {
			maxNum = b.Number
		}
	}
	next := s.ward.Clone()
	for i := 0; i < count; i++ {
		next.Beds = append(next.Beds, Bed{ID: uuid.NewString(), Number: maxNum + i + 1})
	}
	return s.persist(ctx, next)
}

// DeleteBed removes the bed and renumbers the survivors to a dense 1..N
// sequence ordered by their prior numbers. Bed numbers are always
// contiguous from 1 regardless of deletion history.
func (s *Service) DeleteBed(ctx context.Context, bedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	next := s.ward.Clone()
	kept := next.Beds[:0]
	found := false
	for _, b := range next.Beds {
		if b.ID == bedID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return ErrBedNotFound
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Number < kept[j].Number })
	for i := range kept {
		kept[i].Number = i + 1
	}
	next.Beds = kept
	return s.persist(ctx, next)
}

// DischargePatient clears the bed's patient; the bed itself is retained.
func (s *Service) DischargePatient(ctx context.Context, bedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	next := s.ward.Clone()
	found := false
	for i := range next.Beds {
		if next.Beds[i].ID == bedID {
			next.Beds[i].Patient = nil
			found = true
		}
	}
	if !found {
		return ErrBedNotFound
	}
	return s.persist(ctx, next)
}

// UpdateBedPatient fully replaces the bed's patient value. Callers wanting a
// partial update must spread the prior fields themselves.
func (s *Service) UpdateBedPatient(ctx context.Context, bedID string, patient *PatientData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return nil
	}
	next := s.ward.Clone()
	found := false
	for i := range next.Beds {
		if next.Beds[i].ID == bedID {
			next.Beds[i].Patient = patient
			found = true
		}
	}
	if !found {
		return ErrBedNotFound
	}
	return s.persist(ctx, next)
}

// GetBed looks up a bed by id on the current snapshot.
func (s *Service) GetBed(bedID string) (Bed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return Bed{}, false
	}
	for _, b := range s.ward.Beds {
		if b.ID == bedID {
			return b.clone(), true
		}
	}
	return Bed{}, false
}

// Reload replaces the in-memory ward with whatever the store holds, used
// after a restore overwrites the stored document. An unreadable store keeps
// the current value.
func (s *Service) Reload(ctx context.Context) {
	loaded := s.store.Load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded == nil {
		return
	}
	s.ward = loaded
	for _, fn := range s.subs {
		fn(loaded)
	}
}

// Suspend persists the current ward as a durability safety net beyond the
// per-mutation saves, called when the process is shutting down.
func (s *Service) Suspend(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ward == nil {
		return
	}
	if err := s.store.Save(ctx, s.ward); err != nil {
		s.logger.Warn().Err(err).Msg("suspend-time ward save failed")
	}
}
