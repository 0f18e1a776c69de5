// Package store owns the in-memory schedule collection shared by every view.
//
// The collection is only ever replaced wholesale through a single atomic pointer
// swap, so readers see either the old or the new slice, never a partial one.
// Writes are optimistic: the collection changes first, the backend second, and a
// failed backend call rolls the change back.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// TempIDPrefix marks schedules that have not been persisted yet.
const TempIDPrefix = "temp-"

// ErrNotFound is returned when a schedule id is not in the collection.
// Backends report an unknown id with an error matching it under errors.Is.
var ErrNotFound = models.ErrScheduleNotFound

// Backend is the external persistence the store writes through to.
// Delete of an id the backend does not hold must return an error matching ErrNotFound.
type Backend interface {
	List(ctx context.Context) ([]models.Schedule, error)
	Create(ctx context.Context, s models.Schedule) (models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// StoreError wraps a failed backend call.
type StoreError struct {
	Op  string // list, create, delete
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ScheduleStore is the single owner of the schedule collection.
type ScheduleStore struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time

	current atomic.Pointer[[]models.Schedule]
	tempSeq atomic.Uint64

	// writeMu serializes read-modify-replace cycles and subscriber delivery.
	writeMu sync.Mutex

	subMu   sync.Mutex
	subs    map[uint64]func([]models.Schedule)
	nextSub uint64
}

// New returns an empty store backed by backend.
func New(backend Backend, logger *slog.Logger) *ScheduleStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ScheduleStore{
		backend: backend,
		log:     logger,
		now:     time.Now,
		subs:    make(map[uint64]func([]models.Schedule)),
	}
	empty := []models.Schedule{}
	s.current.Store(&empty)
	return s
}

// List returns the current collection. Callers own the returned slice.
func (s *ScheduleStore) List() []models.Schedule {
	return slices.Clone(*s.current.Load())
}

// Get returns the schedule with the given id.
func (s *ScheduleStore) Get(id string) (models.Schedule, bool) {
	for _, sc := range *s.current.Load() {
		if sc.ID == id {
			return sc, true
		}
	}
	return models.Schedule{}, false
}

// Replace swaps in a new collection and notifies subscribers.
func (s *ScheduleStore) Replace(list []models.Schedule) {
	next := slices.Clone(list)
	s.update(func([]models.Schedule) []models.Schedule { return next })
}

// Subscribe registers fn to receive every new collection. fn runs synchronously while
// the store holds its write lock, so it must not call Replace, Create, Delete or Refresh.
// The returned function removes the subscription.
func (s *ScheduleStore) Subscribe(fn func([]models.Schedule)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Refresh reloads the whole collection from the backend.
func (s *ScheduleStore) Refresh(ctx context.Context) error {
	list, err := s.backend.List(ctx)
	if err != nil {
		return &StoreError{Op: "list", Err: err}
	}
	sortNewestFirst(list)
	s.Replace(list)
	return nil
}

// Create inserts sched under a temporary id, persists it and swaps in the permanent
// record. If the backend fails, only that temporary entry is removed again. If the temp
// entry was replaced meanwhile (a Refresh during the insert), the saved record is added.
func (s *ScheduleStore) Create(ctx context.Context, sched models.Schedule) (models.Schedule, error) {
	now := s.now()
	tempID := fmt.Sprintf("%s%d-%d", TempIDPrefix, now.UnixMilli(), s.tempSeq.Add(1))
	sched.ID = tempID
	sched.CreatedAt = now

	s.update(func(list []models.Schedule) []models.Schedule {
		out := append(slices.Clone(list), sched)
		sortNewestFirst(out)
		return out
	})

	pending := sched
	pending.ID = ""
	saved, err := s.backend.Create(ctx, pending)
	if err != nil {
		s.update(func(list []models.Schedule) []models.Schedule {
			return slices.DeleteFunc(slices.Clone(list), func(x models.Schedule) bool { return x.ID == tempID })
		})
		s.log.Warn("schedule create rolled back", "temp_id", tempID, "error", err)
		return models.Schedule{}, &StoreError{Op: "create", Err: err}
	}

	s.update(func(list []models.Schedule) []models.Schedule {
		out := slices.Clone(list)
		i := slices.IndexFunc(out, func(x models.Schedule) bool { return x.ID == tempID })
		switch {
		case i >= 0:
			out[i] = saved
		case !slices.ContainsFunc(out, func(x models.Schedule) bool { return x.ID == saved.ID }):
			out = append(out, saved)
		}
		sortNewestFirst(out)
		return out
	})
	return saved, nil
}

// Delete removes a schedule and deletes it from the backend. If the backend fails the
// schedule is put back at its previous position. A backend that no longer holds the id
// counts as deleted.
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	var (
		removed models.Schedule
		pos     = -1
	)
	s.update(func(list []models.Schedule) []models.Schedule {
		i := slices.IndexFunc(list, func(x models.Schedule) bool { return x.ID == id })
		if i < 0 {
			return list
		}
		removed, pos = list[i], i
		return slices.Delete(slices.Clone(list), i, i+1)
	})
	if pos < 0 {
		return ErrNotFound
	}

	err := s.backend.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.log.Info("schedule already removed from backend", "id", id)
		return nil
	}
	if err != nil {
		s.update(func(list []models.Schedule) []models.Schedule {
			if slices.ContainsFunc(list, func(x models.Schedule) bool { return x.ID == id }) {
				return list
			}
			return slices.Insert(slices.Clone(list), min(pos, len(list)), removed)
		})
		s.log.Warn("schedule delete rolled back", "id", id, "error", err)
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// IsTemp reports whether id is a temporary, not yet persisted id.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

func (s *ScheduleStore) update(fn func([]models.Schedule) []models.Schedule) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(*s.current.Load())
	if next == nil {
		next = []models.Schedule{}
	}
	s.current.Store(&next)

	s.subMu.Lock()
	fns := make([]func([]models.Schedule), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(next))
	}
}

func sortNewestFirst(list []models.Schedule) {
	slices.SortStableFunc(list, func(a, b models.Schedule) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
