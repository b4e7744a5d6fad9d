package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// memState is the shared state behind every in-memory store. A single
// RWMutex guards all collections so Atomic can span stores.
type memState struct {
	mu sync.RWMutex

	events     map[string]*model.Event
	eventOrder []string

	attendees     map[string]*model.Attendee
	attendeeOrder []string
	badges        map[string]string // badge id -> attendee id

	entrances     map[string]*model.Entrance
	entranceOrder []string

	checkIns []model.CheckIn
}

type heldKey struct{}

// NewMemoryStores returns stores backed by process memory.
func NewMemoryStores() Stores {
	st := &memState{
		events:    make(map[string]*model.Event),
		attendees: make(map[string]*model.Attendee),
		badges:    make(map[string]string),
		entrances: make(map[string]*model.Entrance),
	}
	return Stores{
		Tx:        st,
		Events:    &memEvents{st},
		Attendees: &memAttendees{st},
		Entrances: &memEntrances{st},
		CheckIns:  &memCheckIns{st},
	}
}

func (s *memState) held(ctx context.Context) bool {
	owner, _ := ctx.Value(heldKey{}).(*memState)
	return owner == s
}

// write takes the write lock unless the caller is already inside Atomic.
func (s *memState) write(ctx context.Context) func() {
	if s.held(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memState) read(ctx context.Context) func() {
	if s.held(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// Atomic holds the store-wide write lock for the duration of fn. There is no
// rollback: callers do their lookups first and mutate only once nothing can
// fail.
func (s *memState) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.held(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, heldKey{}, s))
}

func removeID(order []string, id string) []string {
	if i := slices.Index(order, id); i >= 0 {
		return slices.Delete(order, i, i+1)
	}
	return order
}

// ─── Events ───────────────────────────────────────────────────────────────────

type memEvents struct{ st *memState }

func (r *memEvents) List(ctx context.Context) ([]model.Event, error) {
	defer r.st.read(ctx)()
	out := make([]model.Event, 0, len(r.st.eventOrder))
	for _, id := range r.st.eventOrder {
		out = append(out, *r.st.events[id])
	}
	return out, nil
}

func (r *memEvents) Get(ctx context.Context, id string) (*model.Event, error) {
	defer r.st.read(ctx)()
	e, ok := r.st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Lock is Get: inside Atomic the store-wide lock is already exclusive.
func (r *memEvents) Lock(ctx context.Context, id string) (*model.Event, error) {
	return r.Get(ctx, id)
}

func (r *memEvents) Create(ctx context.Context, e *model.Event) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.events[e.ID]; ok {
		return ErrConflict
	}
	cp := *e
	r.st.events[e.ID] = &cp
	r.st.eventOrder = append(r.st.eventOrder, e.ID)
	return nil
}

func (r *memEvents) Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error) {
	defer r.st.write(ctx)()
	e, ok := r.st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(e)
	cp := *e
	return &cp, nil
}

func (r *memEvents) Delete(ctx context.Context, id string) (*model.Event, error) {
	defer r.st.write(ctx)()
	e, ok := r.st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.st.events, id)
	r.st.eventOrder = removeID(r.st.eventOrder, id)
	return e, nil
}

func (r *memEvents) AdjustRegistered(ctx context.Context, id string, delta int) error {
	defer r.st.write(ctx)()
	e, ok := r.st.events[id]
	if !ok {
		return ErrNotFound
	}
	e.RegisteredCount = max(e.RegisteredCount+delta, 0)
	return nil
}

// ─── Attendees ────────────────────────────────────────────────────────────────

type memAttendees struct{ st *memState }

func (r *memAttendees) List(ctx context.Context, eventID string) ([]model.Attendee, error) {
	defer r.st.read(ctx)()
	out := make([]model.Attendee, 0, len(r.st.attendeeOrder))
	for _, id := range r.st.attendeeOrder {
		a := r.st.attendees[id]
		if eventID == "" || a.EventID == eventID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAttendees) Get(ctx context.Context, id string) (*model.Attendee, error) {
	defer r.st.read(ctx)()
	a, ok := r.st.attendees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAttendees) GetByBadge(ctx context.Context, badgeID string) (*model.Attendee, error) {
	defer r.st.read(ctx)()
	id, ok := r.st.badges[badgeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.st.attendees[id]
	return &cp, nil
}

func (r *memAttendees) EmailTaken(ctx context.Context, eventID, email string) (bool, error) {
	defer r.st.read(ctx)()
	for _, id := range r.st.attendeeOrder {
		a := r.st.attendees[id]
		if a.EventID == eventID && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAttendees) Create(ctx context.Context, a *model.Attendee) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.badges[a.BadgeID]; ok {
		return ErrBadgeTaken
	}
	if _, ok := r.st.attendees[a.ID]; ok {
		return ErrConflict
	}
	cp := *a
	r.st.attendees[a.ID] = &cp
	r.st.attendeeOrder = append(r.st.attendeeOrder, a.ID)
	r.st.badges[a.BadgeID] = a.ID
	return nil
}

func (r *memAttendees) MarkCheckedIn(ctx context.Context, id string, at time.Time, entrance string) (*model.Attendee, error) {
	defer r.st.write(ctx)()
	a, ok := r.st.attendees[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.CheckedIn = true
	a.CheckedInAt = &at
	a.Entrance = entrance
	cp := *a
	return &cp, nil
}

func (r *memAttendees) Delete(ctx context.Context, id string) (*model.Attendee, error) {
	defer r.st.write(ctx)()
	a, ok := r.st.attendees[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.st.attendees, id)
	delete(r.st.badges, a.BadgeID)
	r.st.attendeeOrder = removeID(r.st.attendeeOrder, id)
	return a, nil
}

func (r *memAttendees) Stats(ctx context.Context, eventID string) (int, int, error) {
	defer r.st.read(ctx)()
	var total, checkedIn int
	for _, a := range r.st.attendees {
		if a.EventID != eventID {
			continue
		}
		total++
		if a.CheckedIn {
			checkedIn++
		}
	}
	return total, checkedIn, nil
}

func (r *memAttendees) RecentCheckIns(ctx context.Context, eventID string, limit int) ([]model.Attendee, error) {
	defer r.st.read(ctx)()
	var out []model.Attendee
	for _, id := range r.st.attendeeOrder {
		a := r.st.attendees[id]
		if a.EventID == eventID && a.CheckedIn {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return checkInUnix(out[i]) > checkInUnix(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// checkInUnix orders attendees without a timestamp as earliest.
func checkInUnix(a model.Attendee) int64 {
	if a.CheckedInAt == nil {
		return 0
	}
	return a.CheckedInAt.UnixNano()
}

// ─── Entrances ────────────────────────────────────────────────────────────────

type memEntrances struct{ st *memState }

func (r *memEntrances) List(ctx context.Context, eventID string) ([]model.Entrance, error) {
	defer r.st.read(ctx)()
	out := make([]model.Entrance, 0, len(r.st.entranceOrder))
	for _, id := range r.st.entranceOrder {
		e := r.st.entrances[id]
		if eventID == "" || e.EventID == eventID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memEntrances) Get(ctx context.Context, id string) (*model.Entrance, error) {
	defer r.st.read(ctx)()
	e, ok := r.st.entrances[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// nameTaken must be called with the lock held.
func (r *memEntrances) nameTaken(eventID, name, exceptID string) bool {
	for id, e := range r.st.entrances {
		if id != exceptID && e.EventID == eventID && e.Name == name {
			return true
		}
	}
	return false
}

func (r *memEntrances) Create(ctx context.Context, e *model.Entrance) error {
	defer r.st.write(ctx)()
	if r.nameTaken(e.EventID, e.Name, "") {
		return ErrEntranceExists
	}
	if _, ok := r.st.entrances[e.ID]; ok {
		return ErrConflict
	}
	cp := *e
	r.st.entrances[e.ID] = &cp
	r.st.entranceOrder = append(r.st.entranceOrder, e.ID)
	return nil
}

func (r *memEntrances) Update(ctx context.Context, id string, patch model.EntrancePatch) (*model.Entrance, error) {
	defer r.st.write(ctx)()
	e, ok := r.st.entrances[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *e
	patch.Apply(&next)
	if r.nameTaken(next.EventID, next.Name, id) {
		return nil, ErrEntranceExists
	}
	*e = next
	return &next, nil
}

func (r *memEntrances) Delete(ctx context.Context, id string) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.entrances[id]; !ok {
		return ErrNotFound
	}
	delete(r.st.entrances, id)
	r.st.entranceOrder = removeID(r.st.entranceOrder, id)
	return nil
}

func (r *memEntrances) RecordScan(ctx context.Context, id string, at time.Time) (*model.Entrance, error) {
	defer r.st.write(ctx)()
	e, ok := r.st.entrances[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.ScanCount++
	e.LastScanTime = &at
	cp := *e
	return &cp, nil
}

// ─── Check-in log ─────────────────────────────────────────────────────────────

type memCheckIns struct{ st *memState }

func (r *memCheckIns) Append(ctx context.Context, c *model.CheckIn) error {
	defer r.st.write(ctx)()
	r.st.checkIns = append(r.st.checkIns, *c)
	return nil
}

func (r *memCheckIns) ListByAttendee(ctx context.Context, attendeeID string) ([]model.CheckIn, error) {
	defer r.st.read(ctx)()
	out := []model.CheckIn{}
	for _, c := range r.st.checkIns {
		if c.AttendeeID == attendeeID {
			out = append(out, c)
		}
	}
	return out, nil
}
