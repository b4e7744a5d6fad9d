package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// StoreSuite exercises the Stores contract. It is run against the in-memory
// implementation here and against PostgreSQL in the integration build.
type StoreSuite struct {
	suite.Suite
	newStores func() Stores
	stores    Stores
	ctx       context.Context
}

func (s *StoreSuite) SetupTest() {
	s.stores = s.newStores()
	s.ctx = context.Background()
}

func (s *StoreSuite) newEvent(limit int) *model.Event {
	e := &model.Event{
		ID:            uuid.NewString(),
		Name:          "Annual Conference",
		AttendeeLimit: limit,
		Location:      "Convention Center",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.stores.Events.Create(s.ctx, e))
	return e
}

func (s *StoreSuite) newAttendee(eventID, badge, email string) *model.Attendee {
	return &model.Attendee{
		ID:        uuid.NewString(),
		BadgeID:   badge,
		FirstName: "John",
		LastName:  "Doe",
		Email:     email,
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *StoreSuite) newEntrance(eventID, name string) *model.Entrance {
	e := &model.Entrance{
		ID:        uuid.NewString(),
		Name:      name,
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.stores.Entrances.Create(s.ctx, e))
	return e
}

func (s *StoreSuite) TestEvents() {
	s.Run("creates, lists in insertion order and gets", func() {
		first := s.newEvent(10)
		second := s.newEvent(20)

		events, err := s.stores.Events.List(s.ctx)
		s.Require().NoError(err)
		s.Require().GreaterOrEqual(len(events), 2)
		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		s.Less(indexOf(ids, first.ID), indexOf(ids, second.ID))

		got, err := s.stores.Events.Get(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Equal("Annual Conference", got.Name)
		s.Equal(0, got.RegisteredCount)
	})

	s.Run("applies only supplied fields on update", func() {
		e := s.newEvent(10)
		name := "Tech Summit"

		got, err := s.stores.Events.Update(s.ctx, e.ID, model.EventPatch{Name: &name})
		s.Require().NoError(err)
		s.Equal("Tech Summit", got.Name)
		s.Equal(10, got.AttendeeLimit)
		s.Equal("Convention Center", got.Location)
	})

	s.Run("adjusts registered count without going negative", func() {
		e := s.newEvent(10)
		s.Require().NoError(s.stores.Events.AdjustRegistered(s.ctx, e.ID, 2))
		s.Require().NoError(s.stores.Events.AdjustRegistered(s.ctx, e.ID, -5))

		got, err := s.stores.Events.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(0, got.RegisteredCount)
	})

	s.Run("deletes and reports missing ids", func() {
		e := s.newEvent(10)
		deleted, err := s.stores.Events.Delete(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.ID, deleted.ID)

		_, err = s.stores.Events.Get(s.ctx, e.ID)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.stores.Events.Delete(s.ctx, e.ID)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.stores.Events.Update(s.ctx, e.ID, model.EventPatch{})
		s.ErrorIs(err, ErrNotFound)
		s.ErrorIs(s.stores.Events.AdjustRegistered(s.ctx, e.ID, 1), ErrNotFound)
	})
}

func (s *StoreSuite) TestAttendees() {
	s.Run("rejects a duplicate badge across events", func() {
		e1 := s.newEvent(10)
		e2 := s.newEvent(10)
		badge := "B-" + uuid.NewString()

		s.Require().NoError(s.stores.Attendees.Create(s.ctx, s.newAttendee(e1.ID, badge, "a@example.com")))
		err := s.stores.Attendees.Create(s.ctx, s.newAttendee(e2.ID, badge, "b@example.com"))
		s.ErrorIs(err, ErrBadgeTaken)
	})

	s.Run("filters by event and keeps insertion order", func() {
		e1 := s.newEvent(10)
		e2 := s.newEvent(10)
		a1 := s.newAttendee(e1.ID, "B-"+uuid.NewString(), "a1@example.com")
		a2 := s.newAttendee(e2.ID, "B-"+uuid.NewString(), "a2@example.com")
		a3 := s.newAttendee(e1.ID, "B-"+uuid.NewString(), "a3@example.com")
		for _, a := range []*model.Attendee{a1, a2, a3} {
			s.Require().NoError(s.stores.Attendees.Create(s.ctx, a))
		}

		got, err := s.stores.Attendees.List(s.ctx, e1.ID)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(a1.ID, got[0].ID)
		s.Equal(a3.ID, got[1].ID)

		byBadge, err := s.stores.Attendees.GetByBadge(s.ctx, a2.BadgeID)
		s.Require().NoError(err)
		s.Equal(a2.ID, byBadge.ID)
	})

	s.Run("matches emails case-insensitively per event", func() {
		e1 := s.newEvent(10)
		e2 := s.newEvent(10)
		s.Require().NoError(s.stores.Attendees.Create(s.ctx, s.newAttendee(e1.ID, "B-"+uuid.NewString(), "Jane.Smith@Example.com")))

		taken, err := s.stores.Attendees.EmailTaken(s.ctx, e1.ID, "jane.smith@example.COM")
		s.Require().NoError(err)
		s.True(taken)

		taken, err = s.stores.Attendees.EmailTaken(s.ctx, e2.ID, "jane.smith@example.com")
		s.Require().NoError(err)
		s.False(taken)
	})

	s.Run("marks checked in and overwrites on re-check-in", func() {
		e := s.newEvent(10)
		a := s.newAttendee(e.ID, "B-"+uuid.NewString(), "c@example.com")
		s.Require().NoError(s.stores.Attendees.Create(s.ctx, a))

		first := time.Now().UTC().Truncate(time.Microsecond)
		got, err := s.stores.Attendees.MarkCheckedIn(s.ctx, a.ID, first, "Main Entrance")
		s.Require().NoError(err)
		s.True(got.CheckedIn)
		s.Equal("Main Entrance", got.Entrance)

		second := first.Add(time.Minute)
		got, err = s.stores.Attendees.MarkCheckedIn(s.ctx, a.ID, second, "VIP Entrance")
		s.Require().NoError(err)
		s.Require().NotNil(got.CheckedInAt)
		s.True(second.Equal(*got.CheckedInAt))
		s.Equal("VIP Entrance", got.Entrance)

		all, err := s.stores.Attendees.List(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("counts stats and orders recent check-ins newest first", func() {
		e := s.newEvent(10)
		base := time.Now().UTC().Truncate(time.Microsecond)
		var ids []string
		for i := 0; i < 4; i++ {
			a := s.newAttendee(e.ID, "B-"+uuid.NewString(), fmt.Sprintf("r%d@example.com", i))
			s.Require().NoError(s.stores.Attendees.Create(s.ctx, a))
			ids = append(ids, a.ID)
		}
		// ids[3] stays unchecked.
		for i, offset := range []time.Duration{-30 * time.Minute, -5 * time.Minute, -60 * time.Minute} {
			_, err := s.stores.Attendees.MarkCheckedIn(s.ctx, ids[i], base.Add(offset), "")
			s.Require().NoError(err)
		}

		total, checkedIn, err := s.stores.Attendees.Stats(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(4, total)
		s.Equal(3, checkedIn)

		recent, err := s.stores.Attendees.RecentCheckIns(s.ctx, e.ID, 2)
		s.Require().NoError(err)
		s.Require().Len(recent, 2)
		s.Equal(ids[1], recent[0].ID)
		s.Equal(ids[0], recent[1].ID)
	})

	s.Run("deletes and frees the badge", func() {
		e := s.newEvent(10)
		a := s.newAttendee(e.ID, "B-"+uuid.NewString(), "d@example.com")
		s.Require().NoError(s.stores.Attendees.Create(s.ctx, a))

		_, err := s.stores.Attendees.Delete(s.ctx, a.ID)
		s.Require().NoError(err)
		_, err = s.stores.Attendees.GetByBadge(s.ctx, a.BadgeID)
		s.ErrorIs(err, ErrNotFound)

		again := s.newAttendee(e.ID, a.BadgeID, "d@example.com")
		s.NoError(s.stores.Attendees.Create(s.ctx, again))
	})
}

func (s *StoreSuite) TestEntrances() {
	s.Run("rejects a duplicate name within an event only", func() {
		e1 := s.newEvent(10)
		e2 := s.newEvent(10)
		s.newEntrance(e1.ID, "Main Entrance")

		err := s.stores.Entrances.Create(s.ctx, &model.Entrance{
			ID: uuid.NewString(), Name: "Main Entrance", EventID: e1.ID, CreatedAt: time.Now(),
		})
		s.ErrorIs(err, ErrEntranceExists)

		s.newEntrance(e2.ID, "Main Entrance")
	})

	s.Run("updates fields and guards renames", func() {
		e := s.newEvent(10)
		main := s.newEntrance(e.ID, "Main Entrance")
		vip := s.newEntrance(e.ID, "VIP Entrance")

		capacity := 200
		got, err := s.stores.Entrances.Update(s.ctx, main.ID, model.EntrancePatch{MaxCapacity: &capacity})
		s.Require().NoError(err)
		s.Require().NotNil(got.MaxCapacity)
		s.Equal(200, *got.MaxCapacity)
		s.Equal("Main Entrance", got.Name)

		clash := "Main Entrance"
		_, err = s.stores.Entrances.Update(s.ctx, vip.ID, model.EntrancePatch{Name: &clash})
		s.ErrorIs(err, ErrEntranceExists)

		_, err = s.stores.Entrances.Update(s.ctx, uuid.NewString(), model.EntrancePatch{})
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("records scans and filters by event", func() {
		e := s.newEvent(10)
		other := s.newEvent(10)
		ent := s.newEntrance(e.ID, "Side Entrance")
		s.newEntrance(other.ID, "Side Entrance")

		at := time.Now().UTC().Truncate(time.Microsecond)
		got, err := s.stores.Entrances.RecordScan(s.ctx, ent.ID, at)
		s.Require().NoError(err)
		s.Equal(int64(1), got.ScanCount)
		s.Require().NotNil(got.LastScanTime)
		s.True(at.Equal(*got.LastScanTime))

		list, err := s.stores.Entrances.List(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(ent.ID, list[0].ID)

		_, err = s.stores.Entrances.RecordScan(s.ctx, uuid.NewString(), at)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("counts concurrent scans without losing updates", func() {
		e := s.newEvent(10)
		ent := s.newEntrance(e.ID, "Busy Entrance")

		const scans = 50
		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < scans; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.stores.Entrances.RecordScan(s.ctx, ent.ID, time.Now()); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		s.Require().Zero(failures.Load())
		got, err := s.stores.Entrances.Get(s.ctx, ent.ID)
		s.Require().NoError(err)
		s.Equal(int64(scans), got.ScanCount)
	})

	s.Run("deletes", func() {
		e := s.newEvent(10)
		ent := s.newEntrance(e.ID, "Temporary")
		s.Require().NoError(s.stores.Entrances.Delete(s.ctx, ent.ID))
		s.ErrorIs(s.stores.Entrances.Delete(s.ctx, ent.ID), ErrNotFound)
	})
}

func (s *StoreSuite) TestCheckInLog() {
	e := s.newEvent(10)
	a := s.newAttendee(e.ID, "B-"+uuid.NewString(), "log@example.com")
	s.Require().NoError(s.stores.Attendees.Create(s.ctx, a))

	for _, name := range []string{"Main Entrance", ""} {
		s.Require().NoError(s.stores.CheckIns.Append(s.ctx, &model.CheckIn{
			ID:           uuid.NewString(),
			AttendeeID:   a.ID,
			BadgeID:      a.BadgeID,
			EventID:      e.ID,
			EntranceName: name,
			CheckedInAt:  time.Now().UTC(),
		}))
	}

	entries, err := s.stores.CheckIns.ListByAttendee(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("Main Entrance", entries[0].EntranceName)
	s.Empty(entries[1].EntranceName)

	none, err := s.stores.CheckIns.ListByAttendee(s.ctx, uuid.NewString())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreSuite) TestAtomic() {
	s.Run("nested units see outer writes", func() {
		e := s.newEvent(10)
		err := s.stores.Tx.Atomic(s.ctx, func(ctx context.Context) error {
			if _, err := s.stores.Events.Lock(ctx, e.ID); err != nil {
				return err
			}
			return s.stores.Tx.Atomic(ctx, func(ctx context.Context) error {
				return s.stores.Events.AdjustRegistered(ctx, e.ID, 1)
			})
		})
		s.Require().NoError(err)

		got, err := s.stores.Events.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(1, got.RegisteredCount)
	})

	s.Run("a failed inner unit does not abort the outer one", func() {
		e := s.newEvent(10)
		badge := "B-" + uuid.NewString()
		s.Require().NoError(s.stores.Attendees.Create(s.ctx, s.newAttendee(e.ID, badge, "x@example.com")))

		err := s.stores.Tx.Atomic(s.ctx, func(ctx context.Context) error {
			inner := s.stores.Tx.Atomic(ctx, func(ctx context.Context) error {
				return s.stores.Attendees.Create(ctx, s.newAttendee(e.ID, badge, "y@example.com"))
			})
			if !errors.Is(inner, ErrBadgeTaken) {
				return fmt.Errorf("expected badge conflict, got %v", inner)
			}
			return s.stores.Attendees.Create(ctx, s.newAttendee(e.ID, "B-"+uuid.NewString(), "z@example.com"))
		})
		s.Require().NoError(err)

		all, err := s.stores.Attendees.List(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("serialises read-modify-write on a locked event", func() {
		e := s.newEvent(100)
		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.stores.Tx.Atomic(s.ctx, func(ctx context.Context) error {
					if _, err := s.stores.Events.Lock(ctx, e.ID); err != nil {
						return err
					}
					return s.stores.Events.AdjustRegistered(ctx, e.ID, 1)
				})
			}()
		}
		wg.Wait()

		got, err := s.stores.Events.Get(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(workers, got.RegisteredCount)
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
