// Package repository defines the persistence contract for events, attendees,
// entrances and the check-in log, with an in-memory implementation (tests,
// local development) and a PostgreSQL implementation built on pgx.
//
// Stores report infrastructure facts through the sentinel errors below; the
// service layer turns them into domain errors.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for uniqueness violations not covered below.
	ErrConflict = errors.New("conflict")

	// ErrBadgeTaken is returned when a badge id is already assigned.
	ErrBadgeTaken = errors.New("badge id already exists")

	// ErrEntranceExists is returned when an event already has an entrance
	// with the same name.
	ErrEntranceExists = errors.New("entrance with this name already exists for this event")
)

// Transactor runs a function as a single unit of work. Everything fn does
// through the stores with the ctx it receives is applied together; concurrent
// readers never see a partially applied unit. Nested calls are allowed: in
// PostgreSQL they become savepoints, so an inner failure can be rolled back
// without aborting the outer unit.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore persists events.
type EventStore interface {
	List(ctx context.Context) ([]model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	// Lock returns the event and, inside Atomic, holds it exclusively until
	// the unit ends. Registrations for one event serialise on this lock.
	Lock(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, id string, patch model.EventPatch) (*model.Event, error)
	Delete(ctx context.Context, id string) (*model.Event, error)
	AdjustRegistered(ctx context.Context, id string, delta int) error
}

// AttendeeStore persists attendees. Badge ids are unique across the store.
type AttendeeStore interface {
	// List returns attendees in insertion order; an empty eventID lists all.
	List(ctx context.Context, eventID string) ([]model.Attendee, error)
	Get(ctx context.Context, id string) (*model.Attendee, error)
	GetByBadge(ctx context.Context, badgeID string) (*model.Attendee, error)
	// EmailTaken reports whether the event already has an attendee with this
	// email, compared case-insensitively.
	EmailTaken(ctx context.Context, eventID, email string) (bool, error)
	Create(ctx context.Context, a *model.Attendee) error
	MarkCheckedIn(ctx context.Context, id string, at time.Time, entrance string) (*model.Attendee, error)
	Delete(ctx context.Context, id string) (*model.Attendee, error)
	Stats(ctx context.Context, eventID string) (total, checkedIn int, err error)
	// RecentCheckIns returns checked-in attendees of the event, newest
	// check-in first, attendees without a timestamp last.
	RecentCheckIns(ctx context.Context, eventID string, limit int) ([]model.Attendee, error)
}

// EntranceStore persists entrances. (eventID, name) is unique.
type EntranceStore interface {
	List(ctx context.Context, eventID string) ([]model.Entrance, error)
	Get(ctx context.Context, id string) (*model.Entrance, error)
	Create(ctx context.Context, e *model.Entrance) error
	Update(ctx context.Context, id string, patch model.EntrancePatch) (*model.Entrance, error)
	Delete(ctx context.Context, id string) error
	// RecordScan increments the scan counter and stamps the scan time.
	RecordScan(ctx context.Context, id string, at time.Time) (*model.Entrance, error)
}

// CheckInLog is the append-only history of check-ins.
type CheckInLog interface {
	Append(ctx context.Context, c *model.CheckIn) error
	ListByAttendee(ctx context.Context, attendeeID string) ([]model.CheckIn, error)
}

// Stores bundles the sibling stores with the Transactor that couples them.
type Stores struct {
	Tx        Transactor
	Events    EventStore
	Attendees AttendeeStore
	Entrances EntranceStore
	CheckIns  CheckInLog
}
