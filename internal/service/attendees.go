package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/metrics"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// DefaultRecentLimit is both the default and the largest number of recent
// check-ins returned.
const DefaultRecentLimit = 10

// AttendeeService owns attendee records: registration, lookup and the
// per-event attendance views.
type AttendeeService struct {
	tx        repository.Transactor
	events    repository.EventStore
	attendees repository.AttendeeStore
	checkIns  repository.CheckInLog
	ids       idgen.Allocator
	v         *Validator
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewAttendeeService constructs an AttendeeService.
func NewAttendeeService(d Deps) *AttendeeService {
	d = d.withDefaults()
	return &AttendeeService{
		tx:        d.Stores.Tx,
		events:    d.Stores.Events,
		attendees: d.Stores.Attendees,
		checkIns:  d.Stores.CheckIns,
		ids:       d.IDs,
		v:         d.Validator,
		metrics:   d.Metrics,
		log:       d.Log,
		now:       d.Now,
	}
}

// List returns attendees in registration order, optionally for one event.
func (s *AttendeeService) List(ctx context.Context, eventID string) ([]model.Attendee, error) {
	attendees, err := s.attendees.List(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return nil, internal(err, "failed to list attendees")
	}
	return attendees, nil
}

// Get returns an attendee by id.
func (s *AttendeeService) Get(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := s.attendees.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Attendee not found")
	}
	return a, nil
}

// GetByBadge returns an attendee by badge id.
func (s *AttendeeService) GetByBadge(ctx context.Context, badgeID string) (*model.Attendee, error) {
	a, err := s.attendees.GetByBadge(ctx, strings.TrimSpace(badgeID))
	if err != nil {
		return nil, notFoundOr(err, "Attendee not found")
	}
	return a, nil
}

// Register creates one attendee. The event row is locked for the whole unit
// so the capacity check and the registeredCount increment cannot race with
// other registrations for the same event; the badge id must not exist
// anywhere in the registry.
func (s *AttendeeService) Register(ctx context.Context, req model.RegisterAttendeeRequest) (*model.Attendee, error) {
	req = trimRegister(req)
	if err := s.v.Struct(req); err != nil {
		return nil, err
	}

	a := &model.Attendee{
		ID:        s.ids.Next(),
		BadgeID:   req.BadgeID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		EventID:   req.EventID,
		Phone:     req.Phone,
		Company:   req.Company,
		JobTitle:  req.JobTitle,
		CreatedAt: s.now(),
	}

	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		event, err := s.events.Lock(ctx, req.EventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}
		if event.IsFull() {
			return apperr.Conflict("Event is fully booked")
		}
		if err := s.attendees.Create(ctx, a); err != nil {
			return createErr(err)
		}
		return s.events.AdjustRegistered(ctx, event.ID, 1)
	})
	if err != nil {
		return nil, internal(err, "failed to register attendee")
	}

	s.metrics.ObserveRegistered(metrics.ModeSingle, 1)
	s.log.InfoContext(ctx, "attendee registered",
		"attendee_id", a.ID,
		"badge_id", a.BadgeID,
		"event_id", a.EventID,
	)
	return a, nil
}

// BulkRegister imports rows for one event. Rows are processed in order and
// independently: a failing row is reported and skipped, successful rows are
// kept. The whole batch runs under the event lock, so every row's duplicate
// email check sees the rows committed before it, including earlier rows of
// the same batch.
func (s *AttendeeService) BulkRegister(ctx context.Context, req model.BulkRegisterRequest) (*model.BulkResult, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	if err := s.v.Struct(req); err != nil {
		return nil, err
	}

	result := &model.BulkResult{CreatedAttendees: []model.Attendee{}}
	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		event, err := s.events.Lock(ctx, req.EventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}

		registered := event.RegisteredCount
		for i, row := range req.AttendeesData {
			a, err := s.registerRow(ctx, event, registered, row)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					return err
				}
				result.Errors = append(result.Errors, model.RowError{Row: i + 1, Error: apperr.Message(err)})
				continue
			}
			registered++
			result.CreatedAttendees = append(result.CreatedAttendees, *a)
		}

		if created := len(result.CreatedAttendees); created > 0 {
			return s.events.AdjustRegistered(ctx, event.ID, created)
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to import attendees")
	}

	result.CreatedCount = len(result.CreatedAttendees)
	result.ErrorCount = len(result.Errors)
	result.Success = result.ErrorCount == 0

	s.metrics.ObserveRegistered(metrics.ModeBulk, result.CreatedCount)
	s.metrics.BulkRowErrors.Add(float64(result.ErrorCount))
	s.log.InfoContext(ctx, "bulk registration finished",
		"event_id", req.EventID,
		"rows", len(req.AttendeesData),
		"created", result.CreatedCount,
		"errors", result.ErrorCount,
	)
	return result, nil
}

// registerRow validates and inserts one bulk row. It runs inside the batch
// unit with registered holding the event's count so far; the insert gets its
// own nested unit so a rejected row leaves the batch usable.
func (s *AttendeeService) registerRow(ctx context.Context, event *model.Event, registered int, row model.AttendeeRow) (*model.Attendee, error) {
	row = trimRow(row)
	if err := s.v.Struct(row); err != nil {
		return nil, err
	}
	if row.EventID != "" && row.EventID != event.ID {
		return nil, apperr.Validation("eventId %s does not match the import's event", row.EventID)
	}
	if registered >= event.AttendeeLimit {
		return nil, apperr.Conflict("Event is fully booked")
	}
	eventID := event.ID

	taken, err := s.attendees.EmailTaken(ctx, eventID, row.Email)
	if err != nil {
		return nil, internal(err, "failed to check email")
	}
	if taken {
		return nil, apperr.Conflict("Attendee with email %s already exists for this event", row.Email)
	}

	now := s.now()
	a := &model.Attendee{
		ID:        s.ids.Next(),
		BadgeID:   row.BadgeID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		EventID:   eventID,
		Phone:     row.Phone,
		Company:   row.Company,
		JobTitle:  row.JobTitle,
		CreatedAt: now,
	}
	if a.BadgeID == "" {
		a.BadgeID = idgen.BadgeID(now, a.ID)
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		return s.attendees.Create(ctx, a)
	})
	if err != nil {
		return nil, createErr(err)
	}
	return a, nil
}

// Delete removes an attendee and releases its slot on the event, if the
// event still exists.
func (s *AttendeeService) Delete(ctx context.Context, id string) error {
	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		a, err := s.attendees.Delete(ctx, id)
		if err != nil {
			return notFoundOr(err, "Attendee not found")
		}
		err = s.events.AdjustRegistered(ctx, a.EventID, -1)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return internal(err, "failed to delete attendee")
	}
	return nil
}

// Stats returns the event's attendance summary.
func (s *AttendeeService) Stats(ctx context.Context, eventID string) (*model.AttendanceStats, error) {
	total, checkedIn, err := s.attendees.Stats(ctx, eventID)
	if err != nil {
		return nil, internal(err, "failed to compute attendance stats")
	}
	return &model.AttendanceStats{
		TotalAttendees: total,
		CheckedIn:      checkedIn,
		Percentage:     percent(int64(checkedIn), int64(total)),
	}, nil
}

// RecentCheckIns returns up to limit checked-in attendees of the event,
// newest first. A limit outside 1..DefaultRecentLimit means DefaultRecentLimit.
func (s *AttendeeService) RecentCheckIns(ctx context.Context, eventID string, limit int) ([]model.Attendee, error) {
	if limit <= 0 || limit > DefaultRecentLimit {
		limit = DefaultRecentLimit
	}
	recent, err := s.attendees.RecentCheckIns(ctx, eventID, limit)
	if err != nil {
		return nil, internal(err, "failed to list recent check-ins")
	}
	return recent, nil
}

// History returns every check-in recorded for the attendee, oldest first.
func (s *AttendeeService) History(ctx context.Context, id string) ([]model.CheckIn, error) {
	if _, err := s.attendees.Get(ctx, id); err != nil {
		return nil, notFoundOr(err, "Attendee not found")
	}
	entries, err := s.checkIns.ListByAttendee(ctx, id)
	if err != nil {
		return nil, internal(err, "failed to list check-ins")
	}
	return entries, nil
}

func createErr(err error) error {
	if errors.Is(err, repository.ErrBadgeTaken) {
		return apperr.Conflict("Badge ID already exists")
	}
	return internal(err, "failed to store attendee")
}

func trimRegister(r model.RegisterAttendeeRequest) model.RegisterAttendeeRequest {
	r.BadgeID = strings.TrimSpace(r.BadgeID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.EventID = strings.TrimSpace(r.EventID)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	return r
}

func trimRow(r model.AttendeeRow) model.AttendeeRow {
	r.EventID = strings.TrimSpace(r.EventID)
	r.BadgeID = strings.TrimSpace(r.BadgeID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	return r
}
