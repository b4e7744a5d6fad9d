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

// CheckInService coordinates the attendee and entrance registries on every
// check-in.
//
// An attendee is either not checked in or checked in. Checking in again is a
// valid self-transition: it refreshes checkedInAt and the entrance and
// appends another entry to the check-in log. There is no "already checked in"
// rejection.
type CheckInService struct {
	tx        repository.Transactor
	attendees repository.AttendeeStore
	entrances repository.EntranceStore
	log       repository.CheckInLog
	ids       idgen.Allocator
	v         *Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckInService constructs a CheckInService.
func NewCheckInService(d Deps) *CheckInService {
	d = d.withDefaults()
	return &CheckInService{
		tx:        d.Stores.Tx,
		attendees: d.Stores.Attendees,
		entrances: d.Stores.Entrances,
		log:       d.Stores.CheckIns,
		ids:       d.IDs,
		v:         d.Validator,
		metrics:   d.Metrics,
		logger:    d.Log,
		now:       d.Now,
	}
}

// CheckIn marks the attendee holding req.BadgeID as arrived. When
// req.EntranceID names a known entrance, its scan counter is incremented and
// its name is stamped on the attendee; an unknown entrance is skipped
// silently. The attendee update, the scan and the log entry commit as one
// unit, so stats readers never see one without the others.
func (s *CheckInService) CheckIn(ctx context.Context, req model.CheckInRequest) (*model.Attendee, error) {
	req.BadgeID = strings.TrimSpace(req.BadgeID)
	req.EntranceID = strings.TrimSpace(req.EntranceID)
	if err := s.v.Struct(req); err != nil {
		s.metrics.ObserveCheckIn(checkInResult(err))
		return nil, err
	}

	var updated *model.Attendee
	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		a, err := s.attendees.GetByBadge(ctx, req.BadgeID)
		if err != nil {
			return notFoundOr(err, "Attendee not found")
		}

		at := s.now()
		entry := &model.CheckIn{
			ID:          s.ids.Next(),
			AttendeeID:  a.ID,
			BadgeID:     a.BadgeID,
			EventID:     a.EventID,
			CheckedInAt: at,
		}

		if req.EntranceID != "" {
			entrance, err := s.entrances.Get(ctx, req.EntranceID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				s.logger.DebugContext(ctx, "unknown entrance on check-in, skipping",
					"badge_id", a.BadgeID,
					"entrance_id", req.EntranceID,
				)
			case err != nil:
				return err
			default:
				if _, err := s.entrances.RecordScan(ctx, entrance.ID, at); err != nil {
					return err
				}
				entry.EntranceID = entrance.ID
				entry.EntranceName = entrance.Name
			}
		}

		updated, err = s.attendees.MarkCheckedIn(ctx, a.ID, at, entry.EntranceName)
		if err != nil {
			return err
		}
		return s.log.Append(ctx, entry)
	})
	if err != nil {
		err = internal(err, "failed to check in attendee")
		s.metrics.ObserveCheckIn(checkInResult(err))
		return nil, err
	}

	s.metrics.ObserveCheckIn("ok")
	if updated.Entrance != "" {
		s.metrics.EntranceScans.Inc()
	}
	s.logger.DebugContext(ctx, "attendee checked in",
		"attendee_id", updated.ID,
		"badge_id", updated.BadgeID,
		"entrance", updated.Entrance,
	)
	return updated, nil
}

func checkInResult(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindValidation:
		return "invalid"
	}
	return "error"
}
