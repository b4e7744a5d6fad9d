package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

func TestValidatorReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(model.RegisterAttendeeRequest{BadgeID: "B1", LastName: "Doe", Email: "j@x.io", EventID: "1"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "firstName is required", apperr.Message(err))

	err = v.Struct(model.CreateEventRequest{Name: "Conf", AttendeeLimit: -1})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "attendeeLimit must be greater than 0", apperr.Message(err))

	err = v.Struct(model.BulkRegisterRequest{EventID: "1", AttendeesData: []model.AttendeeRow{}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "attendeesData must contain at least 1 item(s)", apperr.Message(err))
}

func TestValidatorJoinsEveryFailure(t *testing.T) {
	err := NewValidator().Struct(model.CheckInRequest{})
	assert.Equal(t, "badgeId is required", apperr.Message(err))

	err = NewValidator().Struct(model.CreateEntranceRequest{})
	assert.Equal(t, "name is required; eventId is required", apperr.Message(err))
}

func TestOptionalFieldChecks(t *testing.T) {
	blank := "   "
	assert.ErrorIs(t, nonBlank("name", &blank), apperr.ErrValidation)
	assert.NoError(t, nonBlank("name", nil))

	padded := "  Hall A "
	require.NoError(t, nonBlank("name", &padded))
	assert.Equal(t, "Hall A", padded)

	zero := 0
	assert.ErrorIs(t, positive("maxCapacity", &zero), apperr.ErrValidation)
	assert.NoError(t, positive("maxCapacity", nil))
}
