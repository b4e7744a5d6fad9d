package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

func TestEventLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	created, err := svc.Events.Create(ctx, model.CreateEventRequest{
		Name:          "  GopherCon  ",
		AttendeeLimit: 250,
		Location:      "Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, "GopherCon", created.Name)
	assert.Equal(t, 0, created.RegisteredCount)
	assert.Equal(t, 250, created.Remaining())

	name := "GopherCon EU"
	limit := 300
	updated, err := svc.Events.Update(ctx, created.ID, model.UpdateEventRequest{Name: &name, AttendeeLimit: &limit})
	require.NoError(t, err)
	assert.Equal(t, "GopherCon EU", updated.Name)
	assert.Equal(t, 300, updated.AttendeeLimit)
	assert.Equal(t, "Berlin", updated.Location)

	events, err := svc.Events.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	deleted, err := svc.Events.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Events.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Event not found", apperr.Message(err))
}

func TestEventValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	tests := []struct {
		name string
		req  model.CreateEventRequest
	}{
		{"blank name", model.CreateEventRequest{Name: "   ", AttendeeLimit: 10}},
		{"zero limit", model.CreateEventRequest{Name: "Conf"}},
		{"negative limit", model.CreateEventRequest{Name: "Conf", AttendeeLimit: -5}},
		{"limit too large", model.CreateEventRequest{Name: "Conf", AttendeeLimit: maxAttendeeLimit + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Events.Create(ctx, tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	e := mustEvent(t, svc, 10)
	empty := ""
	_, err := svc.Events.Update(ctx, e.ID, model.UpdateEventRequest{Name: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Events.Update(ctx, "missing", model.UpdateEventRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
