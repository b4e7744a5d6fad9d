package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// newTestServices wires every service over fresh in-memory stores.
func newTestServices(t *testing.T) (*Services, repository.Stores) {
	t.Helper()
	stores := repository.NewMemoryStores()
	return New(Deps{Stores: stores, IDs: idgen.NewSequence(0)}), stores
}

func mustEvent(t *testing.T, svc *Services, limit int) *model.Event {
	t.Helper()
	e, err := svc.Events.Create(context.Background(), model.CreateEventRequest{Name: "DevConf", AttendeeLimit: limit})
	require.NoError(t, err)
	return e
}

func mustAttendee(t *testing.T, svc *Services, eventID, badge, email string) *model.Attendee {
	t.Helper()
	a, err := svc.Attendees.Register(context.Background(), model.RegisterAttendeeRequest{
		BadgeID:   badge,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		EventID:   eventID,
	})
	require.NoError(t, err)
	return a
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{4, 4, 100},
	}
	for _, c := range cases {
		require.Equal(t, c.want, percent(c.part, c.whole), "%d/%d", c.part, c.whole)
	}
}
