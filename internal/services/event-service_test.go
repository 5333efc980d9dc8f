package services

import (
	"testing"
	"time"

	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, env *testEnv, points int, capacity *int, published bool) *domain.Event {
	t.Helper()
	e := &domain.Event{
		Name:         "orientation",
		Location:     "BA 1160",
		StartTime:    time.Now().Add(time.Hour),
		EndTime:      time.Now().Add(3 * time.Hour),
		Capacity:     capacity,
		PointsRemain: points,
		Published:    published,
	}
	require.NoError(t, env.db.Create(e).Error)
	return e
}

func TestCreateEventValidation(t *testing.T) {
	env := setupEnv(t)

	_, err := env.event.CreateEvent(dto.CreateEventRequest{
		Name:      "hackathon",
		Location:  "MY 150",
		StartTime: isoIn(time.Hour),
		EndTime:   isoIn(2 * time.Hour),
	})
	require.Error(t, err) // missing points

	resp, err := env.event.CreateEvent(dto.CreateEventRequest{
		Name:      "hackathon",
		Location:  "MY 150",
		StartTime: isoIn(time.Hour),
		EndTime:   isoIn(2 * time.Hour),
		Capacity:  intPtr(100),
		Points:    intPtr(500),
	})
	require.NoError(t, err)
	require.Equal(t, 500, *resp.PointsRemain)
	require.Equal(t, 0, *resp.PointsAwarded)
	require.False(t, *resp.Published)
}

func TestEventVisibility(t *testing.T) {
	env := setupEnv(t)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	regular := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	hidden := seedEvent(t, env, 100, nil, false)

	// unpublished events do not exist for regular users
	_, err := env.event.GetEvent(regular, hidden.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)

	got, err := env.event.GetEvent(manager, hidden.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PointsRemain)

	// publishing is one-way and manager-only
	_, err = env.event.UpdateEvent(regular, hidden.ID, dto.UpdateEventRequest{
		Published: boolPtr(true),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)

	_, err = env.event.UpdateEvent(manager, hidden.ID, dto.UpdateEventRequest{
		Published: boolPtr(true),
	})
	require.NoError(t, err)

	_, err = env.event.UpdateEvent(manager, hidden.ID, dto.UpdateEventRequest{
		Published: boolPtr(false),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)

	// now visible, with the budget fields hidden
	got, err = env.event.GetEvent(regular, hidden.ID)
	require.NoError(t, err)
	require.Nil(t, got.PointsRemain)
	require.Nil(t, got.Published)
}

func TestJoinEventCapacity(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 100, intPtr(2), true)

	a := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)
	b := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)
	c := seedUser(t, env.db, "carol789", domain.RoleRegular, 0, true)

	first, err := env.event.JoinEvent(a, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.NumGuests)

	second, err := env.event.JoinEvent(b, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, second.NumGuests)

	_, err = env.event.JoinEvent(c, event.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)

	// duplicate RSVP rejected
	_, err = env.event.JoinEvent(a, event.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)

	// leaving frees the seat
	require.NoError(t, env.event.LeaveEvent(a, event.ID))
	third, err := env.event.JoinEvent(c, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, third.NumGuests)
}

func TestListEventsSkipsFullBeforePaging(t *testing.T) {
	env := setupEnv(t)
	viewer := seedUser(t, env.db, "carol789", domain.RoleRegular, 0, true)
	guest := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	full := seedEvent(t, env, 100, intPtr(1), true)
	_, err := env.event.JoinEvent(guest, full.ID)
	require.NoError(t, err)
	open := seedEvent(t, env, 100, nil, true)

	// the full event is excluded before pagination, so the first page is
	// not short and the count matches what is returned
	resp, err := env.event.ListEvents(viewer, dto.EventFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Count)
	require.Len(t, resp.Results, 1)
	require.Equal(t, open.ID, resp.Results[0].ID)

	showFull := true
	both, err := env.event.ListEvents(viewer, dto.EventFilter{ShowFull: &showFull})
	require.NoError(t, err)
	require.Equal(t, int64(2), both.Count)
	require.Len(t, both.Results, 2)
}

func TestJoinUnpublishedEventHidden(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 100, nil, false)
	a := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	_, err := env.event.JoinEvent(a, event.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)
}

func TestOrganizersAndGuestsDisjoint(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 100, nil, true)
	a := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	_, err := env.event.AddOrganizer(event.ID, a.Utorid)
	require.NoError(t, err)

	// an organizer cannot RSVP as a guest
	_, err = env.event.JoinEvent(a, event.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)

	b := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)
	_, err = env.event.JoinEvent(b, event.ID)
	require.NoError(t, err)

	// and a guest cannot be added as an organizer
	_, err = env.event.AddOrganizer(event.ID, b.Utorid)
	require.Error(t, err)
	require.IsType(t, &apperrors.ConflictError{}, err)
}

func TestTargetedAwardMovesBudget(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 100, nil, true)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	guest := seedUser(t, env.db, "alice123", domain.RoleRegular, 5, true)

	_, err := env.event.JoinEvent(guest, event.ID)
	require.NoError(t, err)

	results, err := env.event.AwardPoints(manager, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Utorid: &guest.Utorid,
		Amount: 40,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, guest.Utorid, results[0].Recipient)
	require.Equal(t, event.ID, results[0].RelatedID)

	require.Equal(t, 45, reload(t, env.db, guest.ID).Points)

	fresh := &domain.Event{}
	require.NoError(t, env.db.First(fresh, event.ID).Error)
	require.Equal(t, 60, fresh.PointsRemain)
	require.Equal(t, 40, fresh.PointsAwarded)

	// a targeted award beyond the remaining budget is rejected
	_, err = env.event.AwardPoints(manager, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Utorid: &guest.Utorid,
		Amount: 61,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
	require.Equal(t, 45, reload(t, env.db, guest.ID).Points)
}

func TestBroadcastAwardAllOrNothing(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 50, nil, true)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	a := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)
	b := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)
	for _, u := range []*domain.User{a, b} {
		_, err := env.event.JoinEvent(u, event.ID)
		require.NoError(t, err)
	}

	// 30 x 2 guests = 60 > 50 remaining: nothing moves
	_, err := env.event.AwardPoints(manager, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Amount: 30,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)
	require.Equal(t, 0, reload(t, env.db, a.ID).Points)
	require.Equal(t, 0, reload(t, env.db, b.ID).Points)
	var count int64
	require.NoError(t, env.db.Model(&domain.Transaction{}).Count(&count).Error)
	require.Zero(t, count)

	results, err := env.event.AwardPoints(manager, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Amount: 25,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 25, reload(t, env.db, a.ID).Points)
	require.Equal(t, 25, reload(t, env.db, b.ID).Points)

	fresh := &domain.Event{}
	require.NoError(t, env.db.First(fresh, event.ID).Error)
	require.Equal(t, 0, fresh.PointsRemain)
	require.Equal(t, 50, fresh.PointsAwarded)
}

func TestOrganizerCanAwardButNotPublish(t *testing.T) {
	env := setupEnv(t)
	event := seedEvent(t, env, 100, nil, true)
	organizer := seedUser(t, env.db, "orga1234", domain.RoleRegular, 0, true)
	guest := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)

	_, err := env.event.AddOrganizer(event.ID, organizer.Utorid)
	require.NoError(t, err)
	_, err = env.event.JoinEvent(guest, event.ID)
	require.NoError(t, err)

	_, err = env.event.AwardPoints(organizer, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Utorid: &guest.Utorid,
		Amount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 10, reload(t, env.db, guest.ID).Points)

	// organizers cannot touch the budget total or publication
	_, err = env.event.UpdateEvent(organizer, event.ID, dto.UpdateEventRequest{
		Points: intPtr(1000),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)

	// non-organizer regulars cannot award at all
	stranger := seedUser(t, env.db, "eve99999", domain.RoleRegular, 0, true)
	_, err = env.event.AwardPoints(stranger, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Utorid: &guest.Utorid,
		Amount: 10,
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)
}

func TestUpdateEventConstraints(t *testing.T) {
	env := setupEnv(t)
	manager := seedUser(t, env.db, "manager1", domain.RoleManager, 0, true)
	event := seedEvent(t, env, 100, intPtr(3), true)

	a := seedUser(t, env.db, "alice123", domain.RoleRegular, 0, true)
	b := seedUser(t, env.db, "bob45678", domain.RoleRegular, 0, true)
	for _, u := range []*domain.User{a, b} {
		_, err := env.event.JoinEvent(u, event.ID)
		require.NoError(t, err)
	}

	// capacity cannot drop below the current guest count
	_, err := env.event.UpdateEvent(manager, event.ID, dto.UpdateEventRequest{
		Capacity: intPtr(1),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)

	// budget cannot drop below what was already awarded
	_, err = env.event.AwardPoints(manager, event.ID, dto.AwardPointsRequest{
		Type:   domain.TxEvent,
		Utorid: &a.Utorid,
		Amount: 60,
	})
	require.NoError(t, err)

	_, err = env.event.UpdateEvent(manager, event.ID, dto.UpdateEventRequest{
		Points: intPtr(50),
	})
	require.Error(t, err)
	require.IsType(t, &apperrors.ValidationError{}, err)

	resp, err := env.event.UpdateEvent(manager, event.ID, dto.UpdateEventRequest{
		Points: intPtr(80),
	})
	require.NoError(t, err)
	require.Equal(t, 20, *resp.PointsRemain)
	require.Equal(t, 60, *resp.PointsAwarded)
}

func TestDeletePublishedEventForbidden(t *testing.T) {
	env := setupEnv(t)
	published := seedEvent(t, env, 100, nil, true)

	err := env.event.DeleteEvent(published.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.ForbiddenError{}, err)

	draft := seedEvent(t, env, 100, nil, false)
	require.NoError(t, env.event.DeleteEvent(draft.ID))

	err = env.event.DeleteEvent(draft.ID)
	require.Error(t, err)
	require.IsType(t, &apperrors.NotFoundError{}, err)
}
