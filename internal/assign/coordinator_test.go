package assign

import (
	"context"
	"testing"
	"time"

	"apptrack-engine/internal/apperr"
	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/stats"
	"apptrack-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, db *store.DB, ev domain.Event) {
	t.Helper()
	if ev.AssignmentStatus == "" {
		ev.AssignmentStatus = domain.AssignmentUnprocessed
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	added, err := store.InsertEventIgnore(context.Background(), db.Pool, ev)
	require.NoError(t, err)
	require.True(t, added)
}

func oaEvent(id, msgID string, received time.Time) domain.Event {
	return domain.Event{
		ID: id, UserID: "u1",
		CompanyName: "Stripe", RoleTitle: "Backend Engineer",
		Category: domain.CategoryOA, Status: domain.StatusOA,
		ReceivedAt:      received,
		SourceMessageID: msgID, ThreadID: "t1",
		Provider: "gmail", InboxEmail: "me@example.com",
	}
}

func TestAssignCreatesApplication(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")

	ev := oaEvent("e1", "msg-1", at("2026-03-01T10:00:00Z"))
	seedEvent(t, db, ev)
	_, err := store.InsertScheduledItemIgnore(ctx, db.Pool, domain.ScheduledItem{
		ID: "s1", UserID: "u1", EventID: "e1",
		Type: domain.ScheduledOA, Title: "HackerRank",
		StartAt: at("2026-03-05T10:00:00Z"), Timezone: "UTC",
		Source: domain.ScheduledAuto, SourceMessageID: "msg-1",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	app := apps[0]
	assert.Equal(t, "stripe", app.CompanyKey)
	assert.Equal(t, "backend engineer", app.RoleKey)
	assert.Equal(t, domain.StatusOA, app.Status)
	assert.Equal(t, 1, app.StatusRank)
	assert.True(t, app.IsActive)
	assert.Equal(t, at("2026-03-01T10:00:00Z"), app.AppliedAt)
	assert.Equal(t, "t1", app.Source.ThreadID)
	assert.Equal(t, "msg-1", app.Source.LastMessageID)

	got, err := store.GetEvent(ctx, db.Pool, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentAssigned, got.AssignmentStatus)
	assert.Equal(t, app.ID, got.ApplicationID)

	items, err := store.ListItemsByEvent(ctx, db.Pool, "e1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, app.ID, items[0].ApplicationID)

	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.OACount)
	assert.Equal(t, 1, snap.ActiveCount)
	assert.Equal(t, 1, snap.Total())

	daily, err := stats.ListDaily(ctx, db.Pool, "u1", 10)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2026-03-01", daily[0].Day)
	assert.Equal(t, 1, daily[0].OACount)
}

func TestAssignIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")
	seedEvent(t, db, oaEvent("e1", "msg-1", at("2026-03-01T10:00:00Z")))

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))
	require.NoError(t, c.Assign(ctx, "e1"))
	require.NoError(t, c.Assign(ctx, "e1"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.OACount)
	assert.Equal(t, 1, snap.Total())

	daily, err := stats.ListDaily(ctx, db.Pool, "u1", 10)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 1, daily[0].OACount)
}

func TestAssignMissingEvent(t *testing.T) {
	db := testDB(t)
	c := &Coordinator{DB: db.Pool}
	err := c.Assign(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssignUpdatesViaThreadAffinity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a-old", "u1", "stripe", "backend engineer", "t1", at("2026-03-01T10:00:00Z"))
	seedApp(t, db, "a-new", "u1", "stripe", "backend engineer", "t2", at("2026-03-02T10:00:00Z"))

	ev := oaEvent("e1", "msg-3", at("2026-03-03T10:00:00Z"))
	ev.Category = domain.CategoryInterview
	ev.Status = domain.StatusInterview
	ev.ThreadID = "t1"
	seedEvent(t, db, ev)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	old, err := store.GetApplication(ctx, db.Pool, "a-old")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterview, old.Status)
	assert.Equal(t, 2, old.StatusRank)
	assert.Equal(t, at("2026-03-03T10:00:00Z"), old.LastEventAt)

	sibling, err := store.GetApplication(ctx, db.Pool, "a-new")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, sibling.Status, "the other sibling is untouched")
}

func TestAssignRejectionDeactivates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")
	seedEvent(t, db, oaEvent("e1", "msg-1", at("2026-03-01T10:00:00Z")))

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	rej := oaEvent("e2", "msg-2", at("2026-03-04T10:00:00Z"))
	rej.Category = domain.CategoryRejection
	rej.Status = domain.StatusRejected
	seedEvent(t, db, rej)
	require.NoError(t, c.Assign(ctx, "e2"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, domain.StatusRejected, apps[0].Status)
	assert.Equal(t, -1, apps[0].StatusRank)
	assert.False(t, apps[0].IsActive)

	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.OACount)
	assert.Equal(t, 1, snap.RejectedCount)
	assert.Equal(t, 0, snap.ActiveCount)
	assert.Equal(t, 1, snap.Total())
}

func TestAssignStatusFollowsLatestEvent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")

	offer := oaEvent("e1", "msg-1", at("2026-03-01T10:00:00Z"))
	offer.Category = domain.CategoryOffer
	offer.Status = domain.StatusOffer
	seedEvent(t, db, offer)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	// a later acknowledgement legitimately reverts the rank
	ack := oaEvent("e2", "msg-2", at("2026-03-02T10:00:00Z"))
	ack.Category = domain.CategoryAcknowledgement
	ack.Status = domain.StatusApplied
	seedEvent(t, db, ack)
	require.NoError(t, c.Assign(ctx, "e2"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, domain.StatusApplied, apps[0].Status)
	assert.Equal(t, 0, apps[0].StatusRank)

	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.OfferCount)
	assert.Equal(t, 1, snap.AppliedCount)
	assert.Equal(t, 1, snap.ActiveCount)
}

func TestAssignRescheduleRetimesExistingItem(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")

	iv := oaEvent("e1", "msg-1", at("2026-03-01T10:00:00Z"))
	iv.Category = domain.CategoryInterview
	iv.Status = domain.StatusInterview
	seedEvent(t, db, iv)
	_, err := store.InsertScheduledItemIgnore(ctx, db.Pool, domain.ScheduledItem{
		ID: "s1", UserID: "u1", EventID: "e1",
		Type: domain.ScheduledInterview, Title: "Onsite",
		StartAt: at("2026-03-10T15:00:00Z"), Timezone: "UTC",
		Source: domain.ScheduledAuto, SourceMessageID: "msg-1",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	appID := apps[0].ID
	statusUpdatedAt := apps[0].StatusUpdatedAt

	// reschedule carries the new time on its own item
	rs := oaEvent("e2", "msg-2", at("2026-03-08T10:00:00Z"))
	rs.Category = domain.CategoryReschedule
	rs.Status = domain.StatusApplied
	seedEvent(t, db, rs)
	_, err = store.InsertScheduledItemIgnore(ctx, db.Pool, domain.ScheduledItem{
		ID: "s2", UserID: "u1", EventID: "e2",
		Type: domain.ScheduledInterview, Title: "Onsite (moved)",
		StartAt: at("2026-03-12T09:00:00Z"), Timezone: "UTC",
		Source: domain.ScheduledAuto, SourceMessageID: "msg-2",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, c.Assign(ctx, "e2"))

	// the original item moved; the carrier is gone
	items, err := store.ListItemsByEvent(ctx, db.Pool, "e1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].ID)
	assert.Equal(t, at("2026-03-12T09:00:00Z"), items[0].StartAt)

	carriers, err := store.ListItemsByEvent(ctx, db.Pool, "e2")
	require.NoError(t, err)
	assert.Empty(t, carriers)

	// status untouched, recency advanced
	got, err := store.GetApplication(ctx, db.Pool, appID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterview, got.Status)
	assert.Equal(t, statusUpdatedAt, got.StatusUpdatedAt)
	assert.Equal(t, at("2026-03-08T10:00:00Z"), got.LastEventAt)

	// no aggregate movement for a reschedule
	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.InterviewCount)
	assert.Equal(t, 1, snap.Total())
	daily, err := stats.ListDaily(ctx, db.Pool, "u1", 10)
	require.NoError(t, err)
	require.Len(t, daily, 1)
}

func TestAssignRescheduleWithoutTargetKeepsCarrier(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a1", "u1", "stripe", "backend engineer", "t1", at("2026-03-01T10:00:00Z"))

	rs := oaEvent("e1", "msg-1", at("2026-03-08T10:00:00Z"))
	rs.Category = domain.CategoryReschedule
	seedEvent(t, db, rs)
	_, err := store.InsertScheduledItemIgnore(ctx, db.Pool, domain.ScheduledItem{
		ID: "s1", UserID: "u1", EventID: "e1",
		Type: domain.ScheduledInterview, Title: "Onsite",
		StartAt: at("2026-03-12T09:00:00Z"), Timezone: "UTC",
		Source: domain.ScheduledAuto, SourceMessageID: "msg-1",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	// nothing to retime: the carrier survives as a fresh item, linked
	items, err := store.ListItemsByEvent(ctx, db.Pool, "e1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].ApplicationID)
}

func TestAssignRescheduleWithoutMatchCreates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", "me@example.com")

	rs := oaEvent("e1", "msg-1", at("2026-03-08T10:00:00Z"))
	rs.Category = domain.CategoryReschedule
	rs.Status = domain.StatusApplied // admit-time fallback
	seedEvent(t, db, rs)

	c := &Coordinator{DB: db.Pool}
	require.NoError(t, c.Assign(ctx, "e1"))

	apps, err := store.ListApplications(ctx, db.Pool, "u1", store.ListApplicationsOpts{})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, domain.StatusApplied, apps[0].Status)

	snap, err := stats.GetDashboard(ctx, db.Pool, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AppliedCount, "creation is counted even on the reschedule path")
}
