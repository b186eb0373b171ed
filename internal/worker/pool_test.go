package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"apptrack-engine/internal/assign"
	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return db
}

func TestNewClampsSizes(t *testing.T) {
	p := New(nil, 0, 0)
	assert.Equal(t, 2, p.Workers)
	assert.Equal(t, 256, cap(p.queue))
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	p := New(nil, 1, 2)
	assert.True(t, p.Enqueue("e1"))
	assert.True(t, p.Enqueue("e2"))
	assert.False(t, p.Enqueue("e3"), "a full queue defers to the sweep")
}

func TestSweepPicksUpUnprocessedEvents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := store.InsertUserIgnore(ctx, db.Pool, domain.User{
		ID: "u1", PrimaryEmail: "me@example.com", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	mkEvent := func(id, msg string, status domain.AssignmentStatus) domain.Event {
		return domain.Event{
			ID: id, UserID: "u1", CompanyName: "Stripe", RoleTitle: "SWE",
			Category: domain.CategoryOA, Status: domain.StatusOA,
			ReceivedAt: time.Now().UTC(), SourceMessageID: msg,
			Provider: "gmail", InboxEmail: "me@example.com",
			AssignmentStatus: status, CreatedAt: time.Now().UTC(),
		}
	}
	_, err = store.InsertEventIgnore(ctx, db.Pool, mkEvent("e1", "m1", domain.AssignmentUnprocessed))
	require.NoError(t, err)
	_, err = store.InsertEventIgnore(ctx, db.Pool, mkEvent("e2", "m2", domain.AssignmentAssigned))
	require.NoError(t, err)

	p := New(&assign.Coordinator{DB: db.Pool}, 1, 8)
	require.NoError(t, p.Sweep(ctx, db.Pool))
	assert.Len(t, p.queue, 1)
	assert.Equal(t, "e1", <-p.queue)
}

func TestRunDrainsQueue(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := store.InsertUserIgnore(ctx, db.Pool, domain.User{
		ID: "u1", PrimaryEmail: "me@example.com", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	_, err = store.InsertEventIgnore(ctx, db.Pool, domain.Event{
		ID: "e1", UserID: "u1", CompanyName: "Stripe", RoleTitle: "SWE",
		Category: domain.CategoryOA, Status: domain.StatusOA,
		ReceivedAt: time.Now().UTC(), SourceMessageID: "m1",
		Provider: "gmail", InboxEmail: "me@example.com",
		AssignmentStatus: domain.AssignmentUnprocessed, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	p := New(&assign.Coordinator{DB: db.Pool}, 2, 8)
	p.Enqueue("e1")

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	require.Eventually(t, func() bool {
		ids, err := store.ListUnprocessedEventIDs(ctx, db.Pool, 10)
		return err == nil && len(ids) == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
