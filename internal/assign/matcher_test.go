package assign

import (
	"context"
	"path/filepath"
	"testing"
	"time"

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

func seedUser(t *testing.T, db *store.DB, id, email string) {
	t.Helper()
	added, err := store.InsertUserIgnore(context.Background(), db.Pool, domain.User{
		ID: id, PrimaryEmail: email, Name: "Test", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, added)
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedApp(t *testing.T, db *store.DB, id, userID, companyKey, roleKey, threadID string, lastEventAt time.Time) {
	t.Helper()
	err := store.InsertApplication(context.Background(), db.Pool, domain.Application{
		ID: id, UserID: userID,
		CompanyName: companyKey, CompanyKey: companyKey,
		RoleTitle: roleKey, RoleKey: roleKey,
		Status: domain.StatusApplied, StatusRank: 0,
		StatusUpdatedAt: lastEventAt, AppliedAt: lastEventAt,
		LastEventAt: lastEventAt, IsActive: true,
		Source:    domain.Source{Provider: "gmail", InboxEmail: "me@example.com", ThreadID: threadID},
		CreatedAt: lastEventAt,
	})
	require.NoError(t, err)
}

func TestMatchNoCandidates(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")

	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "")
	require.NoError(t, err)
	assert.Equal(t, MatchNone, res.Kind)
	assert.Nil(t, res.Application)
}

func TestMatchUniqueCandidate(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a1", "u1", "stripe", "swe", "t1", at("2026-03-01T10:00:00Z"))

	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "")
	require.NoError(t, err)
	assert.Equal(t, MatchUnique, res.Kind)
	require.NotNil(t, res.Application)
	assert.Equal(t, "a1", res.Application.ID)
}

func TestMatchThreadAffinityBeatsRecency(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a-old", "u1", "stripe", "swe", "t1", at("2026-03-01T10:00:00Z"))
	seedApp(t, db, "a-new", "u1", "stripe", "swe", "t2", at("2026-03-02T10:00:00Z"))

	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "t1")
	require.NoError(t, err)
	assert.Equal(t, MatchThread, res.Kind)
	require.NotNil(t, res.Application)
	assert.Equal(t, "a-old", res.Application.ID)
}

func TestMatchAmbiguousPicksMostRecent(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a-old", "u1", "stripe", "swe", "t1", at("2026-03-01T10:00:00Z"))
	seedApp(t, db, "a-new", "u1", "stripe", "swe", "t2", at("2026-03-02T10:00:00Z"))

	// unknown thread: no affinity, several siblings
	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "t-unknown")
	require.NoError(t, err)
	assert.Equal(t, MatchAmbiguous, res.Kind)
	require.NotNil(t, res.Application)
	assert.Equal(t, "a-new", res.Application.ID)
	assert.Equal(t, 2, res.Considered)
}

func TestMatchSharedThreadRestrictsToSiblings(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")
	seedApp(t, db, "a1", "u1", "stripe", "swe", "t1", at("2026-03-01T10:00:00Z"))
	seedApp(t, db, "a2", "u1", "stripe", "swe", "t1", at("2026-03-02T10:00:00Z"))
	seedApp(t, db, "a3", "u1", "stripe", "swe", "t9", at("2026-03-03T10:00:00Z"))

	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "t1")
	require.NoError(t, err)
	assert.Equal(t, MatchAmbiguous, res.Kind)
	require.NotNil(t, res.Application)
	assert.Equal(t, "a2", res.Application.ID, "most recent within the shared thread")
	assert.Equal(t, 2, res.Considered)
}

func TestMatchScopedToUser(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "u1", "me@example.com")
	seedUser(t, db, "u2", "other@example.com")
	seedApp(t, db, "a1", "u2", "stripe", "swe", "t1", at("2026-03-01T10:00:00Z"))

	res, err := Match(context.Background(), db.Pool, "u1", "stripe", "swe", "t1")
	require.NoError(t, err)
	assert.Equal(t, MatchNone, res.Kind)
}
