// Package stats maintains the two aggregate projections: the per-user
// snapshot of the current pipeline distribution and the per-day event time
// series. The snapshot is kept by delta (decrement the prior status bucket
// when an application transitions), so it always reflects applications
// currently in each status; Rebuild recomputes it from the applications
// table and heals any drift.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/store"
)

// whitelisted column names per status (prevents SQL injection through
// fmt.Sprintf-built upserts)
func snapshotCol(s domain.Status) string {
	switch s {
	case domain.StatusApplied:
		return "applied_count"
	case domain.StatusOA:
		return "oa_count"
	case domain.StatusInterview:
		return "interview_count"
	case domain.StatusOffer:
		return "offer_count"
	case domain.StatusRejected:
		return "rejected_count"
	}
	return ""
}

func dailyCol(s domain.Status) string {
	switch s {
	case domain.StatusOA:
		return "oa_count"
	case domain.StatusInterview:
		return "interview_count"
	case domain.StatusOffer:
		return "offer_count"
	case domain.StatusRejected:
		return "rejection_count"
	default:
		return "applied_count"
	}
}

// Day formats the UTC day bucket key for a timestamp.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func bumpSnapshot(ctx context.Context, q store.Q, userID, col string, delta, activeDelta int, now time.Time) error {
	query := fmt.Sprintf(`
INSERT INTO dashboard_stats (user_id, %[1]s, active_count, last_updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  %[1]s = %[1]s + excluded.%[1]s,
  active_count = active_count + excluded.active_count,
  last_updated_at = excluded.last_updated_at;`, col)
	if _, err := q.ExecContext(ctx, query, userID, delta, activeDelta, now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("bump snapshot: %w", err)
	}
	return nil
}

// OnApplicationCreated seeds the snapshot for a brand-new application.
func OnApplicationCreated(ctx context.Context, q store.Q, userID string, status domain.Status, now time.Time) error {
	active := 0
	if status != domain.StatusRejected {
		active = 1
	}
	return bumpSnapshot(ctx, q, userID, snapshotCol(status), 1, active, now)
}

// OnStatusChanged moves one application between buckets. The active count
// only moves when the transition crosses the REJECTED boundary.
func OnStatusChanged(ctx context.Context, q store.Q, userID string, prev, next domain.Status, now time.Time) error {
	if prev == next {
		return nil
	}
	activeDelta := 0
	if prev != domain.StatusRejected && next == domain.StatusRejected {
		activeDelta = -1
	}
	if prev == domain.StatusRejected && next != domain.StatusRejected {
		activeDelta = 1
	}
	if err := bumpSnapshot(ctx, q, userID, snapshotCol(prev), -1, 0, now); err != nil {
		return err
	}
	return bumpSnapshot(ctx, q, userID, snapshotCol(next), 1, activeDelta, now)
}

// BumpDaily increments the (user, day) time-series bucket for the event's
// derived status. Pure increment; there is no decrement path here.
func BumpDaily(ctx context.Context, q store.Q, userID, day string, status domain.Status) error {
	col := dailyCol(status)
	query := fmt.Sprintf(`
INSERT INTO daily_stats (user_id, day, %[1]s)
VALUES (?, ?, 1)
ON CONFLICT(user_id, day) DO UPDATE SET %[1]s = %[1]s + 1;`, col)
	if _, err := q.ExecContext(ctx, query, userID, day); err != nil {
		return fmt.Errorf("bump daily: %w", err)
	}
	return nil
}

func GetDashboard(ctx context.Context, q store.Q, userID string) (domain.DashboardStats, error) {
	s := domain.DashboardStats{UserID: userID}
	var lastUpdated string
	err := q.QueryRowContext(ctx, `
SELECT applied_count, oa_count, interview_count, offer_count, rejected_count,
       active_count, last_updated_at
FROM dashboard_stats WHERE user_id = ?;`, userID).
		Scan(&s.AppliedCount, &s.OACount, &s.InterviewCount, &s.OfferCount,
			&s.RejectedCount, &s.ActiveCount, &lastUpdated)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("get dashboard stats: %w", err)
	}
	s.LastUpdatedAt, _ = time.Parse(time.RFC3339, lastUpdated)
	return s, nil
}

func ListDaily(ctx context.Context, q store.Q, userID string, limit int) ([]domain.DailyStats, error) {
	if limit <= 0 {
		limit = 90
	}
	rows, err := q.QueryContext(ctx, `
SELECT user_id, day, applied_count, oa_count, interview_count, offer_count, rejection_count
FROM daily_stats
WHERE user_id = ?
ORDER BY day DESC
LIMIT ?;`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyStats
	for rows.Next() {
		var d domain.DailyStats
		if err := rows.Scan(&d.UserID, &d.Day, &d.AppliedCount, &d.OACount,
			&d.InterviewCount, &d.OfferCount, &d.RejectionCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Rebuild recomputes every user's snapshot from the applications table.
// Runs on a scheduler tick as self-healing for the delta counters; also makes
// the aggregate step safely replayable after a crash.
func Rebuild(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild stats: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.ExecContext(ctx, `
INSERT INTO dashboard_stats
  (user_id, applied_count, oa_count, interview_count, offer_count,
   rejected_count, active_count, last_updated_at)
SELECT user_id,
  SUM(status = 'APPLIED'),
  SUM(status = 'OA'),
  SUM(status = 'INTERVIEW'),
  SUM(status = 'OFFER'),
  SUM(status = 'REJECTED'),
  SUM(is_active),
  ?
FROM applications
GROUP BY user_id
ON CONFLICT(user_id) DO UPDATE SET
  applied_count = excluded.applied_count,
  oa_count = excluded.oa_count,
  interview_count = excluded.interview_count,
  offer_count = excluded.offer_count,
  rejected_count = excluded.rejected_count,
  active_count = excluded.active_count,
  last_updated_at = excluded.last_updated_at;`, now); err != nil {
		return fmt.Errorf("rebuild stats: %w", err)
	}

	// snapshots for users whose applications have all vanished would be
	// stale, but applications are never deleted; this keeps rebuild honest
	// against manual surgery on the db.
	if _, err := tx.ExecContext(ctx, `
DELETE FROM dashboard_stats
WHERE user_id NOT IN (SELECT DISTINCT user_id FROM applications);`); err != nil {
		return fmt.Errorf("rebuild stats: %w", err)
	}

	return tx.Commit()
}
