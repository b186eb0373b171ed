package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"apptrack-engine/internal/domain"
)

const itemCols = `
id, user_id, application_id, event_id, type, title, start_at, end_at,
duration_min, timezone, notes, links, company_name, role_title, source,
source_message_id, source_thread_id, created_at`

func scanItem(row interface{ Scan(dest ...any) error }) (domain.ScheduledItem, error) {
	var it domain.ScheduledItem
	var startAt, endAt, createdAt, linksJSON string
	err := row.Scan(
		&it.ID, &it.UserID, &it.ApplicationID, &it.EventID, &it.Type, &it.Title,
		&startAt, &endAt, &it.DurationMin, &it.Timezone, &it.Notes, &linksJSON,
		&it.CompanyName, &it.RoleTitle, &it.Source, &it.SourceMessageID,
		&it.SourceThreadID, &createdAt,
	)
	if err != nil {
		return it, err
	}
	it.StartAt = parseTime(startAt)
	if endAt != "" {
		t := parseTime(endAt)
		it.EndAt = &t
	}
	it.CreatedAt = parseTime(createdAt)
	_ = json.Unmarshal([]byte(linksJSON), &it.Links)
	return it, nil
}

// InsertScheduledItemIgnore relies on the re-delivery unique index
// (user_id, source_message_id, type, start_at): the same upstream message
// delivered twice produces the item once.
func InsertScheduledItemIgnore(ctx context.Context, q Q, it domain.ScheduledItem) (added bool, err error) {
	linksJSON, _ := json.Marshal(it.Links)
	if it.Links == nil {
		linksJSON = []byte("[]")
	}
	endAt := ""
	if it.EndAt != nil {
		endAt = fmtTime(*it.EndAt)
	}
	res, err := q.ExecContext(ctx, `
INSERT OR IGNORE INTO scheduled_items (`+itemCols+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		it.ID, it.UserID, it.ApplicationID, it.EventID, string(it.Type),
		it.Title, fmtTime(it.StartAt), endAt, it.DurationMin, it.Timezone,
		it.Notes, string(linksJSON), it.CompanyName, it.RoleTitle,
		string(it.Source), it.SourceMessageID, it.SourceThreadID,
		fmtTime(it.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert scheduled item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

func ListItemsByEvent(ctx context.Context, q Q, eventID string) ([]domain.ScheduledItem, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+itemCols+` FROM scheduled_items
WHERE event_id = ?
ORDER BY start_at ASC;`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list items by event: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// LinkItemsToApplication sets application_id on every item created from the
// event. Idempotent: setting the same value twice is a no-op in effect.
func LinkItemsToApplication(ctx context.Context, q Q, eventID, applicationID string) (int64, error) {
	res, err := q.ExecContext(ctx, `
UPDATE scheduled_items SET application_id = ?
WHERE event_id = ?;`, applicationID, eventID)
	if err != nil {
		return 0, fmt.Errorf("link items: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// LatestItemForApplication finds the reschedule target: the most recent item
// of the given type already attached to the application, excluding the
// rescheduling event's own carrier rows.
func LatestItemForApplication(ctx context.Context, q Q, applicationID string, typ domain.ScheduledItemType, excludeEventID string) (*domain.ScheduledItem, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+itemCols+` FROM scheduled_items
WHERE application_id = ? AND type = ? AND event_id != ?
ORDER BY start_at DESC
LIMIT 1;`, applicationID, string(typ), excludeEventID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest item for application: %w", err)
	}
	return &it, nil
}

// UpdateItemTiming rewrites an existing item's schedule in place; the item is
// updated, never recreated.
func UpdateItemTiming(ctx context.Context, q Q, id string, startAt time.Time, endAt *time.Time, durationMin int) error {
	end := ""
	if endAt != nil {
		end = fmtTime(*endAt)
	}
	_, err := q.ExecContext(ctx, `
UPDATE scheduled_items SET start_at = ?, end_at = ?, duration_min = ?
WHERE id = ?;`, fmtTime(startAt), end, durationMin, id)
	if err != nil {
		return fmt.Errorf("update item timing: %w", err)
	}
	return nil
}

// DeleteItem removes a reschedule carrier row once its timing has been
// applied to the pre-existing item.
func DeleteItem(ctx context.Context, q Q, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM scheduled_items WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func ListUpcomingItems(ctx context.Context, q Q, userID string, from time.Time, limit int) ([]domain.ScheduledItem, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := q.QueryContext(ctx, `
SELECT `+itemCols+` FROM scheduled_items
WHERE user_id = ? AND start_at >= ?
ORDER BY start_at ASC
LIMIT ?;`, userID, fmtTime(from), limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming items: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
