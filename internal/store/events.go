package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apptrack-engine/internal/domain"
)

const eventCols = `
id, user_id, company_name, role_title, category, status, ai_summary,
received_at, source_message_id, thread_id, provider, inbox_email,
assignment_status, application_id, created_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (domain.Event, error) {
	var e domain.Event
	var receivedAt, createdAt string
	err := row.Scan(
		&e.ID, &e.UserID, &e.CompanyName, &e.RoleTitle, &e.Category, &e.Status,
		&e.AISummary, &receivedAt, &e.SourceMessageID, &e.ThreadID, &e.Provider,
		&e.InboxEmail, &e.AssignmentStatus, &e.ApplicationID, &createdAt,
	)
	if err != nil {
		return e, err
	}
	e.ReceivedAt = parseTime(receivedAt)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// InsertEventIgnore is the idempotency boundary: it relies on the unique
// index on (user_id, source_message_id). A racing duplicate insert lands on
// the constraint and comes back as added=false rather than an error, so the
// caller treats it as "already admitted".
func InsertEventIgnore(ctx context.Context, q Q, e domain.Event) (added bool, err error) {
	res, err := q.ExecContext(ctx, `
INSERT OR IGNORE INTO events (`+eventCols+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		e.ID, e.UserID, e.CompanyName, e.RoleTitle, string(e.Category),
		string(e.Status), e.AISummary, fmtTime(e.ReceivedAt), e.SourceMessageID,
		e.ThreadID, e.Provider, e.InboxEmail, string(e.AssignmentStatus),
		e.ApplicationID, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

func GetEvent(ctx context.Context, q Q, id string) (*domain.Event, error) {
	row := q.QueryRowContext(ctx, `SELECT `+eventCols+` FROM events WHERE id = ?;`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func GetEventByMessage(ctx context.Context, q Q, userID, sourceMessageID string) (*domain.Event, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+eventCols+` FROM events
WHERE user_id = ? AND source_message_id = ?;`, userID, sourceMessageID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by message: %w", err)
	}
	return &e, nil
}

// MarkEventAssigned is the single projection mutation an event ever gets.
func MarkEventAssigned(ctx context.Context, q Q, eventID, applicationID string) error {
	_, err := q.ExecContext(ctx, `
UPDATE events SET assignment_status = 'assigned', application_id = ?
WHERE id = ?;`, applicationID, eventID)
	if err != nil {
		return fmt.Errorf("mark event assigned: %w", err)
	}
	return nil
}

type ListEventsOpts struct {
	AssignmentStatus string
	Limit            int
}

func ListEvents(ctx context.Context, q Q, userID string, opts ListEventsOpts) ([]domain.Event, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 200
	}
	query := `SELECT ` + eventCols + ` FROM events WHERE user_id = ?`
	args := []any{userID}
	if opts.AssignmentStatus != "" {
		query += ` AND assignment_status = ?`
		args = append(args, opts.AssignmentStatus)
	}
	query += ` ORDER BY received_at DESC LIMIT ?;`
	args = append(args, opts.Limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListUnprocessedEventIDs feeds the sweep task: events admitted but never
// assigned (crash between admit and assignment, or a lost enqueue).
func ListUnprocessedEventIDs(ctx context.Context, q Q, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx, `
SELECT id FROM events
WHERE assignment_status = 'unprocessed'
ORDER BY received_at ASC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
