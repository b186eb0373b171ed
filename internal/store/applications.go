package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apptrack-engine/internal/domain"
)

const appCols = `
id, user_id, company_name, company_key, role_title, role_key, status,
status_rank, status_updated_at, applied_at, last_event_at, is_active,
ai_summary, source_provider, source_inbox_email, source_thread_id,
source_last_message_id, created_at`

func scanApplication(row interface{ Scan(dest ...any) error }) (domain.Application, error) {
	var a domain.Application
	var statusUpdatedAt, appliedAt, lastEventAt, createdAt string
	err := row.Scan(
		&a.ID, &a.UserID, &a.CompanyName, &a.CompanyKey, &a.RoleTitle, &a.RoleKey,
		&a.Status, &a.StatusRank, &statusUpdatedAt, &appliedAt, &lastEventAt,
		&a.IsActive, &a.AISummary, &a.Source.Provider, &a.Source.InboxEmail,
		&a.Source.ThreadID, &a.Source.LastMessageID, &createdAt,
	)
	if err != nil {
		return a, err
	}
	a.StatusUpdatedAt = parseTime(statusUpdatedAt)
	a.AppliedAt = parseTime(appliedAt)
	a.LastEventAt = parseTime(lastEventAt)
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func InsertApplication(ctx context.Context, q Q, a domain.Application) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO applications (`+appCols+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ID, a.UserID, a.CompanyName, a.CompanyKey, a.RoleTitle, a.RoleKey,
		string(a.Status), a.StatusRank, fmtTime(a.StatusUpdatedAt),
		fmtTime(a.AppliedAt), fmtTime(a.LastEventAt), a.IsActive, a.AISummary,
		a.Source.Provider, a.Source.InboxEmail, a.Source.ThreadID,
		a.Source.LastMessageID, fmtTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// UpdateApplicationOnEvent applies the latest event's view of the
// application: display fields, status/rank, timestamps, source metadata.
// Last-write-wins; applied_at is never touched.
func UpdateApplicationOnEvent(ctx context.Context, q Q, a domain.Application) error {
	_, err := q.ExecContext(ctx, `
UPDATE applications SET
  company_name = ?, role_title = ?, status = ?, status_rank = ?,
  status_updated_at = ?, last_event_at = ?, is_active = ?, ai_summary = ?,
  source_provider = ?, source_inbox_email = ?, source_thread_id = ?,
  source_last_message_id = ?
WHERE id = ?;`,
		a.CompanyName, a.RoleTitle, string(a.Status), a.StatusRank,
		fmtTime(a.StatusUpdatedAt), fmtTime(a.LastEventAt), a.IsActive,
		a.AISummary, a.Source.Provider, a.Source.InboxEmail, a.Source.ThreadID,
		a.Source.LastMessageID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

// TouchApplication bumps last_event_at and source metadata without changing
// status. Used by the reschedule path, which never drives pipeline status.
func TouchApplication(ctx context.Context, q Q, a domain.Application) error {
	_, err := q.ExecContext(ctx, `
UPDATE applications SET
  last_event_at = ?, source_provider = ?, source_inbox_email = ?,
  source_thread_id = ?, source_last_message_id = ?
WHERE id = ?;`,
		fmtTime(a.LastEventAt), a.Source.Provider, a.Source.InboxEmail,
		a.Source.ThreadID, a.Source.LastMessageID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("touch application: %w", err)
	}
	return nil
}

func GetApplication(ctx context.Context, q Q, id string) (*domain.Application, error) {
	row := q.QueryRowContext(ctx, `SELECT `+appCols+` FROM applications WHERE id = ?;`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &a, nil
}

// ListApplicationsByKeys returns the matcher's candidate set, most recently
// active first. The id tiebreak keeps ordering stable when two candidates
// share a last_event_at.
func ListApplicationsByKeys(ctx context.Context, q Q, userID, companyKey, roleKey string) ([]domain.Application, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+appCols+` FROM applications
WHERE user_id = ? AND company_key = ? AND role_key = ?
ORDER BY last_event_at DESC, id DESC;`, userID, companyKey, roleKey)
	if err != nil {
		return nil, fmt.Errorf("list applications by keys: %w", err)
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type ListApplicationsOpts struct {
	Status     string
	ActiveOnly bool
	Limit      int
}

func ListApplications(ctx context.Context, q Q, userID string, opts ListApplicationsOpts) ([]domain.Application, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 200
	}
	query := `SELECT ` + appCols + ` FROM applications WHERE user_id = ?`
	args := []any{userID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	if opts.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY last_event_at DESC LIMIT ?;`
	args = append(args, opts.Limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
