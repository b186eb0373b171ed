package ingest

import (
	"context"
	"database/sql"
	"time"

	"apptrack-engine/internal/apperr"
	"apptrack-engine/internal/assign"
	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/store"

	"github.com/google/uuid"
)

// Admit is the idempotency guard: it turns a payload into a durable event at
// most once per (user, sourceMessageId), no matter how many times the
// payload is delivered. The returned admitted flag is false when a previous
// or racing delivery already created the event; the caller must then treat
// the payload as already processed and not re-run assignment off this call.
func Admit(ctx context.Context, db *sql.DB, p Payload) (*domain.Event, bool, error) {
	if err := p.Validate(); err != nil {
		return nil, false, err
	}
	receivedAt, _ := time.Parse(time.RFC3339, p.ReceivedAt)

	user, err := store.GetUserByEmail(ctx, db, p.UserEmail)
	if err != nil {
		return nil, false, apperr.Transient(err)
	}
	if user == nil {
		// ingest only applies to mailboxes owned by existing accounts
		return nil, false, apperr.NotFound("user", p.UserEmail)
	}
	if p.UserID != "" && p.UserID != user.ID {
		return nil, false, apperr.IdentityMismatch(p.UserEmail, p.UserID)
	}

	status := derivedStatus(p)

	ev := domain.Event{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		CompanyName:      p.CompanyName,
		RoleTitle:        p.RoleTitle,
		Category:         domain.Category(p.EventCategory),
		Status:           status,
		AISummary:        p.AISummary,
		ReceivedAt:       receivedAt,
		SourceMessageID:  p.SourceMessageID,
		ThreadID:         p.ThreadID,
		Provider:         p.Provider,
		InboxEmail:       p.InboxEmail,
		AssignmentStatus: domain.AssignmentUnprocessed,
		CreatedAt:        time.Now().UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, apperr.Transient(err)
	}
	defer func() { _ = tx.Rollback() }()

	added, err := store.InsertEventIgnore(ctx, tx, ev)
	if err != nil {
		return nil, false, apperr.Transient(err)
	}
	if !added {
		// the unique index won the race: return the winner unchanged
		existing, err := store.GetEventByMessage(ctx, tx, user.ID, p.SourceMessageID)
		if err != nil {
			return nil, false, apperr.Transient(err)
		}
		if existing == nil {
			return nil, false, apperr.Transient(sql.ErrNoRows)
		}
		return existing, false, nil
	}

	for _, item := range p.ScheduledItems {
		it := scheduledItemFromPayload(ev, p, item)
		if _, err := store.InsertScheduledItemIgnore(ctx, tx, it); err != nil {
			return nil, false, apperr.Transient(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, apperr.Transient(err)
	}
	return &ev, true, nil
}

// derivedStatus applies the status resolver to the payload: the category
// drives the pipeline status; RESCHEDULE and OTHER_UPDATE fall back to the
// caller-supplied status, defaulting to APPLIED.
func derivedStatus(p Payload) domain.Status {
	status, ok := assign.StatusFor(domain.Category(p.EventCategory), domain.Status(p.Status))
	if !ok {
		if s := domain.Status(p.Status); s.Valid() {
			return s
		}
		return domain.StatusApplied
	}
	return status
}

func scheduledItemFromPayload(ev domain.Event, p Payload, item PayloadItem) domain.ScheduledItem {
	startAt, _ := time.Parse(time.RFC3339, item.StartAt)
	var endAt *time.Time
	if item.EndAt != "" {
		t, _ := time.Parse(time.RFC3339, item.EndAt)
		endAt = &t
	}
	companyName := item.CompanyName
	if companyName == "" {
		companyName = p.CompanyName
	}
	threadID := p.ThreadID
	if threadID == "" {
		threadID = p.SourceMessageID
	}
	links := make([]domain.Link, 0, len(item.Links))
	for _, l := range item.Links {
		links = append(links, domain.Link{Label: l.Label, URL: l.URL})
	}
	return domain.ScheduledItem{
		ID:              uuid.NewString(),
		UserID:          ev.UserID,
		EventID:         ev.ID,
		Type:            domain.ScheduledItemType(item.Type),
		Title:           item.Title,
		StartAt:         startAt,
		EndAt:           endAt,
		DurationMin:     item.Duration,
		Timezone:        "UTC",
		Notes:           item.Notes,
		Links:           links,
		CompanyName:     companyName,
		RoleTitle:       p.RoleTitle,
		Source:          domain.ScheduledAuto,
		SourceMessageID: p.SourceMessageID,
		SourceThreadID:  threadID,
		CreatedAt:       time.Now().UTC(),
	}
}
