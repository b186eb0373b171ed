package assign

import (
	"context"
	"database/sql"
	"log"

	"apptrack-engine/internal/apperr"
	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/events"
	"apptrack-engine/internal/normalize"
	"apptrack-engine/internal/stats"
	"apptrack-engine/internal/store"

	"github.com/google/uuid"
)

// Coordinator is the single unit of work per admitted event: normalize,
// match, create-or-update the application, mark the event assigned, relink
// scheduled items, apply aggregate deltas. Everything runs in one sqlite
// transaction on the single-writer pool, so two workers assigning sibling
// events cannot both observe "no existing application".
type Coordinator struct {
	DB  *sql.DB
	Hub *events.Hub // optional; assignment notifications
}

// Assign resolves the event to its application. Idempotent on the assignment
// boundary: an event already assigned is a no-op, so retries after any crash
// are safe.
func (c *Coordinator) Assign(ctx context.Context, eventID string) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Transient(err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := store.GetEvent(ctx, tx, eventID)
	if err != nil {
		return apperr.Transient(err)
	}
	if ev == nil {
		return apperr.NotFound("event", eventID)
	}
	if ev.AssignmentStatus != domain.AssignmentUnprocessed {
		log.Printf("[assign] event already assigned: %s", eventID)
		return nil
	}

	companyKey := normalize.Key(ev.CompanyName)
	roleKey := normalize.Key(ev.RoleTitle)

	match, err := Match(ctx, tx, ev.UserID, companyKey, roleKey, ev.ThreadID)
	if err != nil {
		return apperr.Transient(err)
	}
	if match.Kind == MatchAmbiguous {
		log.Printf("[assign] %d applications for %q / %q; using most recent: %s",
			match.Considered, ev.CompanyName, ev.RoleTitle, match.Application.ID)
	}

	reschedule := ev.Category == domain.CategoryReschedule

	var app domain.Application
	created := false
	var prevStatus domain.Status

	if match.Kind == MatchNone {
		app = applicationFromEvent(ev, companyKey, roleKey)
		if err := store.InsertApplication(ctx, tx, app); err != nil {
			return apperr.Transient(err)
		}
		created = true
	} else {
		app = *match.Application
		prevStatus = app.Status
		app.CompanyName = ev.CompanyName
		app.RoleTitle = ev.RoleTitle
		app.LastEventAt = ev.ReceivedAt
		app.Source = domain.Source{
			Provider:      ev.Provider,
			InboxEmail:    ev.InboxEmail,
			ThreadID:      ev.ThreadID,
			LastMessageID: ev.SourceMessageID,
		}
		if reschedule {
			// reschedule never drives pipeline status
			if err := store.TouchApplication(ctx, tx, app); err != nil {
				return apperr.Transient(err)
			}
		} else {
			app.Status = ev.Status
			app.StatusRank = RankFor(ev.Status)
			app.StatusUpdatedAt = ev.ReceivedAt
			app.IsActive = ev.Status != domain.StatusRejected
			if ev.AISummary != "" {
				app.AISummary = ev.AISummary
			}
			if err := store.UpdateApplicationOnEvent(ctx, tx, app); err != nil {
				return apperr.Transient(err)
			}
		}
	}

	if err := store.MarkEventAssigned(ctx, tx, ev.ID, app.ID); err != nil {
		return apperr.Transient(err)
	}

	if reschedule {
		if err := c.retimeScheduledItems(ctx, tx, ev, app.ID); err != nil {
			return err
		}
	}
	if _, err := store.LinkItemsToApplication(ctx, tx, ev.ID, app.ID); err != nil {
		return apperr.Transient(err)
	}

	if created {
		if err := stats.OnApplicationCreated(ctx, tx, ev.UserID, app.Status, ev.ReceivedAt); err != nil {
			return apperr.Transient(err)
		}
	} else if !reschedule {
		if err := stats.OnStatusChanged(ctx, tx, ev.UserID, prevStatus, app.Status, ev.ReceivedAt); err != nil {
			return apperr.Transient(err)
		}
	}
	if !reschedule {
		if err := stats.BumpDaily(ctx, tx, ev.UserID, stats.Day(ev.ReceivedAt), ev.Status); err != nil {
			return apperr.Transient(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Transient(err)
	}

	if c.Hub != nil {
		if created {
			c.Hub.Publish(events.MakeEvent("", events.TypeApplicationCreated, 1, map[string]any{
				"applicationId": app.ID, "eventId": ev.ID, "status": app.Status,
			}))
		}
		c.Hub.Publish(events.MakeEvent("", events.TypeEventAssigned, 1, map[string]any{
			"eventId": ev.ID, "applicationId": app.ID,
		}))
	}
	return nil
}

func applicationFromEvent(ev *domain.Event, companyKey, roleKey string) domain.Application {
	return domain.Application{
		ID:              uuid.NewString(),
		UserID:          ev.UserID,
		CompanyName:     ev.CompanyName,
		CompanyKey:      companyKey,
		RoleTitle:       ev.RoleTitle,
		RoleKey:         roleKey,
		Status:          ev.Status,
		StatusRank:      RankFor(ev.Status),
		StatusUpdatedAt: ev.ReceivedAt,
		AppliedAt:       ev.ReceivedAt,
		LastEventAt:     ev.ReceivedAt,
		IsActive:        ev.Status != domain.StatusRejected,
		AISummary:       ev.AISummary,
		Source: domain.Source{
			Provider:      ev.Provider,
			InboxEmail:    ev.InboxEmail,
			ThreadID:      ev.ThreadID,
			LastMessageID: ev.SourceMessageID,
		},
		CreatedAt: ev.ReceivedAt,
	}
}

// retimeScheduledItems applies a reschedule: the event's own items carry the
// new times. Each one retargets the latest existing item of the same type on
// the application; the carrier row is then dropped so the calendar entry is
// updated, never duplicated. A carrier with no target stays as a fresh item.
func (c *Coordinator) retimeScheduledItems(ctx context.Context, tx *sql.Tx, ev *domain.Event, applicationID string) error {
	carriers, err := store.ListItemsByEvent(ctx, tx, ev.ID)
	if err != nil {
		return apperr.Transient(err)
	}
	for _, carrier := range carriers {
		target, err := store.LatestItemForApplication(ctx, tx, applicationID, carrier.Type, ev.ID)
		if err != nil {
			return apperr.Transient(err)
		}
		if target == nil {
			continue
		}
		if err := store.UpdateItemTiming(ctx, tx, target.ID, carrier.StartAt, carrier.EndAt, carrier.DurationMin); err != nil {
			return apperr.Transient(err)
		}
		if err := store.DeleteItem(ctx, tx, carrier.ID); err != nil {
			return apperr.Transient(err)
		}
		log.Printf("[assign] rescheduled %s item %s to %s", carrier.Type, target.ID, carrier.StartAt.Format("2006-01-02 15:04"))
	}
	return nil
}
