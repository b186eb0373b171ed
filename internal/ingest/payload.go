package ingest

import (
	"errors"
	"fmt"
	"time"

	"apptrack-engine/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PayloadLink is a labeled URL extracted from the message (portal links,
// meeting invites).
type PayloadLink struct {
	Label string `json:"label" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

// PayloadItem describes a calendar-relevant occurrence carried by the event:
// an OA window or an interview slot.
type PayloadItem struct {
	Type        string        `json:"type" validate:"required,oneof=OA INTERVIEW"`
	Title       string        `json:"title" validate:"required"`
	StartAt     string        `json:"startAt" validate:"required"`
	EndAt       string        `json:"endAt,omitempty"`
	Duration    int           `json:"duration,omitempty" validate:"omitempty,min=0"`
	CompanyName string        `json:"companyName,omitempty"`
	Links       []PayloadLink `json:"links,omitempty" validate:"omitempty,dive"`
	Notes       string        `json:"notes,omitempty"`
}

// Payload is the typed output of the external classifier/extractor: one
// job-relevant message, already normalized to company/role/category. The
// engine consumes this and nothing rawer.
type Payload struct {
	UserID          string        `json:"userId,omitempty"`
	UserEmail       string        `json:"userEmail" validate:"required,email"`
	Provider        string        `json:"provider" validate:"required,oneof=gmail outlook"`
	InboxEmail      string        `json:"inboxEmail" validate:"required,email"`
	SourceMessageID string        `json:"sourceMessageId" validate:"required"`
	ThreadID        string        `json:"threadId,omitempty"`
	ReceivedAt      string        `json:"receivedAt" validate:"required"`
	CompanyName     string        `json:"companyName" validate:"required"`
	RoleTitle       string        `json:"roleTitle" validate:"required"`
	EventCategory   string        `json:"eventCategory" validate:"required,oneof=OA INTERVIEW OFFER REJECTION ACKNOWLEDGEMENT RESCHEDULE OTHER_UPDATE"`
	Status          string        `json:"status,omitempty" validate:"omitempty,oneof=APPLIED OA INTERVIEW OFFER REJECTED"`
	AISummary       string        `json:"aiSummary,omitempty"`
	ScheduledItems  []PayloadItem `json:"scheduledItems,omitempty" validate:"omitempty,dive"`
}

// Validate rejects a malformed payload before any store mutation. Timestamps
// must be ISO-8601 (RFC 3339); fractional seconds are fine.
func (p Payload) Validate() error {
	var issues []string

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			issues = append(issues, err.Error())
		}
	}

	if p.ReceivedAt != "" {
		if _, err := time.Parse(time.RFC3339, p.ReceivedAt); err != nil {
			issues = append(issues, fmt.Sprintf("receivedAt: not ISO-8601: %q", p.ReceivedAt))
		}
	}
	for i, it := range p.ScheduledItems {
		if it.StartAt != "" {
			if _, err := time.Parse(time.RFC3339, it.StartAt); err != nil {
				issues = append(issues, fmt.Sprintf("scheduledItems[%d].startAt: not ISO-8601: %q", i, it.StartAt))
			}
		}
		if it.EndAt != "" {
			if _, err := time.Parse(time.RFC3339, it.EndAt); err != nil {
				issues = append(issues, fmt.Sprintf("scheduledItems[%d].endAt: not ISO-8601: %q", i, it.EndAt))
			}
		}
	}

	if len(issues) > 0 {
		return apperr.Validation(issues...)
	}
	return nil
}
