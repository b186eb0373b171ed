package domain

import "time"

type ScheduledItemType string

const (
	ScheduledOA        ScheduledItemType = "OA"
	ScheduledInterview ScheduledItemType = "INTERVIEW"
)

type ScheduledItemSource string

const (
	ScheduledAuto   ScheduledItemSource = "auto"
	ScheduledManual ScheduledItemSource = "manual"
)

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ScheduledItem is a calendar occurrence (OA or interview) created alongside
// its originating event, before assignment is known. ApplicationID stays
// empty until the linker resolves it.
type ScheduledItem struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	ApplicationID string `json:"applicationId,omitempty"`
	EventID       string `json:"eventId,omitempty"`

	Type  ScheduledItemType `json:"type"`
	Title string            `json:"title"`

	StartAt     time.Time  `json:"startAt"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	DurationMin int        `json:"duration,omitempty"`
	Timezone    string     `json:"timezone"`

	Notes string `json:"notes,omitempty"`
	Links []Link `json:"links"`

	CompanyName string `json:"companyName,omitempty"`
	RoleTitle   string `json:"roleTitle,omitempty"`

	Source          ScheduledItemSource `json:"source"`
	SourceMessageID string              `json:"sourceMessageId,omitempty"`
	SourceThreadID  string              `json:"sourceThreadId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
