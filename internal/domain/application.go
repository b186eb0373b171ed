package domain

import "time"

// Source records where an application's latest signal came from. A mailbox is
// an opaque (provider, inbox) pair; the engine never sees credentials.
type Source struct {
	Provider      string `json:"provider,omitempty"`
	InboxEmail    string `json:"inboxEmail,omitempty"`
	ThreadID      string `json:"threadId,omitempty"`
	LastMessageID string `json:"lastMessageId,omitempty"`
}

// Application is the durable aggregate for one job pursuit. There is no
// natural key: matching goes through (UserID, CompanyKey, RoleKey) plus
// thread affinity, so siblings for the same company/role can coexist.
type Application struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	CompanyName string `json:"companyName"`
	CompanyKey  string `json:"companyKey"`
	RoleTitle   string `json:"roleTitle"`
	RoleKey     string `json:"roleKey"`

	Status          Status    `json:"status"`
	StatusRank      int       `json:"statusRank"`
	StatusUpdatedAt time.Time `json:"statusUpdatedAt"`

	// AppliedAt is first-seen time and never changes after creation.
	AppliedAt   time.Time `json:"appliedAt"`
	LastEventAt time.Time `json:"lastEventAt"`

	IsActive bool `json:"isActive"`

	AISummary string `json:"aiSummary,omitempty"`
	Source    Source `json:"source"`

	CreatedAt time.Time `json:"createdAt"`
}
