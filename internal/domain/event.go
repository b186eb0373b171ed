package domain

import "time"

// Event is one immutable observed signal (e.g. "this email indicated an
// interview"). Identity is (UserID, SourceMessageID); the projection fields
// AssignmentStatus/ApplicationID are set exactly once by the coordinator.
type Event struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	CompanyName string   `json:"companyName"`
	RoleTitle   string   `json:"roleTitle"`
	Category    Category `json:"eventCategory"`
	Status      Status   `json:"derivedStatus"`
	AISummary   string   `json:"aiSummary,omitempty"`

	ReceivedAt time.Time `json:"receivedAt"`

	SourceMessageID string `json:"sourceMessageId"`
	ThreadID        string `json:"threadId,omitempty"`
	Provider        string `json:"provider"`
	InboxEmail      string `json:"inboxEmail"`

	AssignmentStatus AssignmentStatus `json:"assignmentStatus"`
	ApplicationID    string           `json:"applicationId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
