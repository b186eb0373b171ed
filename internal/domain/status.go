package domain

// Status is the application pipeline status after the latest event.
type Status string

const (
	StatusApplied   Status = "APPLIED"
	StatusOA        Status = "OA"
	StatusInterview Status = "INTERVIEW"
	StatusOffer     Status = "OFFER"
	StatusRejected  Status = "REJECTED"
)

// Category is the broad kind of thing an event reported:
// acknowledgement -> OA -> interview rounds -> offer/rejection, plus
// reschedules and everything else.
type Category string

const (
	CategoryOA              Category = "OA"
	CategoryInterview       Category = "INTERVIEW"
	CategoryOffer           Category = "OFFER"
	CategoryRejection       Category = "REJECTION"
	CategoryAcknowledgement Category = "ACKNOWLEDGEMENT"
	CategoryReschedule      Category = "RESCHEDULE"
	CategoryOtherUpdate     Category = "OTHER_UPDATE"
)

// AssignmentStatus tracks whether an event has been resolved to an
// application. Events move unprocessed -> assigned exactly once.
type AssignmentStatus string

const (
	AssignmentUnprocessed AssignmentStatus = "unprocessed"
	AssignmentAssigned    AssignmentStatus = "assigned"
	AssignmentConflict    AssignmentStatus = "conflict"
)

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusOA, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryOA, CategoryInterview, CategoryOffer, CategoryRejection,
		CategoryAcknowledgement, CategoryReschedule, CategoryOtherUpdate:
		return true
	}
	return false
}
