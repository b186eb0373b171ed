package domain

import "time"

// DashboardStats is the per-user snapshot of the current pipeline
// distribution: one bucket per status plus the active application count.
// It is a derived projection, rebuildable from applications.
type DashboardStats struct {
	UserID string `json:"userId"`

	AppliedCount   int `json:"appliedCount"`
	OACount        int `json:"oaCount"`
	InterviewCount int `json:"interviewCount"`
	OfferCount     int `json:"offerCount"`
	RejectedCount  int `json:"rejectedCount"`

	ActiveCount int `json:"activeCount"`

	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

func (s DashboardStats) Total() int {
	return s.AppliedCount + s.OACount + s.InterviewCount + s.OfferCount + s.RejectedCount
}

// DailyStats is one (user, day) bucket of the event time series. Unlike the
// snapshot these are per-event increments and are never decremented.
type DailyStats struct {
	UserID string `json:"userId"`
	Day    string `json:"day"` // YYYY-MM-DD, UTC

	AppliedCount   int `json:"appliedCount"`
	OACount        int `json:"oaCount"`
	InterviewCount int `json:"interviewCount"`
	OfferCount     int `json:"offerCount"`
	RejectionCount int `json:"rejectionCount"`
}
