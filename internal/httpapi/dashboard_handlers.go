package httpapi

import (
	"database/sql"
	"net/http"
	"sync/atomic"
	"time"

	"apptrack-engine/internal/config"
	"apptrack-engine/internal/domain"
	"apptrack-engine/internal/stats"
	"apptrack-engine/internal/store"
)

type DashboardHandler struct {
	DB     *sql.DB
	CfgVal *atomic.Value // config.Config
}

type dashboardCounts struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Applied    int `json:"applied"`
	OAs        int `json:"oas"`
	Interviews int `json:"interviews"`
	Offers     int `json:"offers"`
	Rejected   int `json:"rejected"`
}

type dashboardResponse struct {
	Counts   dashboardCounts        `json:"counts"`
	Graph    []domain.DailyStats    `json:"graph"`
	Upcoming []domain.ScheduledItem `json:"upcoming"`
}

// Get serves the two aggregate projections plus the next scheduled items.
// Pure read side; the authoritative state stays in applications/events.
func (h DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, msg := resolveUser(r, h.DB)
	if u == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", msg)
		return
	}
	cfg := h.CfgVal.Load().(config.Config)

	snap, err := stats.GetDashboard(r.Context(), h.DB, u.ID)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	graph, err := stats.ListDaily(r.Context(), h.DB, u.ID, cfg.Dashboard.GraphDays)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	upcoming, err := store.ListUpcomingItems(r.Context(), h.DB, u.ID, time.Now().UTC(), cfg.Dashboard.UpcomingLimit)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}

	writeJSON(w, dashboardResponse{
		Counts: dashboardCounts{
			Total:      snap.Total(),
			Active:     snap.ActiveCount,
			Applied:    snap.AppliedCount,
			OAs:        snap.OACount,
			Interviews: snap.InterviewCount,
			Offers:     snap.OfferCount,
			Rejected:   snap.RejectedCount,
		},
		Graph:    graph,
		Upcoming: upcoming,
	})
}
