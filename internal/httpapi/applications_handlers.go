package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"apptrack-engine/internal/store"
)

type ApplicationsHandler struct {
	DB *sql.DB
}

func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	u, msg := resolveUser(r, h.DB)
	if u == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", msg)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	apps, err := store.ListApplications(r.Context(), h.DB, u.ID, store.ListApplicationsOpts{
		Status:     q.Get("status"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
	})
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	writeJSON(w, apps)
}
