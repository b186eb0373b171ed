package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"apptrack-engine/internal/events"
	"apptrack-engine/internal/ingest"
)

type IngestHandler struct {
	DB      *sql.DB
	Hub     *events.Hub
	Status  *atomic.Value // httpapi.IngestStatus
	Enqueue func(eventID string) bool
}

// Ingest admits one event payload. Duplicates are success-equivalent: the
// existing event comes back with admitted=false and nothing is re-run.
func (h IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var p ingest.Payload
	if err := dec.Decode(&p); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}

	ev, admitted, err := ingest.Admit(r.Context(), h.DB, p)
	if err != nil {
		h.bump(func(st *IngestStatus) {
			st.Rejected++
			st.LastError = err.Error()
		})
		WriteAppError(w, r, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	if admitted {
		h.bump(func(st *IngestStatus) {
			st.Admitted++
			st.LastError = ""
		})
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeEventAdmitted, 1, map[string]any{
			"eventId": ev.ID, "category": ev.Category,
		}))
		if h.Enqueue != nil {
			h.Enqueue(ev.ID)
		}
		WriteJSON(w, http.StatusAccepted, map[string]any{
			"eventId":          ev.ID,
			"admitted":         true,
			"assignmentStatus": ev.AssignmentStatus,
		})
		return
	}

	h.bump(func(st *IngestStatus) { st.Duplicates++ })
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeEventDuplicate, 1, map[string]any{
		"eventId": ev.ID,
	}))
	WriteJSON(w, http.StatusOK, map[string]any{
		"eventId":          ev.ID,
		"admitted":         false,
		"assignmentStatus": ev.AssignmentStatus,
	})
}

func (h IngestHandler) StatusGet(w http.ResponseWriter, r *http.Request) {
	st := h.Status.Load().(IngestStatus)
	writeJSON(w, st)
}

func (h IngestHandler) bump(f func(*IngestStatus)) {
	st := h.Status.Load().(IngestStatus)
	f(&st)
	st.LastAt = time.Now().UTC().Format(time.RFC3339)
	h.Status.Store(st)
}
