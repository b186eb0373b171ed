package httpapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"apptrack-engine/internal/events"
	"apptrack-engine/internal/store"
)

type EventsHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

// List serves the event audit trail, optionally filtered by assignment
// status (?assignment=unprocessed).
func (h EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	u, msg := resolveUser(r, h.DB)
	if u == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", msg)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	evs, err := store.ListEvents(r.Context(), h.DB, u.ID, store.ListEventsOpts{
		AssignmentStatus: q.Get("assignment"),
		Limit:            limit,
	})
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	writeJSON(w, evs)
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	// Ping as a proper event envelope
	reqID := RequestIDFrom(r.Context())
	ping := events.MakeEvent(reqID, "ping", 1, nil)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", ping)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
