package httpapi

import "net/http"

// NewMux returns the raw mux so main() can wrap it with the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Ingest
	ih := IngestHandler{
		DB: d.DB, Hub: d.Hub, Status: d.IngestStatus,
		Enqueue: d.Enqueue,
	}
	mux.Handle("/ingest", Chain(
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: ih.Ingest,
		}),
		RequireIngestSecret(d.IngestSecret),
		RateLimit(d.Limiter),
	))
	mux.HandleFunc("/ingest/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.StatusGet,
	}))

	// Users
	uh := UsersHandler{DB: d.DB}
	mux.HandleFunc("/users", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: uh.Create,
	}))

	// Read side
	ah := ApplicationsHandler{DB: d.DB}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))

	eh := EventsHandler{DB: d.DB, Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.List,
	}))
	mux.HandleFunc("/events/stream", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	dh := DashboardHandler{DB: d.DB, CfgVal: d.CfgVal}
	mux.HandleFunc("/dashboard", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.Get,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets
	sh := SecretsHandler{}
	mux.HandleFunc("/api/secrets/ingest", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIngestSecret,
	}))

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
