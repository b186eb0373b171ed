package httpapi

import (
	"database/sql"
	"sync/atomic"

	"apptrack-engine/internal/config"
	"apptrack-engine/internal/events"

	"golang.org/x/time/rate"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal       *atomic.Value // stores config.Config
	IngestStatus *atomic.Value // stores httpapi.IngestStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Hand an admitted event to the assignment pool (inject for testability)
	Enqueue func(eventID string) bool

	// Shared-secret lookup for POST /ingest; nil disables the check (tests)
	IngestSecret func() (string, error)

	// Token bucket for POST /ingest
	Limiter *rate.Limiter
}
