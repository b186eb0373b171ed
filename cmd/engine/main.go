package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"apptrack-engine/internal/assign"
	"apptrack-engine/internal/config"
	"apptrack-engine/internal/events"
	"apptrack-engine/internal/httpapi"
	"apptrack-engine/internal/scheduler"
	"apptrack-engine/internal/secrets"
	"apptrack-engine/internal/stats"
	"apptrack-engine/internal/store"
	"apptrack-engine/internal/worker"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	// Engine data dir: use env if provided (a supervisor can pass one), else
	// a local folder next to the binary.
	dataDir := os.Getenv("APPTRACK_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir; a second instance would fight over the sqlite
	// writer and double-run the scheduled tasks.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock %s: %v", lock.Path(), err)
	}
	if !locked {
		log.Fatalf("another engine instance holds %s", lock.Path())
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Printf("level=warn msg=\"config\" warn=%q", w)
	}
	if !v.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, v.Errors)
	}
	cfgVal.Store(cfg)

	db, err := store.Open(filepath.Join(dataDir, "apptrack.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	var ingestStatus atomic.Value
	ingestStatus.Store(httpapi.IngestStatus{})

	coord := &assign.Coordinator{DB: db.Pool, Hub: hub}
	pool := worker.New(coord, cfg.Ingest.Workers, cfg.Ingest.QueueSize)

	limiter := rate.NewLimiter(rate.Limit(cfg.Ingest.RatePerSec), cfg.Ingest.Burst)

	var ingestSecret func() (string, error)
	if _, err := secrets.GetIngestSecret(); err != nil {
		log.Printf("level=warn msg=\"ingest secret not set; /ingest is open until one is stored\"")
	} else {
		ingestSecret = secrets.GetIngestSecret
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:           db.Pool,
		Hub:          hub,
		CfgVal:       &cfgVal,
		IngestStatus: &ingestStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      loadCfg,
		Enqueue:      pool.Enqueue,
		IngestSecret: ingestSecret,
		Limiter:      limiter,
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.AccessLog,
		httpapi.Recover,
		httpapi.Cors,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pool.Run(ctx)
	})

	g.Go(func() error {
		scheduler.Every(ctx, time.Duration(cfg.Tasks.SweepSeconds)*time.Second, "sweep", func(ctx context.Context) error {
			return pool.Sweep(ctx, db.Pool)
		})
		return nil
	})

	g.Go(func() error {
		scheduler.Every(ctx, time.Duration(cfg.Tasks.ReconcileSeconds)*time.Second, "reconcile", func(ctx context.Context) error {
			if err := stats.Rebuild(ctx, db.Pool); err != nil {
				return err
			}
			hub.Publish(events.MakeEvent("", events.TypeStatsRebuilt, 1, nil))
			return nil
		})
		return nil
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Printf("level=info msg=\"engine listening\" addr=%s data_dir=%s", srv.Addr, dataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("engine stopped: %v", err)
	}
	log.Printf("level=info msg=\"engine stopped\"")
}
