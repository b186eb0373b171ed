// Package worker runs the bounded assignment pool: ingest enqueues admitted
// event ids, a fixed set of workers drains them through the coordinator.
// There is no cross-event ordering guarantee beyond arrival order; the
// coordinator's transaction and the assignment no-op make that safe.
package worker

import (
	"context"
	"database/sql"
	"log"

	"apptrack-engine/internal/assign"
	"apptrack-engine/internal/store"

	"golang.org/x/sync/errgroup"
)

type Pool struct {
	Coordinator *assign.Coordinator
	Workers     int

	queue chan string
}

func New(c *assign.Coordinator, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		Coordinator: c,
		Workers:     workers,
		queue:       make(chan string, queueSize),
	}
}

// Enqueue hands an event id to the pool without blocking. A full queue
// reports false; the sweep task re-discovers anything dropped here, since
// unassigned events stay 'unprocessed' in the store.
func (p *Pool) Enqueue(eventID string) bool {
	select {
	case p.queue <- eventID:
		return true
	default:
		log.Printf("[worker] queue full, deferring event %s to sweep", eventID)
		return false
	}
}

// Run blocks until ctx is done. Assignment failures are logged, not fatal:
// the event stays unprocessed and the sweep retries it.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case id := <-p.queue:
					if err := p.Coordinator.Assign(ctx, id); err != nil {
						log.Printf("[worker] assign %s: %v", id, err)
					}
				}
			}
		})
	}
	return g.Wait()
}

// Sweep re-enqueues events that were admitted but never assigned: a crash
// between admit and assignment, a lost enqueue, or a failed attempt.
func (p *Pool) Sweep(ctx context.Context, db *sql.DB) error {
	ids, err := store.ListUnprocessedEventIDs(ctx, db, cap(p.queue))
	if err != nil {
		return err
	}
	enqueued := 0
	for _, id := range ids {
		if p.Enqueue(id) {
			enqueued++
		} else {
			break
		}
	}
	if enqueued > 0 {
		log.Printf("[worker] sweep re-enqueued %d unprocessed events", enqueued)
	}
	return nil
}
