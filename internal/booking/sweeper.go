package booking

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically turns lazy payment expiry into physical CANCELLED
// rows. The engine already treats lapsed unpaid reservations as cancelled
// on every read, so the sweep only settles state for reporting queries and
// downstream consumers; skipping a run never affects correctness.
type Sweeper struct {
	lifecycle *LifecycleManager
	sched     gocron.Scheduler
}

// NewSweeper builds a sweeper running ExpireOverdue every interval. An
// interval of zero or less defaults to one minute.
func NewSweeper(lifecycle *LifecycleManager, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s := &Sweeper{lifecycle: lifecycle, sched: sched}
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ids, err := s.lifecycle.ExpireOverdue(ctx)
	if err != nil {
		log.Printf("sweeper: expire overdue failed: %v", err)
		return
	}
	if len(ids) > 0 {
		log.Printf("sweeper: cancelled %d overdue reservation(s)", len(ids))
	}
}

// Start begins the periodic sweep in the background.
func (s *Sweeper) Start() { s.sched.Start() }

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() error { return s.sched.Shutdown() }
