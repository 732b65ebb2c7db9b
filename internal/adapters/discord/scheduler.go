package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"coachbot/internal/application"
)

// guardTimeout bounds one guard pass.
const guardTimeout = 50 * time.Second

// GuardTicker is implemented by application.SchedulerGuard.
type GuardTicker interface {
	Tick(ctx context.Context) application.GuardReport
}

// GuardRunner drives the scheduler guard on a cron schedule. Overlapping
// passes are skipped.
type GuardRunner struct {
	cron  *cron.Cron
	guard GuardTicker
}

// NewGuardRunner registers the guard at schedule (standard cron syntax or
// descriptors such as "@every 1m").
func NewGuardRunner(guard GuardTicker, schedule string) (*GuardRunner, error) {
	r := &GuardRunner{
		cron:  cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		guard: guard,
	}
	if _, err := r.cron.AddFunc(schedule, r.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule guard %q: %w", schedule, err)
	}
	return r, nil
}

// RunOnce performs a single guard pass.
func (r *GuardRunner) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), guardTimeout)
	defer cancel()
	report := r.guard.Tick(ctx)
	if report.Failures > 0 {
		log.Printf("⚠️ Guard pass: %d transition(s), %d failure(s)", report.Transitions, report.Failures)
	}
}

func (r *GuardRunner) Start() {
	r.cron.Start()
	log.Println("⏰ Opening-time guard started.")
}

// Stop waits for a running pass to finish.
func (r *GuardRunner) Stop() {
	<-r.cron.Stop().Done()
}
