package application

import (
	"context"

	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// GuardReport summarizes one SchedulerGuard tick.
type GuardReport struct {
	Workspaces  int
	Queues      int
	Transitions int
	Failures    int
}

// SchedulerGuard enforces the opening times of auto-locking queues. Tick is
// idempotent: without time passing, a second tick finds nothing to change.
type SchedulerGuard struct {
	store  *workspaceStore
	access *accessSync
	env    Env
}

func NewSchedulerGuard(
	workspaces output.WorkspaceRepository,
	platform output.Platform,
	translator output.T,
	publisher output.EventPublisher,
	locks *KeyedMutex,
	env Env,
) *SchedulerGuard {
	return &SchedulerGuard{
		store:  &workspaceStore{repo: workspaces, locks: locks, env: env},
		access: &accessSync{platform: platform, translator: translator, publisher: publisher, env: env},
		env:    env,
	}
}

// Tick scans every workspace. A failing workspace or queue is logged and
// does not stop the scan.
func (g *SchedulerGuard) Tick(ctx context.Context) GuardReport {
	var report GuardReport
	logger := g.env.logger(ctx, "guard", "tick")

	all, err := g.store.repo.FindAll(ctx)
	if err != nil {
		logger.Error("list workspaces failed", "error", err)
		report.Failures++
		return report
	}
	for _, ws := range all {
		report.Workspaces++
		queues, transitions, failures := g.tickWorkspace(ctx, ws.ID)
		report.Queues += queues
		report.Transitions += transitions
		report.Failures += failures
	}
	if report.Transitions > 0 || report.Failures > 0 {
		logger.Info("guard tick done",
			"workspaces", report.Workspaces,
			"queues", report.Queues,
			"transitions", report.Transitions,
			"failures", report.Failures)
	}
	return report
}

func (g *SchedulerGuard) tickWorkspace(ctx context.Context, workspaceID string) (queues, transitions, failures int) {
	logger := g.env.logger(ctx, "guard", "workspace", "workspace", workspaceID)
	now := g.env.now()
	var changed []entities.Queue

	unlock := g.store.locks.Lock(workspaceKey(workspaceID))
	ws, err := g.store.load(ctx, workspaceID)
	if err != nil {
		unlock()
		logger.Warn("load workspace failed", "error", err)
		return 0, 0, 1
	}
	for i := range ws.Queues {
		q := &ws.Queues[i]
		if !q.AutoLock {
			continue
		}
		queues++
		shouldBeUnlocked := q.ShouldBeOpen(now)
		if shouldBeUnlocked == !q.Locked {
			continue
		}
		q.Locked = !shouldBeUnlocked
		changed = append(changed, *q)
	}
	if len(changed) > 0 {
		ws.UpdatedAt = now
		if err := g.store.repo.Save(ctx, ws); err != nil {
			unlock()
			logger.Warn("save workspace failed", "error", err)
			return queues, 0, 1
		}
	}
	unlock()

	for i := range changed {
		q := &changed[i]
		logger.Info("queue lock toggled by schedule", "queue", q.Name, "locked", q.Locked)
		failures += g.access.apply(ctx, ws, q)
	}
	return queues, len(changed), failures
}
