package application

import (
	"context"
	"log/slog"

	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// accessSync propagates a queue's lock state to the platform: a notice in the
// queue's text channel and the @everyone overwrite on its waiting rooms.
// Every step is best-effort.
type accessSync struct {
	platform   output.Platform
	translator output.T
	publisher  output.EventPublisher
	env        Env
}

// everyoneOverwrite denies voice access when locked and grants it otherwise.
// The @everyone role shares the workspace id.
func everyoneOverwrite(workspaceID string, locked bool) entities.PermissionOverwrite {
	o := entities.PermissionOverwrite{ID: workspaceID, Type: entities.OverwriteRole}
	if locked {
		o.Deny = entities.PermVoiceAccess
	} else {
		o.Allow = entities.PermVoiceAccess
	}
	return o
}

// apply returns the number of failed side effects.
func (a *accessSync) apply(ctx context.Context, ws *entities.Workspace, q *entities.Queue) int {
	logger := a.env.logger(ctx, "access", "sync", "workspace", ws.ID, "queue", q.Name, "locked", q.Locked)
	failures := 0

	if q.TextChannelID != "" {
		key := "queue.notify.unlocked"
		if q.Locked {
			key = "queue.notify.locked"
		}
		msg := a.translator.T(a.env.Locale, key, q.MessageData(a.env.now(), nil))
		if err := a.platform.SendMessage(ctx, q.TextChannelID, msg); err != nil {
			failures++
			logger.Warn("queue notification failed", "channel", q.TextChannelID, "error", err)
		}
	}

	overwrite := everyoneOverwrite(ws.ID, q.Locked)
	for _, ch := range ws.WaitingRooms(q.ID) {
		if err := a.platform.SetChannelPermissions(ctx, ch.ID, []entities.PermissionOverwrite{overwrite}); err != nil {
			failures++
			logger.Warn("waiting room permission sync failed", "channel", ch.ID, "error", err)
		}
	}

	evType := output.EventQueueUnlocked
	if q.Locked {
		evType = output.EventQueueLocked
	}
	publish(ctx, a.publisher, logger, output.QueueEvent{Type: evType, WorkspaceID: ws.ID, QueueID: q.ID, At: a.env.now()})
	return failures
}

func publish(ctx context.Context, p output.EventPublisher, logger *slog.Logger, ev output.QueueEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("publish queue event failed", "event", string(ev.Type), "error", err)
	}
}
