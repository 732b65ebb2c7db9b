package discord

import (
	"context"
	"slices"
	"time"

	"coachbot/internal/domain/entities"
	pkgdiscord "coachbot/pkg/discord"
)

func (h *Handler) adminCreate(ctx context.Context, inv *invocation) (reply, error) {
	q, err := h.queues.CreateQueue(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.opts.stringValue("description"), inv.opts.id("channel"))
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.created", map[string]any{"name": q.Name}), nil
}

func (h *Handler) adminDelete(ctx context.Context, inv *invocation) (reply, error) {
	name := inv.opts.stringValue("queue")
	if err := h.queues.DeleteQueue(ctx, inv.guildID, name); err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.deleted", map[string]any{"name": name}), nil
}

func (h *Handler) adminLock(ctx context.Context, inv *invocation) (reply, error) {
	return h.lockReply(inv, "queue.locked")(h.queues.Lock(ctx, inv.guildID, inv.opts.stringValue("queue")))
}

func (h *Handler) adminUnlock(ctx context.Context, inv *invocation) (reply, error) {
	return h.lockReply(inv, "queue.unlocked")(h.queues.Unlock(ctx, inv.guildID, inv.opts.stringValue("queue")))
}

func (h *Handler) lockReply(inv *invocation, key string) func(bool, error) (reply, error) {
	return func(changed bool, err error) (reply, error) {
		if err != nil {
			return reply{}, err
		}
		data := map[string]any{"name": inv.opts.stringValue("queue")}
		if !changed {
			return h.say(inv, "queue.unchanged", data), nil
		}
		return h.say(inv, key, data), nil
	}
}

func (h *Handler) adminAutoLock(ctx context.Context, inv *invocation) (reply, error) {
	enabled := inv.opts.boolValue("enabled")
	q, err := h.queues.SetAutoLock(ctx, inv.guildID, inv.opts.stringValue("queue"), enabled)
	if err != nil {
		return reply{}, err
	}
	state := "off"
	if enabled {
		state = "on"
	}
	return h.say(inv, "queue.auto_lock", map[string]any{"name": q.Name, "state": state}), nil
}

func (h *Handler) adminScheduleAdd(ctx context.Context, inv *invocation) (reply, error) {
	span, err := h.queues.AddSpan(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.opts.stringValue("span"))
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.span_added", map[string]any{"name": inv.opts.stringValue("queue"), "span": span.String()}), nil
}

func (h *Handler) adminScheduleRemove(ctx context.Context, inv *invocation) (reply, error) {
	span, err := h.queues.RemoveSpan(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.opts.intValue("index", -1))
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.span_removed", map[string]any{"name": inv.opts.stringValue("queue"), "span": span.String()}), nil
}

func (h *Handler) adminShifts(ctx context.Context, inv *invocation) (reply, error) {
	openShift, err := pkgdiscord.ParseMinutes(inv.opts.stringValue("open"))
	if err != nil {
		return reply{}, err
	}
	closeShift, err := pkgdiscord.ParseMinutes(inv.opts.stringValue("close"))
	if err != nil {
		return reply{}, err
	}
	q, err := h.queues.SetShifts(ctx, inv.guildID, inv.opts.stringValue("queue"), openShift, closeShift)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.shifts_set", map[string]any{
		"name":  q.Name,
		"open":  entities.FormatShift(q.OpenShift),
		"close": entities.FormatShift(q.CloseShift),
	}), nil
}

func (h *Handler) adminMessages(ctx context.Context, inv *invocation) (reply, error) {
	q, err := h.queues.SetMessages(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.opts.stringValue("join"), inv.opts.stringValue("leave"))
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.messages_set", map[string]any{"name": q.Name}), nil
}

func (h *Handler) adminLimit(ctx context.Context, inv *invocation) (reply, error) {
	var avg time.Duration
	if inv.opts.has("avg_service") {
		d, err := pkgdiscord.ParseMinutes(inv.opts.stringValue("avg_service"))
		if err != nil {
			return reply{}, err
		}
		avg = d
	}
	q, err := h.queues.SetLimit(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.opts.intValue("limit", 0), avg)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.limit_set", map[string]any{"name": q.Name, "limit": q.Limit, "avg_service": q.AvgService.String()}), nil
}

func (h *Handler) adminTimeout(ctx context.Context, inv *invocation) (reply, error) {
	d, err := pkgdiscord.ParseMinutes(inv.opts.stringValue("after"))
	if err != nil {
		return reply{}, err
	}
	q, err := h.queues.SetDisconnectTimeout(ctx, inv.guildID, inv.opts.stringValue("queue"), d)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.timeout_set", map[string]any{"name": q.Name, "timeout": q.DisconnectTimeout.String()}), nil
}

func (h *Handler) adminRoom(ctx context.Context, inv *invocation) (reply, error) {
	q, err := h.queues.SetRoomTemplate(ctx, inv.guildID, inv.opts.stringValue("queue"), func(t *entities.RoomSpawnTemplate) {
		applyRoomOptions(t, inv.opts)
	})
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.room_set", map[string]any{"name": q.Name}), nil
}

// applyRoomOptions copies the options present on the command into t.
func applyRoomOptions(t *entities.RoomSpawnTemplate, opts options) {
	if opts.has("name") {
		t.NameTemplate = opts.stringValue("name")
	}
	if opts.has("max_users") {
		t.MaxUsers = opts.intValue("max_users", 0)
	}
	if opts.has("category") {
		t.ParentID = opts.id("category")
	}
	if role := opts.id("supervisor"); role != "" && !slices.Contains(t.SupervisorRoles, role) {
		t.SupervisorRoles = append(t.SupervisorRoles, role)
	}
	if opts.has("lock") {
		t.LockInitially = opts.boolValue("lock")
	}
	if opts.has("hide") {
		t.HideInitially = opts.boolValue("hide")
	}
}

func (h *Handler) adminLink(ctx context.Context, inv *invocation) (reply, error) {
	name, channel := inv.opts.stringValue("queue"), inv.opts.id("channel")
	if err := h.queues.LinkWaitingRoom(ctx, inv.guildID, name, channel); err != nil {
		return reply{}, err
	}
	if err := h.queues.SyncAccess(ctx, inv.guildID, name); err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.linked", map[string]any{"name": name, "channel": channel}), nil
}

func (h *Handler) adminWaitingRole(ctx context.Context, inv *invocation) (reply, error) {
	role := inv.opts.id("role")
	if err := h.queues.SetWaitingRole(ctx, inv.guildID, role); err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.waiting_role_set", map[string]any{"role": role}), nil
}

func (h *Handler) adminFixup(ctx context.Context, inv *invocation) (reply, error) {
	added, removed, err := h.queues.FixupWaitingRoles(ctx, inv.guildID)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.fixup_done", map[string]any{"added": added, "removed": removed}), nil
}

func (h *Handler) adminTerminate(ctx context.Context, inv *invocation) (reply, error) {
	n, err := h.sessions.Terminate(ctx, inv.guildID)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "session.terminated", map[string]any{"count": n}), nil
}

func (h *Handler) adminCloseRoom(ctx context.Context, inv *invocation) (reply, error) {
	if err := h.rooms.Close(ctx, inv.opts.id("channel"), inv.userID); err != nil {
		return reply{}, err
	}
	return h.say(inv, "room.closed", nil), nil
}
