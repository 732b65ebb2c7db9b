package discord

import (
	"context"

	pkgdiscord "coachbot/pkg/discord"
)

func (h *Handler) queueJoin(ctx context.Context, inv *invocation) (reply, error) {
	res, err := h.queues.Join(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.userID, inv.opts.stringValue("intent"))
	if err != nil {
		return reply{}, err
	}
	return reply{content: res.Message}, nil
}

func (h *Handler) queueLeave(ctx context.Context, inv *invocation) (reply, error) {
	res, err := h.queues.Leave(ctx, inv.guildID, inv.opts.stringValue("queue"), inv.userID)
	if err != nil {
		return reply{}, err
	}
	return reply{content: res.Message}, nil
}

func (h *Handler) queuePosition(ctx context.Context, inv *invocation) (reply, error) {
	_, q, err := h.queues.Queue(ctx, inv.guildID, inv.opts.stringValue("queue"))
	if err != nil {
		return reply{}, err
	}
	pos, err := h.queues.Position(ctx, inv.guildID, q.Name, inv.userID)
	if err != nil {
		return reply{}, err
	}
	data := q.MessageData(h.now(), nil)
	if pos < 0 {
		return h.say(inv, "queue.not_waiting", data), nil
	}
	data["pos"] = pos + 1
	return h.say(inv, "queue.position", data), nil
}

func (h *Handler) queueList(ctx context.Context, inv *invocation) (reply, error) {
	q, entries, err := h.queues.List(ctx, inv.guildID, inv.opts.stringValue("queue"), 0)
	if err != nil {
		return reply{}, err
	}
	return reply{embed: pkgdiscord.BuildQueueEmbed(h.translator, inv.locale, q, entries, h.now())}, nil
}

func (h *Handler) queueStay(_ context.Context, inv *invocation) (reply, error) {
	h.queues.Stay(inv.userID)
	return h.say(inv, "queue.stay", nil), nil
}
