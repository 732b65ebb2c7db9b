package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"coachbot/internal/domain/entities"
)

func (h *Handler) coachStart(ctx context.Context, inv *invocation) (reply, error) {
	if _, err := h.sessions.Start(ctx, inv.guildID, inv.userID, inv.opts.stringValue("queue"), entities.RoleCoach); err != nil {
		return reply{}, err
	}
	return h.say(inv, "session.started", nil), nil
}

func (h *Handler) coachQuit(ctx context.Context, inv *invocation) (reply, error) {
	session, err := h.sessions.Quit(ctx, inv.guildID, inv.userID)
	if err != nil {
		return reply{}, err
	}
	participants, err := h.sessions.ParticipantAmount(ctx, session)
	if err != nil {
		log.Printf("⚠️ Participant count failed (session=%s): %v", session.ID, err)
	}
	var duration time.Duration
	if session.EndedAt != nil {
		duration = session.EndedAt.Sub(session.StartedAt)
	}
	return h.say(inv, "session.ended", map[string]any{
		"duration":     duration.Round(time.Second).String(),
		"rooms":        session.RoomAmount(),
		"participants": participants,
	}), nil
}

func (h *Handler) coachNext(ctx context.Context, inv *invocation) (reply, error) {
	res, err := h.coach.Next(ctx, inv.guildID, inv.opts.stringValue("queue"), h.owner(inv), inv.opts.intValue("amount", 1))
	if err != nil {
		return reply{}, err
	}
	return h.pullReply(inv, res), nil
}

func (h *Handler) coachPick(ctx context.Context, inv *invocation) (reply, error) {
	res, err := h.coach.Pick(ctx, inv.guildID, inv.opts.stringValue("queue"), h.owner(inv), []string{inv.opts.id("member")})
	if err != nil {
		return reply{}, err
	}
	return h.pullReply(inv, res), nil
}

func (h *Handler) coachBoost(ctx context.Context, inv *invocation) (reply, error) {
	member := inv.opts.id("member")
	importance := inv.opts.floatValue("importance")
	pos, err := h.queues.SetImportance(ctx, inv.guildID, inv.opts.stringValue("queue"), member, importance)
	if err != nil {
		return reply{}, err
	}
	return h.say(inv, "queue.importance_set", map[string]any{
		"member":     member,
		"importance": importance,
		"pos":        pos + 1,
	}), nil
}

func (h *Handler) owner(inv *invocation) entities.RoomOwner {
	return entities.RoomOwner{ID: inv.userID, DisplayName: inv.userName}
}

func (h *Handler) pullReply(inv *invocation, res *entities.PullResult) reply {
	msg := h.translator.T(inv.locale, "room.pulled", map[string]any{
		"room_id": res.Room.ID,
		"count":   len(res.Entries),
	})
	if len(res.Unmoved) > 0 {
		mentions := make([]string, 0, len(res.Unmoved))
		for _, id := range res.Unmoved {
			mentions = append(mentions, fmt.Sprintf("<@%s>", id))
		}
		msg += "\n" + h.translator.T(inv.locale, "room.unmoved", map[string]any{"members": strings.Join(mentions, ", ")})
	}
	return reply{content: msg}
}
