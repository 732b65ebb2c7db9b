package discord

import (
	"time"

	"coachbot/internal/ports/input"
	"coachbot/internal/ports/output"
)

// Handler handles Discord interactions and gateway events using use cases.
type Handler struct {
	queues     input.QueueUseCase
	coach      input.CoachUseCase
	rooms      input.RoomUseCase
	sessions   input.SessionUseCase
	translator output.T
	locale     string
	location   *time.Location
}

// NewHandler creates a Handler.
func NewHandler(
	queues input.QueueUseCase,
	coach input.CoachUseCase,
	rooms input.RoomUseCase,
	sessions input.SessionUseCase,
	translator output.T,
	locale string,
	location *time.Location,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		queues:     queues,
		coach:      coach,
		rooms:      rooms,
		sessions:   sessions,
		translator: translator,
		locale:     locale,
		location:   location,
	}
}

func (h *Handler) now() time.Time {
	return time.Now().In(h.location)
}

func (h *Handler) say(inv *invocation, key string, data map[string]any) reply {
	return reply{content: h.translator.T(inv.locale, key, data)}
}
