package application

import (
	"context"
	"errors"
	"log/slog"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/input"
	"coachbot/internal/ports/output"
)

var _ input.CoachUseCase = (*CoachService)(nil)

// CoachService pulls waiting members into freshly spawned rooms.
//
// The whole selection, spawn and removal runs under the workspace lock, so two
// coaches pulling from the same queue never get the same entries.
type CoachService struct {
	store      *workspaceStore
	spawner    *RoomSpawner
	rooms      *RoomService
	sessions   *SessionService
	platform   output.Platform
	translator output.T
	publisher  output.EventPublisher
	timers     *DisconnectTimers
	env        Env
}

func NewCoachService(
	workspaces output.WorkspaceRepository,
	spawner *RoomSpawner,
	rooms *RoomService,
	sessions *SessionService,
	platform output.Platform,
	translator output.T,
	publisher output.EventPublisher,
	timers *DisconnectTimers,
	locks *KeyedMutex,
	env Env,
) *CoachService {
	return &CoachService{
		store:      &workspaceStore{repo: workspaces, locks: locks, env: env},
		spawner:    spawner,
		rooms:      rooms,
		sessions:   sessions,
		platform:   platform,
		translator: translator,
		publisher:  publisher,
		timers:     timers,
		env:        env,
	}
}

// Next pulls the amount top-ranked entries of the queue.
func (s *CoachService) Next(ctx context.Context, workspaceID, queueName string, coach entities.RoomOwner, amount int) (*entities.PullResult, error) {
	if amount < 1 {
		amount = 1
	}
	return s.pull(ctx, workspaceID, queueName, coach, func(q *entities.Queue) ([]entities.QueueEntry, error) {
		if q.IsEmpty() {
			return nil, domain.ErrQueueEmpty
		}
		return q.SortedEntries(s.env.now(), amount), nil
	})
}

// Pick pulls the given members, all of whom must be waiting in the queue.
func (s *CoachService) Pick(ctx context.Context, workspaceID, queueName string, coach entities.RoomOwner, memberIDs []string) (*entities.PullResult, error) {
	return s.pull(ctx, workspaceID, queueName, coach, func(q *entities.Queue) ([]entities.QueueEntry, error) {
		if len(memberIDs) == 0 {
			return nil, domain.ErrQueueEmpty
		}
		out := make([]entities.QueueEntry, 0, len(memberIDs))
		seen := make(map[string]bool, len(memberIDs))
		for _, id := range memberIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			entry, ok := q.Entry(id)
			if !ok {
				return nil, domain.ErrEntryNotFound
			}
			out = append(out, entry)
		}
		return out, nil
	})
}

func (s *CoachService) pull(
	ctx context.Context,
	workspaceID, queueName string,
	coach entities.RoomOwner,
	selectEntries func(*entities.Queue) ([]entities.QueueEntry, error),
) (*entities.PullResult, error) {
	logger := s.env.logger(ctx, "coach", "pull", "workspace", workspaceID, "queue", queueName, "coach", coach.ID)
	res := &entities.PullResult{}

	unlock := s.store.locks.Lock(workspaceKey(workspaceID))
	ws, err := s.store.updateLocked(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := ws.QueueByName(queueName)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		selected, err := selectEntries(q)
		if err != nil {
			return err
		}

		tmpl := entities.RoomSpawnTemplate{}
		if q.RoomSpawner != nil {
			tmpl = *q.RoomSpawner
		}
		// Entries stay in the queue unless the room exists.
		room, err := s.spawner.Spawn(ctx, ws, q, coach, tmpl)
		if err != nil {
			return err
		}
		res.Room = room
		tmpl.Owner = coach.ID
		q.RoomSpawner = &tmpl

		for _, e := range selected {
			if _, err := q.Leave(e.DiscordID); err != nil {
				return err
			}
		}
		res.Entries = selected
		res.Queue = *q
		return nil
	})
	unlock()
	if err != nil {
		if res.Room != nil {
			// The queue still holds the entries, so the room must not outlive this call.
			if cerr := s.rooms.Close(ctx, res.Room.ID, coach.ID); cerr != nil {
				logger.Warn("close room after failed save", "room", res.Room.ID, "error", cerr)
			}
		}
		return nil, err
	}

	now := s.env.now()
	publish(ctx, s.publisher, logger, output.QueueEvent{Type: output.EventRoomCreated, WorkspaceID: workspaceID, QueueID: res.Queue.ID, MemberID: coach.ID, RoomID: res.Room.ID, At: now})

	if err := s.sessions.AttachRoom(ctx, workspaceID, coach.ID, res.Room.ID); err != nil && !errors.Is(err, domain.ErrNoActiveSession) {
		logger.Warn("attach room to session failed", "room", res.Room.ID, "error", err)
	}

	coachMoved := s.moveInto(ctx, workspaceID, res.Room.ID, coach.ID, logger)
	for _, e := range res.Entries {
		s.timers.Cancel(res.Queue.ID, e.DiscordID)
		publish(ctx, s.publisher, logger, output.QueueEvent{Type: output.EventEntryPicked, WorkspaceID: workspaceID, QueueID: res.Queue.ID, MemberID: e.DiscordID, RoomID: res.Room.ID, At: now})
		if s.moveInto(ctx, workspaceID, res.Room.ID, e.DiscordID, logger) {
			res.Moved = append(res.Moved, e.DiscordID)
		} else {
			res.Unmoved = append(res.Unmoved, e.DiscordID)
		}
		msg := s.translator.T(s.env.Locale, "room.pulled_dm", map[string]any{
			"queue":   res.Queue.Name,
			"room_id": res.Room.ID,
			"coach":   coach.ID,
		})
		if err := s.platform.SendDirectMessage(ctx, e.DiscordID, msg); err != nil {
			logger.Warn("notify pulled member failed", "member", e.DiscordID, "error", err)
		}
		if ws.WaitingRoleID != "" && len(ws.QueuesOf(e.DiscordID)) == 0 {
			if err := s.platform.RemoveRole(ctx, workspaceID, e.DiscordID, ws.WaitingRoleID); err != nil {
				logger.Warn("revoke waiting role failed", "member", e.DiscordID, "error", err)
			}
		}
	}

	// Nobody reached the room, so no leave event will ever close it.
	if !coachMoved && len(res.Moved) == 0 {
		if err := s.rooms.Close(ctx, res.Room.ID, coach.ID); err != nil {
			logger.Warn("close unreachable room failed", "room", res.Room.ID, "error", err)
		} else {
			res.Room.Active = false
		}
	}
	return res, nil
}

// moveInto moves memberID into the room and logs the move. Failures are
// logged; members not connected to voice cannot be moved.
func (s *CoachService) moveInto(ctx context.Context, workspaceID, roomID, memberID string, logger *slog.Logger) bool {
	if err := s.platform.MoveMember(ctx, workspaceID, memberID, roomID); err != nil {
		logger.Warn("move member failed", "member", memberID, "room", roomID, "error", err)
		return false
	}
	if err := s.rooms.RecordMove(ctx, roomID, memberID, s.platform.BotID()); err != nil {
		logger.Warn("record move failed", "member", memberID, "room", roomID, "error", err)
	}
	return true
}
