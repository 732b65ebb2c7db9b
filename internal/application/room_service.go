package application

import (
	"context"
	"errors"
	"fmt"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/input"
	"coachbot/internal/ports/output"
)

var _ input.RoomUseCase = (*RoomService)(nil)

// RoomService keeps the event log of spawned rooms and tears them down.
type RoomService struct {
	rooms     output.RoomRepository
	store     *workspaceStore
	platform  output.Platform
	publisher output.EventPublisher
	env       Env
}

func NewRoomService(
	rooms output.RoomRepository,
	workspaces output.WorkspaceRepository,
	platform output.Platform,
	publisher output.EventPublisher,
	locks *KeyedMutex,
	env Env,
) *RoomService {
	return &RoomService{
		rooms:     rooms,
		store:     &workspaceStore{repo: workspaces, locks: locks, env: env},
		platform:  platform,
		publisher: publisher,
		env:       env,
	}
}

func roomKey(id string) string { return "room:" + id }

// record appends an event to an active room under the room lock.
func (s *RoomService) record(ctx context.Context, roomID string, fn func(*entities.Room) error) (*entities.Room, error) {
	unlock := s.store.locks.Lock(roomKey(roomID))
	defer unlock()
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}
	return room, nil
}

// RecordJoin logs memberID entering the room on their own.
func (s *RoomService) RecordJoin(ctx context.Context, roomID, memberID string) error {
	_, err := s.record(ctx, roomID, func(r *entities.Room) error {
		return r.Append(entities.RoomEvent{Type: entities.EventUserJoin, At: s.env.now(), MemberID: memberID})
	})
	return err
}

// RecordMove logs memberID being moved into the room by actorID.
func (s *RoomService) RecordMove(ctx context.Context, roomID, memberID, actorID string) error {
	_, err := s.record(ctx, roomID, func(r *entities.Room) error {
		return r.Append(entities.RoomEvent{Type: entities.EventMoveMember, At: s.env.now(), MemberID: memberID, ActorID: actorID})
	})
	return err
}

// RecordLeave logs memberID leaving. When remaining is 0 the room is closed.
func (s *RoomService) RecordLeave(ctx context.Context, roomID, memberID string, remaining int) (closed bool, err error) {
	_, err = s.record(ctx, roomID, func(r *entities.Room) error {
		return r.Append(entities.RoomEvent{Type: entities.EventUserLeave, At: s.env.now(), MemberID: memberID})
	})
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}
	if err := s.Close(ctx, roomID, ""); err != nil {
		return false, err
	}
	return true, nil
}

// RecordPermissionChange logs a permission edit. Edits by anyone but the bot
// mark the room as tampered.
func (s *RoomService) RecordPermissionChange(ctx context.Context, roomID, actorID string) error {
	botID := s.platform.BotID()
	_, err := s.record(ctx, roomID, func(r *entities.Room) error {
		if err := r.Append(entities.RoomEvent{Type: entities.EventPermissionChange, At: s.env.now(), ActorID: actorID}); err != nil {
			return err
		}
		if actorID != botID {
			r.Tampered = true
		}
		return nil
	})
	return err
}

// Close deactivates the room, deletes its channel best-effort and drops it
// from the workspace channel table. actorID is empty when the room closed
// because it emptied.
func (s *RoomService) Close(ctx context.Context, roomID, actorID string) error {
	logger := s.env.logger(ctx, "room", "close", "room", roomID)
	now := s.env.now()
	room, err := s.record(ctx, roomID, func(r *entities.Room) error {
		return r.Close(now, actorID, true)
	})
	if err != nil {
		return err
	}
	if err := s.platform.DeleteChannel(ctx, roomID); err != nil {
		logger.Warn("delete room channel failed", "error", err)
	}
	if _, err := s.store.update(ctx, room.WorkspaceID, func(ws *entities.Workspace) error {
		ws.RemoveChannel(roomID)
		return nil
	}); err != nil {
		logger.Warn("unregister room channel failed", "error", err)
	}
	publish(ctx, s.publisher, logger, output.QueueEvent{Type: output.EventRoomClosed, WorkspaceID: room.WorkspaceID, QueueID: room.QueueID, RoomID: roomID, At: now})
	return nil
}

// ActiveRooms lists the open rooms of a workspace.
func (s *RoomService) ActiveRooms(ctx context.Context, workspaceID string) ([]entities.Room, error) {
	return s.rooms.FindActiveByWorkspace(ctx, workspaceID)
}

// IsRoom reports whether channelID belongs to a tracked, active room.
func (s *RoomService) IsRoom(ctx context.Context, channelID string) (bool, error) {
	room, err := s.rooms.FindByID(ctx, channelID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return room.Active, nil
}
