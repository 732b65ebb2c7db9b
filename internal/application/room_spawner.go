package application

import (
	"context"
	"fmt"
	"strings"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// RoomSpawner materializes a RoomSpawnTemplate into a platform voice channel
// and a Room record.
type RoomSpawner struct {
	platform   output.Platform
	rooms      output.RoomRepository
	translator output.T
	env        Env
}

func NewRoomSpawner(platform output.Platform, rooms output.RoomRepository, translator output.T, env Env) *RoomSpawner {
	return &RoomSpawner{platform: platform, rooms: rooms, translator: translator, env: env}
}

// Spawn creates the channel and persists the room. On success the channel is
// registered as temporary in ws's channel table; persisting ws is left to the
// caller. When the channel cannot be created no room is stored and a
// *domain.RoomCreationError is returned.
func (s *RoomSpawner) Spawn(ctx context.Context, ws *entities.Workspace, q *entities.Queue, owner entities.RoomOwner, tmpl entities.RoomSpawnTemplate) (*entities.Room, error) {
	logger := s.env.logger(ctx, "spawner", "spawn", "workspace", ws.ID, "owner", owner.ID)
	tmpl.Owner = owner.ID

	queueName, queueID := "", ""
	if q != nil {
		queueName, queueID = q.Name, q.ID
	}
	data := map[string]any{
		"owner":      owner.ID,
		"owner_name": owner.DisplayName,
		"max_users":  tmpl.MaxUsers,
		"queue":      queueName,
		"room_id":    "",
	}
	name := s.roomName(tmpl.NameTemplate, data)

	channelID, err := s.platform.CreateVoiceChannel(ctx, ws.ID, output.VoiceChannelSpec{
		Name:       name,
		ParentID:   tmpl.ParentID,
		MaxUsers:   tmpl.MaxUsers,
		Overwrites: tmpl.Overwrites(s.platform.BotID(), ws.ID),
	})
	if err != nil {
		return nil, &domain.RoomCreationError{Err: err}
	}
	if channelID == "" {
		return nil, &domain.RoomCreationError{Err: fmt.Errorf("platform returned no channel id")}
	}

	if strings.Contains(tmpl.NameTemplate, "room_id") {
		data["room_id"] = channelID
		if renamed := s.roomName(tmpl.NameTemplate, data); renamed != name {
			if err := s.platform.RenameChannel(ctx, channelID, renamed); err != nil {
				logger.Warn("rename room failed", "channel", channelID, "error", err)
			}
		}
	}

	room := &entities.Room{
		ID:          channelID,
		WorkspaceID: ws.ID,
		QueueID:     queueID,
		Active:      true,
		EndCertain:  false,
		Events: []entities.RoomEvent{{
			Type:     entities.EventCreateChannel,
			At:       s.env.now(),
			MemberID: owner.ID,
			ActorID:  s.platform.BotID(),
		}},
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		if derr := s.platform.DeleteChannel(ctx, channelID); derr != nil {
			logger.Warn("delete orphan channel failed", "channel", channelID, "error", derr)
		}
		return nil, fmt.Errorf("save room: %w", err)
	}
	ws.UpsertChannel(entities.Channel{ID: channelID, Type: entities.ChannelTypeVoice, Temporary: true})
	logger.Info("room spawned", "room", channelID, "name", name)
	return room, nil
}

func (s *RoomSpawner) roomName(template string, data map[string]any) string {
	if strings.TrimSpace(template) != "" {
		if name, err := s.translator.Render(s.env.Locale, template, data); err == nil && strings.TrimSpace(name) != "" {
			return name
		}
	}
	return s.translator.T(s.env.Locale, "room.default_name", data)
}
