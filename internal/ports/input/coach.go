package input

import (
	"context"

	"coachbot/internal/domain/entities"
)

type CoachUseCase interface {
	Next(ctx context.Context, workspaceID, queueName string, coach entities.RoomOwner, amount int) (*entities.PullResult, error)
	Pick(ctx context.Context, workspaceID, queueName string, coach entities.RoomOwner, memberIDs []string) (*entities.PullResult, error)
}

type RoomUseCase interface {
	RecordJoin(ctx context.Context, roomID, memberID string) error
	RecordLeave(ctx context.Context, roomID, memberID string, remaining int) (bool, error)
	RecordPermissionChange(ctx context.Context, roomID, actorID string) error
	Close(ctx context.Context, roomID, actorID string) error
	ActiveRooms(ctx context.Context, workspaceID string) ([]entities.Room, error)
	IsRoom(ctx context.Context, channelID string) (bool, error)
}

type SessionUseCase interface {
	Start(ctx context.Context, workspaceID, userID, queueName string, role entities.SessionRole) (*entities.Session, error)
	Quit(ctx context.Context, workspaceID, userID string) (*entities.Session, error)
	Terminate(ctx context.Context, workspaceID string) (int, error)
	Active(ctx context.Context, workspaceID, userID string) (*entities.Session, error)
	ParticipantAmount(ctx context.Context, session *entities.Session) (int, error)
}
