package output

import (
	"context"

	"coachbot/internal/domain/entities"
)

// WorkspaceRepository stores one document per workspace, queues and channel
// table embedded. FindByID returns domain.ErrWorkspaceNotFound when absent.
type WorkspaceRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Workspace, error)
	FindAll(ctx context.Context) ([]entities.Workspace, error)
	Save(ctx context.Context, workspace *entities.Workspace) error
}

// RoomRepository stores rooms keyed by channel id.
type RoomRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Room, error)
	FindActiveByWorkspace(ctx context.Context, workspaceID string) ([]entities.Room, error)
	Save(ctx context.Context, room *entities.Room) error
}

// SessionRepository stores coach sessions.
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Session, error)
	FindActiveByWorkspace(ctx context.Context, workspaceID string) ([]entities.Session, error)
	FindByUser(ctx context.Context, workspaceID, userID string) ([]entities.Session, error)
	Save(ctx context.Context, session *entities.Session) error
}
