package input

import (
	"context"
	"time"

	"coachbot/internal/domain/entities"
)

type QueueUseCase interface {
	EnsureWorkspace(ctx context.Context, id, name string) (*entities.Workspace, error)
	CreateQueue(ctx context.Context, workspaceID, name, description, textChannelID string) (*entities.Queue, error)
	DeleteQueue(ctx context.Context, workspaceID, name string) error
	Join(ctx context.Context, workspaceID, queueName, memberID, intent string) (*entities.JoinResult, error)
	Leave(ctx context.Context, workspaceID, queueName, memberID string) (*entities.LeaveResult, error)
	Queue(ctx context.Context, workspaceID, name string) (*entities.Workspace, *entities.Queue, error)
	SetImportance(ctx context.Context, workspaceID, queueName, memberID string, importance float64) (int, error)
	Position(ctx context.Context, workspaceID, queueName, memberID string) (int, error)
	List(ctx context.Context, workspaceID, queueName string, limit int) (*entities.Queue, []entities.QueueEntry, error)
	Lock(ctx context.Context, workspaceID, queueName string) (bool, error)
	Unlock(ctx context.Context, workspaceID, queueName string) (bool, error)
	ToggleLock(ctx context.Context, workspaceID, queueName string) (bool, error)
	SyncAccess(ctx context.Context, workspaceID, queueName string) error
	SetAutoLock(ctx context.Context, workspaceID, queueName string, enabled bool) (*entities.Queue, error)
	AddSpan(ctx context.Context, workspaceID, queueName, spec string) (entities.QueueSpan, error)
	RemoveSpan(ctx context.Context, workspaceID, queueName string, index int) (entities.QueueSpan, error)
	SetShifts(ctx context.Context, workspaceID, queueName string, openShift, closeShift time.Duration) (*entities.Queue, error)
	SetMessages(ctx context.Context, workspaceID, queueName, join, leave string) (*entities.Queue, error)
	SetLimit(ctx context.Context, workspaceID, queueName string, limit int, avgService time.Duration) (*entities.Queue, error)
	SetDisconnectTimeout(ctx context.Context, workspaceID, queueName string, timeout time.Duration) (*entities.Queue, error)
	SetRoomTemplate(ctx context.Context, workspaceID, queueName string, edit func(*entities.RoomSpawnTemplate)) (*entities.Queue, error)
	UpdateQueue(ctx context.Context, workspaceID, queueName string, mutate func(*entities.Queue) error) (*entities.Queue, error)
	LinkWaitingRoom(ctx context.Context, workspaceID, queueName, channelID string) error
	WaitingRooms(ctx context.Context, workspaceID, queueName string) ([]entities.Channel, error)
	SetWaitingRole(ctx context.Context, workspaceID, roleID string) error
	FixupWaitingRoles(ctx context.Context, workspaceID string) (added, removed int, err error)
	MemberLeftWaitingRoom(ctx context.Context, workspaceID, channelID, memberID string) (bool, error)
	MemberJoinedWaitingRoom(ctx context.Context, workspaceID, channelID, memberID string) (bool, error)
	Stay(memberID string) int
}
