package output

import (
	"context"

	"coachbot/internal/domain/entities"
)

// VoiceChannelSpec describes a voice channel to create.
type VoiceChannelSpec struct {
	Name       string
	ParentID   string
	MaxUsers   int
	Overwrites []entities.PermissionOverwrite
}

// Member is a workspace member as seen by the platform.
type Member struct {
	ID          string
	DisplayName string
	Roles       []string
	Bot         bool
}

// Role is a workspace role.
type Role struct {
	ID   string
	Name string
}

// Platform is the chat platform gateway. Every call may fail; callers on
// best-effort paths log and continue.
type Platform interface {
	BotID() string
	CreateVoiceChannel(ctx context.Context, workspaceID string, spec VoiceChannelSpec) (string, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error
	// SetChannelPermissions upserts each overwrite, leaving others untouched.
	SetChannelPermissions(ctx context.Context, channelID string, overwrites []entities.PermissionOverwrite) error
	// MoveMember moves a member to channelID, or disconnects them when channelID is "".
	MoveMember(ctx context.Context, workspaceID, memberID, channelID string) error
	SendMessage(ctx context.Context, channelID, content string) error
	SendDirectMessage(ctx context.Context, userID, content string) error
	FetchRoles(ctx context.Context, workspaceID string) ([]Role, error)
	FetchMembers(ctx context.Context, workspaceID string) ([]Member, error)
	AddRole(ctx context.Context, workspaceID, memberID, roleID string) error
	RemoveRole(ctx context.Context, workspaceID, memberID, roleID string) error
}
