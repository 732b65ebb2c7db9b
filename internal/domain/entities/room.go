package entities

import (
	"time"

	"coachbot/internal/domain"
)

// Permission bits, identical to the chat platform's bitfield.
const (
	PermManageChannels int64 = 1 << 4
	PermViewChannel    int64 = 1 << 10
	PermMuteMembers    int64 = 1 << 22
	PermDeafenMembers  int64 = 1 << 23
	PermMoveMembers    int64 = 1 << 24
	PermConnect        int64 = 1 << 20
	PermSpeak          int64 = 1 << 21
	PermManageRoles    int64 = 1 << 28

	// PermBotGrant is what the bot keeps on every room it spawns.
	PermBotGrant = PermManageChannels | PermManageRoles | PermViewChannel |
		PermConnect | PermSpeak | PermMoveMembers | PermMuteMembers | PermDeafenMembers
	// PermSupervisorGrant is given to supervisor roles and the room owner.
	PermSupervisorGrant = PermViewChannel | PermConnect | PermSpeak | PermMoveMembers | PermMuteMembers
	// PermVoiceAccess is toggled when a waiting room is locked or unlocked.
	PermVoiceAccess = PermConnect | PermSpeak
)

// OverwriteType tells whether an overwrite targets a role or a member.
type OverwriteType string

const (
	OverwriteRole   OverwriteType = "role"
	OverwriteMember OverwriteType = "member"
)

// PermissionOverwrite grants or denies permissions to a role or member on a channel.
type PermissionOverwrite struct {
	ID    string        `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow int64         `json:"allow"`
	Deny  int64         `json:"deny"`
}

// RoomSpawnTemplate configures the next room spawned for a queue. It is
// reused and updated across spawns.
type RoomSpawnTemplate struct {
	Owner           string                `json:"owner,omitempty"`
	SupervisorRoles []string              `json:"supervisor_roles,omitempty"`
	Permissions     []PermissionOverwrite `json:"permissions,omitempty"`
	MaxUsers        int                   `json:"max_users,omitempty"`
	ParentID        string                `json:"parent,omitempty"`
	NameTemplate    string                `json:"name_template,omitempty"`
	LockInitially   bool                  `json:"lock_initially,omitempty"`
	HideInitially   bool                  `json:"hide_initially,omitempty"`
}

// Overwrites merges the template grants with the bot identity, the supervisor
// roles and the owner. everyoneRoleID is the workspace's default role.
func (t RoomSpawnTemplate) Overwrites(botID, everyoneRoleID string) []PermissionOverwrite {
	out := make([]PermissionOverwrite, 0, len(t.Permissions)+len(t.SupervisorRoles)+3)
	out = append(out, t.Permissions...)

	var everyoneDeny int64
	if t.LockInitially {
		everyoneDeny |= PermConnect
	}
	if t.HideInitially {
		everyoneDeny |= PermViewChannel
	}
	if everyoneDeny != 0 {
		out = mergeOverwrite(out, PermissionOverwrite{ID: everyoneRoleID, Type: OverwriteRole, Deny: everyoneDeny})
	}
	for _, role := range t.SupervisorRoles {
		out = mergeOverwrite(out, PermissionOverwrite{ID: role, Type: OverwriteRole, Allow: PermSupervisorGrant})
	}
	if t.Owner != "" {
		out = mergeOverwrite(out, PermissionOverwrite{ID: t.Owner, Type: OverwriteMember, Allow: PermSupervisorGrant})
	}
	// The bot entry always wins over whatever the template carries.
	out = mergeOverwrite(out, PermissionOverwrite{ID: botID, Type: OverwriteMember, Allow: PermBotGrant})
	for i := range out {
		if out[i].ID == botID {
			out[i].Deny = 0
		}
	}
	return out
}

func mergeOverwrite(list []PermissionOverwrite, o PermissionOverwrite) []PermissionOverwrite {
	for i := range list {
		if list[i].ID == o.ID && list[i].Type == o.Type {
			list[i].Allow |= o.Allow
			list[i].Deny |= o.Deny
			list[i].Deny &^= o.Allow
			return list
		}
	}
	return append(list, o)
}

// RoomEventType enumerates the room log entries.
type RoomEventType string

const (
	EventCreateChannel    RoomEventType = "create_channel"
	EventDestroyChannel   RoomEventType = "destroy_channel"
	EventMoveMember       RoomEventType = "move_member"
	EventUserJoin         RoomEventType = "user_join"
	EventUserLeave        RoomEventType = "user_leave"
	EventPermissionChange RoomEventType = "permission_change"
	EventKickMember       RoomEventType = "kick_member"
	EventOther            RoomEventType = "other"
)

// RoomEvent is one entry of a room's append-only log. MemberID is the member
// the event is about; ActorID is who caused it, when known.
type RoomEvent struct {
	Type     RoomEventType `json:"type"`
	At       time.Time     `json:"at"`
	MemberID string        `json:"member_id,omitempty"`
	ActorID  string        `json:"actor_id,omitempty"`
	Note     string        `json:"note,omitempty"`
}

// Room is the record of a spawned voice channel. Its ID is the channel id.
type Room struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspace_id"`
	QueueID     string      `json:"queue_id,omitempty"`
	Active      bool        `json:"active"`
	Tampered    bool        `json:"tampered"`
	EndCertain  bool        `json:"end_certain"`
	Events      []RoomEvent `json:"events"`
}

// Append adds ev to the log. Inactive rooms reject further events.
func (r *Room) Append(ev RoomEvent) error {
	if !r.Active {
		return domain.ErrRoomInactive
	}
	r.Events = append(r.Events, ev)
	return nil
}

// Close appends the destroy event and deactivates the room. certain reports
// whether the end instant was observed rather than inferred.
func (r *Room) Close(at time.Time, actorID string, certain bool) error {
	if err := r.Append(RoomEvent{Type: EventDestroyChannel, At: at, ActorID: actorID}); err != nil {
		return err
	}
	r.Active = false
	r.EndCertain = certain
	return nil
}

// FirstJoinTimes returns, per participant, the earliest instant they entered
// the room by joining or by being moved in.
func (r *Room) FirstJoinTimes() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, ev := range r.Events {
		if ev.Type != EventUserJoin && ev.Type != EventMoveMember {
			continue
		}
		if ev.MemberID == "" {
			continue
		}
		if prev, ok := out[ev.MemberID]; !ok || ev.At.Before(prev) {
			out[ev.MemberID] = ev.At
		}
	}
	return out
}

// CreatedAt returns the instant of the create_channel event.
func (r *Room) CreatedAt() time.Time {
	for _, ev := range r.Events {
		if ev.Type == EventCreateChannel {
			return ev.At
		}
	}
	return time.Time{}
}
