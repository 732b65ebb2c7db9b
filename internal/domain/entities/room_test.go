package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbot/internal/domain"
)

func TestRoom_FirstJoinTimes(t *testing.T) {
	r := &Room{ID: "room", Active: true}
	require.NoError(t, r.Append(RoomEvent{Type: EventCreateChannel, At: t0, MemberID: "coach"}))
	require.NoError(t, r.Append(RoomEvent{Type: EventMoveMember, At: t0.Add(time.Minute), MemberID: "coach", ActorID: "bot"}))
	require.NoError(t, r.Append(RoomEvent{Type: EventMoveMember, At: t0.Add(2 * time.Minute), MemberID: "alice", ActorID: "bot"}))
	require.NoError(t, r.Append(RoomEvent{Type: EventUserLeave, At: t0.Add(3 * time.Minute), MemberID: "alice"}))
	require.NoError(t, r.Append(RoomEvent{Type: EventUserJoin, At: t0.Add(4 * time.Minute), MemberID: "alice"}))
	require.NoError(t, r.Append(RoomEvent{Type: EventUserJoin, At: t0.Add(5 * time.Minute), MemberID: "bob"}))

	assert.Equal(t, map[string]time.Time{
		"coach": t0.Add(time.Minute),
		"alice": t0.Add(2 * time.Minute),
		"bob":   t0.Add(5 * time.Minute),
	}, r.FirstJoinTimes())
	assert.Equal(t, t0, r.CreatedAt())
}

func TestRoom_CloseOnce(t *testing.T) {
	r := &Room{ID: "room", Active: true}
	require.NoError(t, r.Close(t0, "admin", true))
	assert.False(t, r.Active)
	assert.True(t, r.EndCertain)
	require.Len(t, r.Events, 1)
	assert.Equal(t, EventDestroyChannel, r.Events[0].Type)

	assert.ErrorIs(t, r.Append(RoomEvent{Type: EventUserJoin, At: t0, MemberID: "late"}), domain.ErrRoomInactive)
	assert.ErrorIs(t, r.Close(t0, "", true), domain.ErrRoomInactive)
	assert.Len(t, r.Events, 1)
}

func TestRoomSpawnTemplate_Overwrites(t *testing.T) {
	tmpl := RoomSpawnTemplate{
		Owner:           "owner",
		SupervisorRoles: []string{"mods"},
		Permissions: []PermissionOverwrite{
			{ID: "bot", Type: OverwriteMember, Deny: PermConnect},
			{ID: "students", Type: OverwriteRole, Allow: PermViewChannel},
		},
		LockInitially: true,
		HideInitially: true,
	}
	out := tmpl.Overwrites("bot", "guild")

	byID := map[string]PermissionOverwrite{}
	for _, o := range out {
		byID[o.ID] = o
	}
	assert.Equal(t, PermissionOverwrite{ID: "bot", Type: OverwriteMember, Allow: PermBotGrant}, byID["bot"])
	assert.Equal(t, PermViewChannel, byID["students"].Allow)
	assert.Equal(t, PermConnect|PermViewChannel, byID["guild"].Deny)
	assert.Equal(t, OverwriteRole, byID["guild"].Type)
	assert.Equal(t, PermSupervisorGrant, byID["mods"].Allow)
	assert.Equal(t, PermSupervisorGrant, byID["owner"].Allow)
	assert.Equal(t, OverwriteMember, byID["owner"].Type)
	assert.Len(t, out, 5)

	open := RoomSpawnTemplate{}.Overwrites("bot", "guild")
	require.Len(t, open, 1)
	assert.Equal(t, "bot", open[0].ID)
}
