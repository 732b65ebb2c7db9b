package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// spawnRoom spawns a room outside any queue and persists the workspace.
func spawnRoom(t *testing.T, f *fixture, tmpl entities.RoomSpawnTemplate) *entities.Room {
	t.Helper()
	ctx := context.Background()
	ws := f.workspaces.get(wsID)
	room, err := f.spawner.Spawn(ctx, ws, nil, carter, tmpl)
	require.NoError(t, err)
	require.NoError(t, f.workspaces.Save(ctx, ws))
	return room
}

func TestRoomSpawner_Spawn(t *testing.T) {
	f := newFixture(t)
	room := spawnRoom(t, f, entities.RoomSpawnTemplate{LockInitially: true, MaxUsers: 2})

	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, wsID, room.WorkspaceID)
	assert.True(t, room.Active)
	assert.False(t, room.EndCertain)
	require.Len(t, room.Events, 1)
	assert.Equal(t, entities.EventCreateChannel, room.Events[0].Type)
	assert.Equal(t, monday, room.CreatedAt())

	spec := f.platform.created[0]
	assert.Equal(t, "🎧 Coach Carter", spec.Name)
	assert.Equal(t, 2, spec.MaxUsers)
	assert.Contains(t, spec.Overwrites, entities.PermissionOverwrite{ID: wsID, Type: entities.OverwriteRole, Deny: entities.PermConnect})

	ch, ok := f.workspaces.get(wsID).Channel(room.ID)
	require.True(t, ok)
	assert.True(t, ch.Temporary)
	assert.NotNil(t, f.rooms.get(room.ID))
}

func TestRoomSpawner_BrokenNameTemplateFallsBack(t *testing.T) {
	f := newFixture(t)
	spawnRoom(t, f, entities.RoomSpawnTemplate{NameTemplate: "{{.owner"})
	assert.Equal(t, "🎧 Coach Carter", f.platform.created[0].Name)
	assert.Empty(t, f.platform.renamed)
}

func TestRoomSpawner_Failures(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.platform.failOn("create")
	ws := f.workspaces.get(wsID)
	_, err := f.spawner.Spawn(ctx, ws, nil, carter, entities.RoomSpawnTemplate{})
	var roomErr *domain.RoomCreationError
	assert.ErrorAs(t, err, &roomErr)
	assert.Empty(t, ws.Channels)
	assert.Empty(t, f.rooms.rooms)

	f = newFixture(t)
	f.rooms.saveErr = errors.New("insert failed")
	ws = f.workspaces.get(wsID)
	_, err = f.spawner.Spawn(ctx, ws, nil, carter, entities.RoomSpawnTemplate{})
	require.Error(t, err)
	assert.Equal(t, []string{"room-1"}, f.platform.deleted)
	assert.Empty(t, ws.Channels)
}

func TestRoomService_LogAndAutoClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := spawnRoom(t, f, entities.RoomSpawnTemplate{})

	f.clock.Advance(time.Minute)
	require.NoError(t, f.roomSvc.RecordJoin(ctx, room.ID, "alice"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.roomSvc.RecordMove(ctx, room.ID, "bob", "bot"))

	closed, err := f.roomSvc.RecordLeave(ctx, room.ID, "alice", 1)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.True(t, f.rooms.get(room.ID).Active)

	closed, err = f.roomSvc.RecordLeave(ctx, room.ID, "bob", 0)
	require.NoError(t, err)
	assert.True(t, closed)

	stored := f.rooms.get(room.ID)
	assert.False(t, stored.Active)
	assert.True(t, stored.EndCertain)
	types := make([]entities.RoomEventType, 0, len(stored.Events))
	for _, ev := range stored.Events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []entities.RoomEventType{
		entities.EventCreateChannel,
		entities.EventUserJoin,
		entities.EventMoveMember,
		entities.EventUserLeave,
		entities.EventUserLeave,
		entities.EventDestroyChannel,
	}, types)

	assert.Equal(t, []string{room.ID}, f.platform.deleted)
	_, tracked := f.workspaces.get(wsID).Channel(room.ID)
	assert.False(t, tracked)
	assert.Equal(t, []output.QueueEventType{output.EventRoomClosed}, f.publisher.types())

	assert.ErrorIs(t, f.roomSvc.RecordJoin(ctx, room.ID, "late"), domain.ErrRoomInactive)
	assert.ErrorIs(t, f.roomSvc.Close(ctx, room.ID, "admin"), domain.ErrRoomInactive)
}

func TestRoomService_PermissionChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := spawnRoom(t, f, entities.RoomSpawnTemplate{})

	require.NoError(t, f.roomSvc.RecordPermissionChange(ctx, room.ID, "bot"))
	assert.False(t, f.rooms.get(room.ID).Tampered)

	require.NoError(t, f.roomSvc.RecordPermissionChange(ctx, room.ID, "mallory"))
	assert.True(t, f.rooms.get(room.ID).Tampered)
}

func TestRoomService_CloseDeleteFailureIsTolerated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := spawnRoom(t, f, entities.RoomSpawnTemplate{})
	f.platform.failOn("delete")

	require.NoError(t, f.roomSvc.Close(ctx, room.ID, "admin"))
	assert.False(t, f.rooms.get(room.ID).Active)
}

func TestRoomService_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := spawnRoom(t, f, entities.RoomSpawnTemplate{})
	gone := spawnRoom(t, f, entities.RoomSpawnTemplate{})
	require.NoError(t, f.roomSvc.Close(ctx, gone.ID, ""))

	ok, err := f.roomSvc.IsRoom(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.roomSvc.IsRoom(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.roomSvc.IsRoom(ctx, "random-channel")
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := f.roomSvc.ActiveRooms(ctx, wsID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	assert.ErrorIs(t, f.roomSvc.RecordJoin(ctx, "random-channel", "alice"), domain.ErrRoomNotFound)
}
