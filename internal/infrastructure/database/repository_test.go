package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB serves jsonb documents as a single-column result.
type fakeDB struct {
	docs     [][]byte
	queryErr error
	execs    []execCall
	queries  []string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{docs: f.docs, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	if len(f.docs) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{doc: f.docs[0]}
}

type fakeRow struct {
	doc []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.doc
	return nil
}

type fakeRows struct {
	docs   [][]byte
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return []any{r.docs[r.pos]}, nil }
func (r *fakeRows) RawValues() [][]byte                          { return [][]byte{r.docs[r.pos]} }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.docs)
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*[]byte) = r.docs[r.pos]
	return nil
}

func TestDecodeWorkspace(t *testing.T) {
	ws, err := decodeWorkspace([]byte(`{"id":"guild","queues":[{"id":"q1","name":"help"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "guild", ws.ID)
	assert.NotNil(t, ws.Channels)
	require.Len(t, ws.Queues, 1)
	assert.NotNil(t, ws.Queues[0].Entries)
	assert.NotNil(t, ws.Queues[0].OpeningTimes)

	_, err = decodeWorkspace([]byte(`{"id":`))
	assert.Error(t, err)
}

func TestDecodeRoomAndSession(t *testing.T) {
	room, err := decodeRoom([]byte(`{"id":"r1","active":true}`))
	require.NoError(t, err)
	assert.NotNil(t, room.Events)

	s, err := decodeSession([]byte(`{"id":"s1","user":"coach","role":"coach"}`))
	require.NoError(t, err)
	assert.Equal(t, entities.RoleCoach, s.Role)
	assert.NotNil(t, s.Rooms)
}

func TestWorkspaceRepository(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{}
	repo := NewWorkspaceRepository(db)

	_, err := repo.FindByID(ctx, "guild")
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)

	span, err := entities.ParseQueueSpan("FRIDAY 10:00 - FRIDAY 12:00 (start: 2024-01-08)")
	require.NoError(t, err)
	joined := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	ws := &entities.Workspace{
		ID: "guild",
		Queues: []entities.Queue{{
			ID:           "q1",
			Name:         "help",
			Entries:      []entities.QueueEntry{entities.NewQueueEntry("alice", joined, "proofs")},
			OpeningTimes: []entities.QueueSpan{span},
			AutoLock:     true,
			OpenShift:    -5 * time.Minute,
		}},
		Channels: []entities.Channel{{ID: "waiting", Type: entities.ChannelTypeVoice, QueueID: "q1"}},
	}
	require.NoError(t, repo.Save(ctx, ws))
	require.Len(t, db.execs, 1)
	assert.Equal(t, "guild", db.execs[0].args[0])

	db.docs = [][]byte{[]byte(db.execs[0].args[1].(string))}
	got, err := repo.FindByID(ctx, "guild")
	require.NoError(t, err)
	q := got.QueueByName("HELP")
	require.NotNil(t, q)
	assert.True(t, q.AutoLock)
	assert.Equal(t, -5*time.Minute, q.OpenShift)
	require.Len(t, q.Entries, 1)
	assert.True(t, joined.Equal(q.Entries[0].JoinedAt))
	require.Len(t, q.OpeningTimes, 1)
	assert.True(t, span.Equal(q.OpeningTimes[0]))
	assert.Len(t, got.WaitingRooms("q1"), 1)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	db.queryErr = errors.New("connection refused")
	_, err = repo.FindAll(ctx)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{}
	repo := NewSessionRepository(db)

	_, err := repo.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	started := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s := &entities.Session{ID: "s1", Active: true, UserID: "coach", WorkspaceID: "guild", Role: entities.RoleCoach, StartedAt: started, Rooms: []string{"r1"}}
	require.NoError(t, repo.Save(ctx, s))
	args := db.execs[0].args
	assert.Equal(t, []any{"s1", "guild", "coach", true, started}, args[:5])

	db.docs = [][]byte{[]byte(args[5].(string)), []byte(`{"id":"s0","user":"coach","role":"supervisor"}`)}
	sessions, err := repo.FindByUser(ctx, "guild", "coach")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, []string{"r1"}, sessions[0].Rooms)
	assert.Equal(t, []string{}, sessions[1].Rooms)
}

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{}
	repo := NewRoomRepository(db)

	_, err := repo.FindByID(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	room := &entities.Room{ID: "r1", WorkspaceID: "guild", Active: true}
	require.NoError(t, room.Append(entities.RoomEvent{Type: entities.EventUserJoin, At: time.Now(), MemberID: "alice"}))
	require.NoError(t, repo.Save(ctx, room))
	assert.Equal(t, []any{"r1", "guild", true}, db.execs[0].args[:3])

	db.docs = [][]byte{[]byte(db.execs[0].args[3].(string))}
	active, err := repo.FindActiveByWorkspace(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, entities.EventUserJoin, active[0].Events[0].Type)
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, domain.ErrRoomNotFound), domain.ErrRoomNotFound)
	other := errors.New("timeout")
	assert.Equal(t, other, notFound(other, domain.ErrRoomNotFound))
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	r, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	for _, table := range []string{"workspaces", "rooms", "sessions"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
