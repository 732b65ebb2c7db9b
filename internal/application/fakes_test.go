package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/infrastructure/i18n"
	"coachbot/internal/ports/output"
)

func clone[T any](t *testing.T, v *T) *T {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}

type memWorkspaces struct {
	t       *testing.T
	mu      sync.Mutex
	docs    map[string]*entities.Workspace
	saves   int
	saveErr error
	findErr map[string]error
}

func newMemWorkspaces(t *testing.T, seed ...entities.Workspace) *memWorkspaces {
	m := &memWorkspaces{t: t, docs: map[string]*entities.Workspace{}, findErr: map[string]error{}}
	for i := range seed {
		m.docs[seed[i].ID] = clone(t, &seed[i])
	}
	return m
}

func (m *memWorkspaces) FindByID(_ context.Context, id string) (*entities.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.findErr[id]; err != nil {
		return nil, err
	}
	ws, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return clone(m.t, ws), nil
}

func (m *memWorkspaces) FindAll(_ context.Context) ([]entities.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]entities.Workspace, 0, len(ids))
	for _, id := range ids {
		out = append(out, *clone(m.t, m.docs[id]))
	}
	return out, nil
}

func (m *memWorkspaces) Save(_ context.Context, ws *entities.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.docs[ws.ID] = clone(m.t, ws)
	return nil
}

func (m *memWorkspaces) get(id string) *entities.Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.t, m.docs[id])
}

func (m *memWorkspaces) queue(wsID, name string) *entities.Queue {
	return m.get(wsID).QueueByName(name)
}

type memRooms struct {
	t       *testing.T
	mu      sync.Mutex
	rooms   map[string]*entities.Room
	saveErr error
}

func newMemRooms(t *testing.T) *memRooms {
	return &memRooms{t: t, rooms: map[string]*entities.Room{}}
}

func (m *memRooms) FindByID(_ context.Context, id string) (*entities.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return clone(m.t, r), nil
}

func (m *memRooms) FindActiveByWorkspace(_ context.Context, workspaceID string) ([]entities.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Room
	for _, r := range m.rooms {
		if r.Active && r.WorkspaceID == workspaceID {
			out = append(out, *clone(m.t, r))
		}
	}
	return out, nil
}

func (m *memRooms) Save(_ context.Context, room *entities.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rooms[room.ID] = clone(m.t, room)
	return nil
}

func (m *memRooms) get(id string) *entities.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil
	}
	return clone(m.t, r)
}

type memSessions struct {
	t        *testing.T
	mu       sync.Mutex
	sessions map[string]*entities.Session
}

func newMemSessions(t *testing.T) *memSessions {
	return &memSessions{t: t, sessions: map[string]*entities.Session{}}
}

func (m *memSessions) FindByID(_ context.Context, id string) (*entities.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(m.t, s), nil
}

func (m *memSessions) FindActiveByWorkspace(_ context.Context, workspaceID string) ([]entities.Session, error) {
	return m.filter(func(s *entities.Session) bool { return s.Active && s.WorkspaceID == workspaceID }), nil
}

func (m *memSessions) FindByUser(_ context.Context, workspaceID, userID string) ([]entities.Session, error) {
	return m.filter(func(s *entities.Session) bool { return s.WorkspaceID == workspaceID && s.UserID == userID }), nil
}

func (m *memSessions) filter(match func(*entities.Session) bool) []entities.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Session
	for _, s := range m.sessions {
		if match(s) {
			out = append(out, *clone(m.t, s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (m *memSessions) Save(_ context.Context, s *entities.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = clone(m.t, s)
	return nil
}

type permissionCall struct {
	ChannelID  string
	Overwrites []entities.PermissionOverwrite
}

type roleCall struct {
	MemberID string
	RoleID   string
}

// fakePlatform records every call. fail maps an operation name to the error
// it returns.
type fakePlatform struct {
	mu          sync.Mutex
	fail        map[string]error
	nextChannel int

	created      []output.VoiceChannelSpec
	renamed      map[string]string
	deleted      []string
	permissions  []permissionCall
	moves        map[string]string
	messages     map[string][]string
	dms          map[string][]string
	rolesAdded   []roleCall
	rolesRemoved []roleCall
	members      []output.Member
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		fail:     map[string]error{},
		renamed:  map[string]string{},
		moves:    map[string]string{},
		messages: map[string][]string{},
		dms:      map[string][]string{},
	}
}

func (p *fakePlatform) failOn(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[op] = fmt.Errorf("%s refused", op)
}

func (p *fakePlatform) err(op string) error {
	return p.fail[op]
}

func (p *fakePlatform) BotID() string { return "bot" }

func (p *fakePlatform) CreateVoiceChannel(_ context.Context, _ string, spec output.VoiceChannelSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("create"); err != nil {
		return "", err
	}
	p.nextChannel++
	p.created = append(p.created, spec)
	return fmt.Sprintf("room-%d", p.nextChannel), nil
}

func (p *fakePlatform) RenameChannel(_ context.Context, channelID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("rename"); err != nil {
		return err
	}
	p.renamed[channelID] = name
	return nil
}

func (p *fakePlatform) DeleteChannel(_ context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("delete"); err != nil {
		return err
	}
	p.deleted = append(p.deleted, channelID)
	return nil
}

func (p *fakePlatform) SetChannelPermissions(_ context.Context, channelID string, overwrites []entities.PermissionOverwrite) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("permissions:" + channelID); err != nil {
		return err
	}
	p.permissions = append(p.permissions, permissionCall{ChannelID: channelID, Overwrites: overwrites})
	return nil
}

func (p *fakePlatform) MoveMember(_ context.Context, _, memberID, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("move:" + memberID); err != nil {
		return err
	}
	p.moves[memberID] = channelID
	return nil
}

func (p *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("message"); err != nil {
		return err
	}
	p.messages[channelID] = append(p.messages[channelID], content)
	return nil
}

func (p *fakePlatform) SendDirectMessage(_ context.Context, userID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("dm"); err != nil {
		return err
	}
	p.dms[userID] = append(p.dms[userID], content)
	return nil
}

func (p *fakePlatform) FetchRoles(context.Context, string) ([]output.Role, error) {
	return nil, nil
}

func (p *fakePlatform) FetchMembers(context.Context, string) ([]output.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("members"); err != nil {
		return nil, err
	}
	return p.members, nil
}

func (p *fakePlatform) AddRole(_ context.Context, _, memberID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("role:" + memberID); err != nil {
		return err
	}
	p.rolesAdded = append(p.rolesAdded, roleCall{MemberID: memberID, RoleID: roleID})
	return nil
}

func (p *fakePlatform) RemoveRole(_ context.Context, _, memberID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.err("role:" + memberID); err != nil {
		return err
	}
	p.rolesRemoved = append(p.rolesRemoved, roleCall{MemberID: memberID, RoleID: roleID})
	return nil
}

func (p *fakePlatform) permissionsFor(channelID string) []permissionCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []permissionCall
	for _, c := range p.permissions {
		if c.ChannelID == channelID {
			out = append(out, c)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []output.QueueEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev output.QueueEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []output.QueueEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]output.QueueEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires every service on top of the in-memory fakes.
type fixture struct {
	clock      *fakeClock
	workspaces *memWorkspaces
	rooms      *memRooms
	sessions   *memSessions
	platform   *fakePlatform
	publisher  *recordingPublisher
	timers     *DisconnectTimers
	env        Env

	queues  *QueueService
	roomSvc *RoomService
	spawner *RoomSpawner
	sessSvc *SessionService
	coach   *CoachService
	guard   *SchedulerGuard
}

// Monday 2024-03-04 09:00 UTC.
var monday = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

const wsID = "guild"

func newFixture(t *testing.T, seed ...entities.Workspace) *fixture {
	t.Helper()
	if len(seed) == 0 {
		seed = []entities.Workspace{{ID: wsID}}
	}
	f := &fixture{
		clock:      &fakeClock{now: monday},
		workspaces: newMemWorkspaces(t, seed...),
		rooms:      newMemRooms(t),
		sessions:   newMemSessions(t),
		platform:   newFakePlatform(),
		publisher:  &recordingPublisher{},
		timers:     NewDisconnectTimers(),
	}
	t.Cleanup(f.timers.Stop)
	f.env = Env{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      f.clock.Now,
		Location: time.UTC,
		Locale:   "en",
	}
	translator := i18n.NewTranslator("en")
	locks := NewKeyedMutex()

	f.queues = NewQueueService(f.workspaces, f.platform, translator, f.publisher, f.timers, locks, f.env)
	f.roomSvc = NewRoomService(f.rooms, f.workspaces, f.platform, f.publisher, locks, f.env)
	f.spawner = NewRoomSpawner(f.platform, f.rooms, translator, f.env)
	f.sessSvc = NewSessionService(f.sessions, f.rooms, f.workspaces, locks, f.env)
	f.coach = NewCoachService(f.workspaces, f.spawner, f.roomSvc, f.sessSvc, f.platform, translator, f.publisher, f.timers, locks, f.env)
	f.guard = NewSchedulerGuard(f.workspaces, f.platform, translator, f.publisher, locks, f.env)
	return f
}

func (f *fixture) createQueue(t *testing.T, name string) *entities.Queue {
	t.Helper()
	q, err := f.queues.CreateQueue(context.Background(), wsID, name, "", "")
	require.NoError(t, err)
	return q
}

func (f *fixture) join(t *testing.T, queue, member string) {
	t.Helper()
	_, err := f.queues.Join(context.Background(), wsID, queue, member, "")
	require.NoError(t, err)
}
