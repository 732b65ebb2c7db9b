package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/input"
	"coachbot/internal/ports/output"
)

var _ input.QueueUseCase = (*QueueService)(nil)

type QueueService struct {
	store      *workspaceStore
	access     *accessSync
	platform   output.Platform
	translator output.T
	publisher  output.EventPublisher
	timers     *DisconnectTimers
	env        Env
}

func NewQueueService(
	workspaces output.WorkspaceRepository,
	platform output.Platform,
	translator output.T,
	publisher output.EventPublisher,
	timers *DisconnectTimers,
	locks *KeyedMutex,
	env Env,
) *QueueService {
	return &QueueService{
		store:      &workspaceStore{repo: workspaces, locks: locks, env: env},
		access:     &accessSync{platform: platform, translator: translator, publisher: publisher, env: env},
		platform:   platform,
		translator: translator,
		publisher:  publisher,
		timers:     timers,
		env:        env,
	}
}

// EnsureWorkspace creates the workspace document on first contact.
func (s *QueueService) EnsureWorkspace(ctx context.Context, id, name string) (*entities.Workspace, error) {
	unlock := s.store.locks.Lock(workspaceKey(id))
	defer unlock()
	ws, err := s.store.repo.FindByID(ctx, id)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		return nil, err
	}
	ws = &entities.Workspace{ID: id, Name: name, UpdatedAt: s.env.now()}
	if err := s.store.repo.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

func (s *QueueService) CreateQueue(ctx context.Context, workspaceID, name, description, textChannelID string) (*entities.Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ParseError{Input: name, Reason: "queue name is empty"}
	}
	var created entities.Queue
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		if ws.QueueByName(name) != nil {
			return domain.ErrQueueExists
		}
		created = entities.Queue{
			ID:            uuid.NewString(),
			Name:          name,
			Description:   description,
			TextChannelID: textChannelID,
			Entries:       []entities.QueueEntry{},
			OpeningTimes:  []entities.QueueSpan{},
		}
		ws.Queues = append(ws.Queues, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteQueue removes the queue and disposes its pending disconnect timers.
func (s *QueueService) DeleteQueue(ctx context.Context, workspaceID, name string) error {
	var queueID string
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := ws.QueueByName(name)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		queueID = q.ID
		ws.RemoveQueue(q.ID)
		return nil
	})
	if err != nil {
		return err
	}
	s.timers.CancelQueue(queueID)
	return nil
}

// Queue loads a queue together with its workspace.
func (s *QueueService) Queue(ctx context.Context, workspaceID, name string) (*entities.Workspace, *entities.Queue, error) {
	ws, err := s.store.load(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	q := ws.QueueByName(name)
	if q == nil {
		return nil, nil, domain.ErrQueueNotFound
	}
	return ws, q, nil
}

func (s *QueueService) Join(ctx context.Context, workspaceID, queueName, memberID, intent string) (*entities.JoinResult, error) {
	now := s.env.now()
	var res entities.JoinResult
	var q entities.Queue
	ws, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		found := ws.QueueByName(queueName)
		if found == nil {
			return domain.ErrQueueNotFound
		}
		entry, err := found.Join(entities.NewQueueEntry(memberID, now, intent))
		if err != nil {
			return err
		}
		res.Entry = entry
		res.Position = found.Position(now, memberID)
		q = *found
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := s.env.logger(ctx, "queue", "join", "workspace", workspaceID, "queue", q.Name, "member", memberID)
	if ws.WaitingRoleID != "" {
		if err := s.platform.AddRole(ctx, workspaceID, memberID, ws.WaitingRoleID); err != nil {
			logger.Warn("grant waiting role failed", "error", err)
		}
	}
	publish(ctx, s.publisher, logger, output.QueueEvent{Type: output.EventEntryJoined, WorkspaceID: workspaceID, QueueID: q.ID, MemberID: memberID, At: now})
	res.Message = s.JoinMessage(&q, &res.Entry)
	return &res, nil
}

func (s *QueueService) Leave(ctx context.Context, workspaceID, queueName, memberID string) (*entities.LeaveResult, error) {
	return s.leave(ctx, workspaceID, func(ws *entities.Workspace) *entities.Queue { return ws.QueueByName(queueName) }, memberID)
}

func (s *QueueService) leaveByID(ctx context.Context, workspaceID, queueID, memberID string) (*entities.LeaveResult, error) {
	return s.leave(ctx, workspaceID, func(ws *entities.Workspace) *entities.Queue { return ws.QueueByID(queueID) }, memberID)
}

func (s *QueueService) leave(ctx context.Context, workspaceID string, find func(*entities.Workspace) *entities.Queue, memberID string) (*entities.LeaveResult, error) {
	now := s.env.now()
	var res entities.LeaveResult
	var before entities.Queue
	ws, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := find(ws)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		before = *q
		before.Entries = append([]entities.QueueEntry(nil), q.Entries...)
		entry, err := q.Leave(memberID)
		if err != nil {
			return err
		}
		res.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.timers.Cancel(before.ID, memberID)
	logger := s.env.logger(ctx, "queue", "leave", "workspace", workspaceID, "queue", before.Name, "member", memberID)
	s.revokeWaitingRole(ctx, ws, memberID)
	publish(ctx, s.publisher, logger, output.QueueEvent{Type: output.EventEntryLeft, WorkspaceID: workspaceID, QueueID: before.ID, MemberID: memberID, At: now})
	// Rendered against the queue as it was, so pos and time_spent describe the leaving entry.
	res.Message = s.LeaveMessage(&before, &res.Entry)
	return &res, nil
}

// revokeWaitingRole drops the waiting role when memberID no longer waits anywhere.
func (s *QueueService) revokeWaitingRole(ctx context.Context, ws *entities.Workspace, memberID string) {
	if ws.WaitingRoleID == "" || len(ws.QueuesOf(memberID)) > 0 {
		return
	}
	if err := s.platform.RemoveRole(ctx, ws.ID, memberID, ws.WaitingRoleID); err != nil {
		s.env.logger(ctx, "queue", "revoke_role", "workspace", ws.ID, "member", memberID).
			Warn("revoke waiting role failed", "error", err)
	}
}

// SetImportance reweights a waiting member's entry and returns its new
// 0-based rank.
func (s *QueueService) SetImportance(ctx context.Context, workspaceID, queueName, memberID string, importance float64) (int, error) {
	if importance < 0 {
		return -1, &domain.ParseError{Input: fmt.Sprint(importance), Reason: "importance must not be negative"}
	}
	now := s.env.now()
	pos := -1
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := ws.QueueByName(queueName)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		if _, err := q.SetImportance(memberID, importance); err != nil {
			return err
		}
		pos = q.Position(now, memberID)
		return nil
	})
	if err != nil {
		return -1, err
	}
	s.env.logger(ctx, "queue", "set_importance", "workspace", workspaceID, "queue", queueName, "member", memberID).
		Info("entry reweighted", "importance", importance, "position", pos)
	return pos, nil
}

// Position returns the 0-based rank of memberID, or -1.
func (s *QueueService) Position(ctx context.Context, workspaceID, queueName, memberID string) (int, error) {
	_, q, err := s.Queue(ctx, workspaceID, queueName)
	if err != nil {
		return -1, err
	}
	return q.Position(s.env.now(), memberID), nil
}

// List returns the ranked entries, at most limit when limit > 0.
func (s *QueueService) List(ctx context.Context, workspaceID, queueName string, limit int) (*entities.Queue, []entities.QueueEntry, error) {
	_, q, err := s.Queue(ctx, workspaceID, queueName)
	if err != nil {
		return nil, nil, err
	}
	return q, q.SortedEntries(s.env.now(), limit), nil
}

// Lock and Unlock report whether the state changed. A change cascades into the
// waiting-room permission sync.
func (s *QueueService) Lock(ctx context.Context, workspaceID, queueName string) (bool, error) {
	return s.setLocked(ctx, workspaceID, queueName, func(q *entities.Queue) { q.Close() })
}

func (s *QueueService) Unlock(ctx context.Context, workspaceID, queueName string) (bool, error) {
	return s.setLocked(ctx, workspaceID, queueName, func(q *entities.Queue) { q.Open() })
}

func (s *QueueService) ToggleLock(ctx context.Context, workspaceID, queueName string) (bool, error) {
	return s.setLocked(ctx, workspaceID, queueName, func(q *entities.Queue) { q.ToggleLock() })
}

func (s *QueueService) setLocked(ctx context.Context, workspaceID, queueName string, flip func(*entities.Queue)) (bool, error) {
	changed := false
	var q entities.Queue
	ws, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		found := ws.QueueByName(queueName)
		if found == nil {
			return domain.ErrQueueNotFound
		}
		was := found.Locked
		flip(found)
		changed = was != found.Locked
		q = *found
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.access.apply(ctx, ws, &q)
	}
	return changed, nil
}

// SyncAccess re-applies the current lock state to the waiting rooms.
func (s *QueueService) SyncAccess(ctx context.Context, workspaceID, queueName string) error {
	ws, q, err := s.Queue(ctx, workspaceID, queueName)
	if err != nil {
		return err
	}
	s.access.apply(ctx, ws, q)
	return nil
}

// UpdateQueue applies mutate to the named queue and saves the workspace.
func (s *QueueService) UpdateQueue(ctx context.Context, workspaceID, queueName string, mutate func(*entities.Queue) error) (*entities.Queue, error) {
	var out entities.Queue
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := ws.QueueByName(queueName)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		if err := mutate(q); err != nil {
			return err
		}
		out = *q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *QueueService) SetAutoLock(ctx context.Context, workspaceID, queueName string, enabled bool) (*entities.Queue, error) {
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.AutoLock = enabled
		return nil
	})
}

// AddSpan parses spec and appends the span to the queue's opening times.
func (s *QueueService) AddSpan(ctx context.Context, workspaceID, queueName, spec string) (entities.QueueSpan, error) {
	span, err := entities.ParseQueueSpan(spec)
	if err != nil {
		return entities.QueueSpan{}, err
	}
	q, err := s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.AddSpan(span)
		return nil
	})
	if err != nil {
		return entities.QueueSpan{}, err
	}
	return q.OpeningTimes[len(q.OpeningTimes)-1], nil
}

func (s *QueueService) RemoveSpan(ctx context.Context, workspaceID, queueName string, index int) (entities.QueueSpan, error) {
	var removed entities.QueueSpan
	_, err := s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		span, err := q.RemoveSpan(index)
		removed = span
		return err
	})
	return removed, err
}

// SetShifts changes the default shifts applied to spans added afterwards.
func (s *QueueService) SetShifts(ctx context.Context, workspaceID, queueName string, openShift, closeShift time.Duration) (*entities.Queue, error) {
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.OpenShift = openShift
		q.CloseShift = closeShift
		return nil
	})
}

func (s *QueueService) SetMessages(ctx context.Context, workspaceID, queueName, join, leave string) (*entities.Queue, error) {
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.Messages = entities.QueueMessages{Join: join, Leave: leave}
		return nil
	})
}

// SetLimit caps the queue (0 = unlimited) and sets the average service time
// used for ETAs (0 = unknown).
func (s *QueueService) SetLimit(ctx context.Context, workspaceID, queueName string, limit int, avgService time.Duration) (*entities.Queue, error) {
	if limit < 0 {
		return nil, &domain.ParseError{Input: fmt.Sprint(limit), Reason: "limit must not be negative"}
	}
	if avgService < 0 {
		return nil, &domain.ParseError{Input: avgService.String(), Reason: "average service time must not be negative"}
	}
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.Limit = limit
		q.AvgService = avgService
		return nil
	})
}

// SetDisconnectTimeout sets how long a member may stay out of the waiting
// rooms before being dropped (0 = never).
func (s *QueueService) SetDisconnectTimeout(ctx context.Context, workspaceID, queueName string, timeout time.Duration) (*entities.Queue, error) {
	if timeout < 0 {
		return nil, &domain.ParseError{Input: timeout.String(), Reason: "timeout must not be negative"}
	}
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		q.DisconnectTimeout = timeout
		return nil
	})
}

// SetRoomTemplate applies edit to the queue's room spawn template, creating it if needed.
func (s *QueueService) SetRoomTemplate(ctx context.Context, workspaceID, queueName string, edit func(*entities.RoomSpawnTemplate)) (*entities.Queue, error) {
	return s.UpdateQueue(ctx, workspaceID, queueName, func(q *entities.Queue) error {
		if q.RoomSpawner == nil {
			q.RoomSpawner = &entities.RoomSpawnTemplate{}
		}
		edit(q.RoomSpawner)
		return nil
	})
}

// LinkWaitingRoom registers channelID as a waiting room of the queue.
func (s *QueueService) LinkWaitingRoom(ctx context.Context, workspaceID, queueName, channelID string) error {
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		q := ws.QueueByName(queueName)
		if q == nil {
			return domain.ErrQueueNotFound
		}
		ws.UpsertChannel(entities.Channel{ID: channelID, Type: entities.ChannelTypeVoice, QueueID: q.ID})
		return nil
	})
	return err
}

// WaitingRooms resolves the voice channels linked to the queue.
func (s *QueueService) WaitingRooms(ctx context.Context, workspaceID, queueName string) ([]entities.Channel, error) {
	ws, q, err := s.Queue(ctx, workspaceID, queueName)
	if err != nil {
		return nil, err
	}
	return ws.WaitingRooms(q.ID), nil
}

func (s *QueueService) SetWaitingRole(ctx context.Context, workspaceID, roleID string) error {
	_, err := s.store.update(ctx, workspaceID, func(ws *entities.Workspace) error {
		ws.WaitingRoleID = roleID
		return nil
	})
	return err
}

// FixupWaitingRoles makes the waiting role match queue membership for every
// member. Individual role edits are best-effort.
func (s *QueueService) FixupWaitingRoles(ctx context.Context, workspaceID string) (added, removed int, err error) {
	ws, err := s.store.load(ctx, workspaceID)
	if err != nil {
		return 0, 0, err
	}
	if ws.WaitingRoleID == "" {
		return 0, 0, nil
	}
	members, err := s.platform.FetchMembers(ctx, workspaceID)
	if err != nil {
		return 0, 0, &domain.PlatformError{Op: "fetch members", Err: err}
	}
	logger := s.env.logger(ctx, "queue", "fixup_roles", "workspace", workspaceID)
	for _, m := range members {
		if m.Bot {
			continue
		}
		has := containsString(m.Roles, ws.WaitingRoleID)
		should := len(ws.QueuesOf(m.ID)) > 0
		switch {
		case should && !has:
			if err := s.platform.AddRole(ctx, workspaceID, m.ID, ws.WaitingRoleID); err != nil {
				logger.Warn("grant waiting role failed", "member", m.ID, "error", err)
				continue
			}
			added++
		case !should && has:
			if err := s.platform.RemoveRole(ctx, workspaceID, m.ID, ws.WaitingRoleID); err != nil {
				logger.Warn("revoke waiting role failed", "member", m.ID, "error", err)
				continue
			}
			removed++
		}
	}
	return added, removed, nil
}

// MemberLeftWaitingRoom arms the disconnect timer when the channel is a
// waiting room of a queue the member waits in.
func (s *QueueService) MemberLeftWaitingRoom(ctx context.Context, workspaceID, channelID, memberID string) (bool, error) {
	ws, err := s.store.load(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	ch, ok := ws.Channel(channelID)
	if !ok || ch.QueueID == "" {
		return false, nil
	}
	q := ws.QueueByID(ch.QueueID)
	if q == nil || q.DisconnectTimeout <= 0 || !q.Contains(memberID) {
		return false, nil
	}
	queueID := q.ID
	logger := s.env.logger(ctx, "queue", "disconnect_timeout", "workspace", workspaceID, "queue", q.Name, "member", memberID)
	s.timers.Schedule(queueID, memberID, q.DisconnectTimeout, func() {
		bg := context.WithoutCancel(ctx)
		if _, err := s.leaveByID(bg, workspaceID, queueID, memberID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("drop after disconnect failed", "error", err)
			return
		}
		logger.Info("member dropped after disconnect timeout")
	})
	return true, nil
}

// MemberJoinedWaitingRoom cancels a pending disconnect timer.
func (s *QueueService) MemberJoinedWaitingRoom(ctx context.Context, workspaceID, channelID, memberID string) (bool, error) {
	ws, err := s.store.load(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	ch, ok := ws.Channel(channelID)
	if !ok || ch.QueueID == "" {
		return false, nil
	}
	return s.timers.Cancel(ch.QueueID, memberID), nil
}

// Stay cancels every pending disconnect timer of memberID.
func (s *QueueService) Stay(memberID string) int {
	return s.timers.CancelMember(memberID)
}

// JoinMessage renders the queue's join template, falling back to the default text.
func (s *QueueService) JoinMessage(q *entities.Queue, entry *entities.QueueEntry) string {
	return s.render(q.Messages.Join, "queue.join.default", q.MessageData(s.env.now(), entry))
}

func (s *QueueService) LeaveMessage(q *entities.Queue, entry *entities.QueueEntry) string {
	return s.render(q.Messages.Leave, "queue.leave.default", q.MessageData(s.env.now(), entry))
}

func (s *QueueService) render(template, fallbackKey string, data map[string]any) string {
	if strings.TrimSpace(template) != "" {
		msg, err := s.translator.Render(s.env.Locale, template, data)
		if err == nil {
			return msg
		}
		s.env.logger(context.Background(), "queue", "render").Warn("queue template failed", "error", err)
	}
	return s.translator.T(s.env.Locale, fallbackKey, data)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
