package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/input"
	"coachbot/internal/ports/output"
)

var _ input.SessionUseCase = (*SessionService)(nil)

type SessionService struct {
	sessions   output.SessionRepository
	rooms      output.RoomRepository
	workspaces output.WorkspaceRepository
	locks      *KeyedMutex
	env        Env
}

func NewSessionService(
	sessions output.SessionRepository,
	rooms output.RoomRepository,
	workspaces output.WorkspaceRepository,
	locks *KeyedMutex,
	env Env,
) *SessionService {
	return &SessionService{sessions: sessions, rooms: rooms, workspaces: workspaces, locks: locks, env: env}
}

// Start opens a session for userID. queueName may be empty.
func (s *SessionService) Start(ctx context.Context, workspaceID, userID, queueName string, role entities.SessionRole) (*entities.Session, error) {
	unlock := s.locks.Lock(sessionKey(workspaceID, userID))
	defer unlock()

	if _, err := s.active(ctx, workspaceID, userID); err == nil {
		return nil, domain.ErrSessionActive
	} else if !errors.Is(err, domain.ErrNoActiveSession) {
		return nil, err
	}

	queueID := ""
	if queueName != "" {
		ws, err := s.workspaces.FindByID(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		q := ws.QueueByName(queueName)
		if q == nil {
			return nil, domain.ErrQueueNotFound
		}
		queueID = q.ID
	}
	if role == "" {
		role = entities.RoleCoach
	}
	session := &entities.Session{
		ID:          uuid.NewString(),
		Active:      true,
		UserID:      userID,
		WorkspaceID: workspaceID,
		QueueID:     queueID,
		Role:        role,
		StartedAt:   s.env.now(),
		Rooms:       []string{},
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Quit ends the active session of userID.
func (s *SessionService) Quit(ctx context.Context, workspaceID, userID string) (*entities.Session, error) {
	unlock := s.locks.Lock(sessionKey(workspaceID, userID))
	defer unlock()

	session, err := s.active(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	session.End(s.env.now(), true)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Terminate ends every active session of the workspace. The end instant is
// not the coach's own, so it is recorded as uncertain.
func (s *SessionService) Terminate(ctx context.Context, workspaceID string) (int, error) {
	active, err := s.sessions.FindActiveByWorkspace(ctx, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("find active sessions: %w", err)
	}
	now := s.env.now()
	ended := 0
	for i := range active {
		session := &active[i]
		unlock := s.locks.Lock(sessionKey(workspaceID, session.UserID))
		session.End(now, false)
		err := s.sessions.Save(ctx, session)
		unlock()
		if err != nil {
			return ended, fmt.Errorf("save session %s: %w", session.ID, err)
		}
		ended++
	}
	return ended, nil
}

// Active returns the active session of userID or domain.ErrNoActiveSession.
func (s *SessionService) Active(ctx context.Context, workspaceID, userID string) (*entities.Session, error) {
	return s.active(ctx, workspaceID, userID)
}

func (s *SessionService) active(ctx context.Context, workspaceID, userID string) (*entities.Session, error) {
	sessions, err := s.sessions.FindByUser(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	for i := range sessions {
		if sessions[i].Active {
			return &sessions[i], nil
		}
	}
	return nil, domain.ErrNoActiveSession
}

// AttachRoom adds roomID to the active session of userID.
func (s *SessionService) AttachRoom(ctx context.Context, workspaceID, userID, roomID string) error {
	unlock := s.locks.Lock(sessionKey(workspaceID, userID))
	defer unlock()

	session, err := s.active(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	session.AddRoom(roomID)
	return s.sessions.Save(ctx, session)
}

// ParticipantAmount counts, per room of the session, the members whose role
// at their first join was participant. Rooms that cannot be loaded are skipped.
func (s *SessionService) ParticipantAmount(ctx context.Context, session *entities.Session) (int, error) {
	roles := make(map[string][]entities.Session)
	total := 0
	for _, roomID := range session.Rooms {
		room, err := s.rooms.FindByID(ctx, roomID)
		if err != nil {
			s.env.logger(ctx, "session", "participants", "room", roomID).Warn("load room failed", "error", err)
			continue
		}
		for memberID, at := range room.FirstJoinTimes() {
			held, ok := roles[memberID]
			if !ok {
				held, err = s.sessions.FindByUser(ctx, session.WorkspaceID, memberID)
				if err != nil {
					return 0, fmt.Errorf("find sessions of %s: %w", memberID, err)
				}
				roles[memberID] = held
			}
			if entities.RoleAt(held, at) == entities.RoleParticipant {
				total++
			}
		}
	}
	return total, nil
}
