package database

import (
	"context"
	"encoding/json"
	"fmt"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

var _ output.SessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*entities.Session, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM sessions WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, notFound(err, domain.ErrSessionNotFound))
	}
	return decodeSession(raw)
}

func (r *SessionRepository) FindActiveByWorkspace(ctx context.Context, workspaceID string) ([]entities.Session, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM sessions WHERE workspace_id = $1 AND active ORDER BY started_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	out, err := collect(rows, decodeSession)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) FindByUser(ctx context.Context, workspaceID, userID string) ([]entities.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT doc FROM sessions
		WHERE workspace_id = $1 AND user_id = $2
		ORDER BY started_at`, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	out, err := collect(rows, decodeSession)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *entities.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO sessions (id, workspace_id, user_id, active, started_at, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, doc = EXCLUDED.doc, updated_at = now()`,
		s.ID, s.WorkspaceID, s.UserID, s.Active, s.StartedAt, string(doc))
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}
