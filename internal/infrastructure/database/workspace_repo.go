package database

import (
	"context"
	"encoding/json"
	"fmt"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

var _ output.WorkspaceRepository = (*WorkspaceRepository)(nil)

// WorkspaceRepository stores workspace documents in a JSONB column.
type WorkspaceRepository struct {
	db DBTX
}

func NewWorkspaceRepository(db DBTX) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*entities.Workspace, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM workspaces WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("get workspace %s: %w", id, notFound(err, domain.ErrWorkspaceNotFound))
	}
	return decodeWorkspace(raw)
}

func (r *WorkspaceRepository) FindAll(ctx context.Context) ([]entities.Workspace, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out, err := collect(rows, decodeWorkspace)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return out, nil
}

func (r *WorkspaceRepository) Save(ctx context.Context, ws *entities.Workspace) error {
	doc, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO workspaces (id, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		ws.ID, string(doc))
	if err != nil {
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}
	return nil
}
