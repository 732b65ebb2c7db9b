package database

import (
	"context"
	"encoding/json"
	"fmt"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

var _ output.RoomRepository = (*RoomRepository)(nil)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*entities.Room, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM rooms WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", id, notFound(err, domain.ErrRoomNotFound))
	}
	return decodeRoom(raw)
}

func (r *RoomRepository) FindActiveByWorkspace(ctx context.Context, workspaceID string) ([]entities.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM rooms WHERE workspace_id = $1 AND active ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	out, err := collect(rows, decodeRoom)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return out, nil
}

func (r *RoomRepository) Save(ctx context.Context, room *entities.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rooms (id, workspace_id, active, doc, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, doc = EXCLUDED.doc, updated_at = now()`,
		room.ID, room.WorkspaceID, room.Active, string(doc))
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	return nil
}
