package application

import (
	"context"
	"fmt"

	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// workspaceStore runs load-mutate-save cycles on workspace documents under
// the workspace lock. There is no cache: every cycle reads the store.
type workspaceStore struct {
	repo  output.WorkspaceRepository
	locks *KeyedMutex
	env   Env
}

func (s *workspaceStore) load(ctx context.Context, id string) (*entities.Workspace, error) {
	return s.repo.FindByID(ctx, id)
}

// update applies fn to a fresh copy of the workspace and saves it. Nothing is
// saved when fn fails.
func (s *workspaceStore) update(ctx context.Context, id string, fn func(ws *entities.Workspace) error) (*entities.Workspace, error) {
	unlock := s.locks.Lock(workspaceKey(id))
	defer unlock()
	return s.updateLocked(ctx, id, fn)
}

// updateLocked is update for callers already holding the workspace lock.
func (s *workspaceStore) updateLocked(ctx context.Context, id string, fn func(ws *entities.Workspace) error) (*entities.Workspace, error) {
	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	ws.UpdatedAt = s.env.now()
	if err := s.repo.Save(ctx, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return ws, nil
}
