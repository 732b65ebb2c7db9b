package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coachbot/internal/domain/entities"
)

// notFound translates pgx.ErrNoRows into the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func decodeWorkspace(raw []byte) (*entities.Workspace, error) {
	var ws entities.Workspace
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	if ws.Queues == nil {
		ws.Queues = []entities.Queue{}
	}
	if ws.Channels == nil {
		ws.Channels = []entities.Channel{}
	}
	for i := range ws.Queues {
		if ws.Queues[i].Entries == nil {
			ws.Queues[i].Entries = []entities.QueueEntry{}
		}
		if ws.Queues[i].OpeningTimes == nil {
			ws.Queues[i].OpeningTimes = []entities.QueueSpan{}
		}
	}
	return &ws, nil
}

func decodeRoom(raw []byte) (*entities.Room, error) {
	var room entities.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	if room.Events == nil {
		room.Events = []entities.RoomEvent{}
	}
	return &room, nil
}

func decodeSession(raw []byte) (*entities.Session, error) {
	var s entities.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Rooms == nil {
		s.Rooms = []string{}
	}
	return &s, nil
}

// collect scans a single jsonb column from every row and decodes it.
func collect[T any](rows pgx.Rows, decode func([]byte) (*T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
