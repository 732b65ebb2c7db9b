package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrWorkspaceNotFound = fmt.Errorf("workspace %w", ErrNotFound)
	ErrQueueNotFound     = fmt.Errorf("queue %w", ErrNotFound)
	ErrEntryNotFound     = fmt.Errorf("queue entry %w", ErrNotFound)
	ErrRoomNotFound      = fmt.Errorf("room %w", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("session %w", ErrNotFound)

	ErrDuplicateEntry  = errors.New("member is already waiting in this queue")
	ErrQueueLocked     = errors.New("queue is locked")
	ErrQueueFull       = errors.New("queue is full")
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrQueueExists     = errors.New("a queue with this name already exists")
	ErrSessionActive   = errors.New("an active session already exists")
	ErrNoActiveSession = errors.New("no active session")
	ErrRoomInactive    = errors.New("room is no longer active")
)

// ParseError reports a malformed week timestamp or queue span string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// RoomCreationError is returned when the platform refused to create a room channel.
type RoomCreationError struct {
	Err error
}

func (e *RoomCreationError) Error() string {
	return fmt.Sprintf("room creation failed: %v", e.Err)
}

func (e *RoomCreationError) Unwrap() error { return e.Err }

// PlatformError wraps a failed call to the chat platform.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Code maps an error to a stable code used for logging and message lookup.
// It returns "" for errors that are not part of the domain taxonomy.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var parseErr *ParseError
	var roomErr *RoomCreationError
	var platformErr *PlatformError
	switch {
	case errors.Is(err, ErrWorkspaceNotFound):
		return "workspace_not_found"
	case errors.Is(err, ErrQueueNotFound):
		return "queue_not_found"
	case errors.Is(err, ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateEntry):
		return "duplicate_entry"
	case errors.Is(err, ErrQueueLocked):
		return "queue_locked"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrQueueEmpty):
		return "queue_empty"
	case errors.Is(err, ErrQueueExists):
		return "queue_exists"
	case errors.Is(err, ErrSessionActive):
		return "session_active"
	case errors.Is(err, ErrNoActiveSession):
		return "no_active_session"
	case errors.Is(err, ErrRoomInactive):
		return "room_inactive"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &roomErr):
		return "room_creation_failed"
	case errors.As(err, &platformErr):
		return "platform_error"
	}
	return ""
}
