package entities

import "time"

// SessionRole is the role a user holds during a session or inside a room.
type SessionRole string

const (
	RoleCoach       SessionRole = "coach"
	RoleSupervisor  SessionRole = "supervisor"
	RoleParticipant SessionRole = "participant"
)

// Session is a coach's contiguous period of activity, spanning the rooms
// spawned while it was active.
type Session struct {
	ID          string      `json:"id"`
	Active      bool        `json:"active"`
	UserID      string      `json:"user"`
	WorkspaceID string      `json:"workspace,omitempty"`
	QueueID     string      `json:"queue,omitempty"`
	Role        SessionRole `json:"role"`
	StartedAt   time.Time   `json:"started_at"`
	EndedAt     *time.Time  `json:"ended_at,omitempty"`
	EndCertain  bool        `json:"end_certain"`
	Rooms       []string    `json:"rooms"`
}

// AddRoom records roomID once.
func (s *Session) AddRoom(roomID string) {
	for _, id := range s.Rooms {
		if id == roomID {
			return
		}
	}
	s.Rooms = append(s.Rooms, roomID)
}

// End closes the session at at.
func (s *Session) End(at time.Time, certain bool) {
	s.Active = false
	s.EndedAt = &at
	s.EndCertain = certain
}

// ActiveAt reports whether the session covered instant t.
func (s *Session) ActiveAt(t time.Time) bool {
	if t.Before(s.StartedAt) {
		return false
	}
	if s.EndedAt == nil {
		return s.Active
	}
	return t.Before(*s.EndedAt)
}

// RoomAmount is the number of rooms visited during the session.
func (s *Session) RoomAmount() int {
	return len(s.Rooms)
}

// RoleAt classifies a user at instant t from the sessions they held.
func RoleAt(sessions []Session, t time.Time) SessionRole {
	for i := range sessions {
		if sessions[i].ActiveAt(t) {
			return sessions[i].Role
		}
	}
	return RoleParticipant
}
