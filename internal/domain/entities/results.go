package entities

// JoinResult is returned when a member joins a queue.
type JoinResult struct {
	Entry    QueueEntry
	Position int
	Message  string
}

// LeaveResult is returned when a member leaves a queue.
type LeaveResult struct {
	Entry   QueueEntry
	Message string
}

// RoomOwner identifies the member a room is spawned for.
type RoomOwner struct {
	ID          string
	DisplayName string
}

// PullResult describes a room spawned for members pulled out of a queue.
type PullResult struct {
	Room    *Room
	Queue   Queue
	Entries []QueueEntry
	// Moved lists members that reached the room; Unmoved the ones whose move failed.
	Moved   []string
	Unmoved []string
}
