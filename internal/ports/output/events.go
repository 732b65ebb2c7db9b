package output

import (
	"context"
	"time"
)

// QueueEventType names the events published on the queue event stream.
type QueueEventType string

const (
	EventEntryJoined   QueueEventType = "entry.joined"
	EventEntryLeft     QueueEventType = "entry.left"
	EventEntryPicked   QueueEventType = "entry.picked"
	EventQueueLocked   QueueEventType = "queue.locked"
	EventQueueUnlocked QueueEventType = "queue.unlocked"
	EventRoomCreated   QueueEventType = "room.created"
	EventRoomClosed    QueueEventType = "room.closed"
)

// QueueEvent is a notification about queue or room activity.
type QueueEvent struct {
	Type        QueueEventType
	WorkspaceID string
	QueueID     string
	MemberID    string
	RoomID      string
	At          time.Time
}

// EventPublisher pushes queue events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event QueueEvent) error
}
