package entities

import "time"

// ChannelType distinguishes the channels the bot tracks.
type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

// Channel is an entry of the workspace channel table.
type Channel struct {
	ID        string      `json:"id"`
	Type      ChannelType `json:"type"`
	QueueID   string      `json:"queue,omitempty"`
	Temporary bool        `json:"temporary,omitempty"`
}

// Workspace is the persisted document of one community. Queues and channels
// are embedded.
type Workspace struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	WaitingRoleID string    `json:"waiting_role_id,omitempty"`
	Queues        []Queue   `json:"queues"`
	Channels      []Channel `json:"channels"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QueueByName finds a queue by its case-insensitive name.
func (w *Workspace) QueueByName(name string) *Queue {
	for i := range w.Queues {
		if w.Queues[i].HasName(name) {
			return &w.Queues[i]
		}
	}
	return nil
}

// QueueByID finds a queue by id.
func (w *Workspace) QueueByID(id string) *Queue {
	for i := range w.Queues {
		if w.Queues[i].ID == id {
			return &w.Queues[i]
		}
	}
	return nil
}

// RemoveQueue deletes the queue with id and unlinks its waiting rooms.
func (w *Workspace) RemoveQueue(id string) bool {
	for i := range w.Queues {
		if w.Queues[i].ID != id {
			continue
		}
		w.Queues = append(w.Queues[:i:i], w.Queues[i+1:]...)
		for j := range w.Channels {
			if w.Channels[j].QueueID == id {
				w.Channels[j].QueueID = ""
			}
		}
		return true
	}
	return false
}

// WaitingRooms returns the voice channels linked to queueID.
func (w *Workspace) WaitingRooms(queueID string) []Channel {
	var out []Channel
	for _, c := range w.Channels {
		if c.Type == ChannelTypeVoice && c.QueueID == queueID {
			out = append(out, c)
		}
	}
	return out
}

// Channel returns the tracked channel with id.
func (w *Workspace) Channel(id string) (Channel, bool) {
	for _, c := range w.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// UpsertChannel inserts c or replaces the tracked channel with the same id.
func (w *Workspace) UpsertChannel(c Channel) {
	for i := range w.Channels {
		if w.Channels[i].ID == c.ID {
			w.Channels[i] = c
			return
		}
	}
	w.Channels = append(w.Channels, c)
}

// RemoveChannel drops id from the channel table.
func (w *Workspace) RemoveChannel(id string) {
	for i := range w.Channels {
		if w.Channels[i].ID == id {
			w.Channels = append(w.Channels[:i:i], w.Channels[i+1:]...)
			return
		}
	}
}

// QueuesOf returns the queues in which discordID is waiting.
func (w *Workspace) QueuesOf(discordID string) []*Queue {
	var out []*Queue
	for i := range w.Queues {
		if w.Queues[i].Contains(discordID) {
			out = append(out, &w.Queues[i])
		}
	}
	return out
}
