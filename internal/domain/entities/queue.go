package entities

import (
	"sort"
	"strings"
	"time"

	"coachbot/internal/domain"
)

// QueueEntry is one member's ticket in a queue.
type QueueEntry struct {
	DiscordID  string    `json:"discord_id"`
	JoinedAt   time.Time `json:"joined_at"`
	Importance float64   `json:"importance"`
	Intent     string    `json:"intent,omitempty"`
}

// NewQueueEntry builds an entry with the default importance of 1.
func NewQueueEntry(discordID string, joinedAt time.Time, intent string) QueueEntry {
	return QueueEntry{DiscordID: discordID, JoinedAt: joinedAt, Importance: 1, Intent: intent}
}

// Weight is the wait time scaled by importance, the key entries are ranked by.
func (e QueueEntry) Weight(now time.Time) float64 {
	importance := e.Importance
	if importance < 0 {
		importance = 0
	}
	return float64(now.Sub(e.JoinedAt).Milliseconds()) * importance
}

// QueueMessages holds the optional user-defined templates of a queue.
type QueueMessages struct {
	Join  string `json:"join,omitempty"`
	Leave string `json:"leave,omitempty"`
}

// Queue is a named waiting line inside a workspace. Entries have no stored
// order; the ranking is derived on every read.
type Queue struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	TextChannelID     string             `json:"text_channel_id,omitempty"`
	Entries           []QueueEntry       `json:"entries"`
	OpeningTimes      []QueueSpan        `json:"opening_times"`
	Locked            bool               `json:"locked"`
	AutoLock          bool               `json:"auto_lock"`
	OpenShift         time.Duration      `json:"open_shift,omitempty"`
	CloseShift        time.Duration      `json:"close_shift,omitempty"`
	Limit             int                `json:"limit,omitempty"`
	AvgService        time.Duration      `json:"avg_service,omitempty"`
	DisconnectTimeout time.Duration      `json:"disconnect_timeout,omitempty"`
	RoomSpawner       *RoomSpawnTemplate `json:"room_spawner,omitempty"`
	Messages          QueueMessages      `json:"messages"`
}

// HasName compares names case-insensitively.
func (q *Queue) HasName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(q.Name), strings.TrimSpace(name))
}

// Join appends entry and returns the stored copy.
func (q *Queue) Join(entry QueueEntry) (QueueEntry, error) {
	if q.Contains(entry.DiscordID) {
		return QueueEntry{}, domain.ErrDuplicateEntry
	}
	if q.Locked {
		return QueueEntry{}, domain.ErrQueueLocked
	}
	if q.Limit > 0 && len(q.Entries) >= q.Limit {
		return QueueEntry{}, domain.ErrQueueFull
	}
	if entry.Importance < 0 {
		entry.Importance = 0
	}
	q.Entries = append(q.Entries, entry)
	return entry, nil
}

// Leave removes the entry of discordID and returns it.
func (q *Queue) Leave(discordID string) (QueueEntry, error) {
	for i, e := range q.Entries {
		if e.DiscordID == discordID {
			q.Entries = append(q.Entries[:i:i], q.Entries[i+1:]...)
			return e, nil
		}
	}
	return QueueEntry{}, domain.ErrEntryNotFound
}

// Entry returns the entry of discordID.
func (q *Queue) Entry(discordID string) (QueueEntry, bool) {
	for _, e := range q.Entries {
		if e.DiscordID == discordID {
			return e, true
		}
	}
	return QueueEntry{}, false
}

// SetImportance changes the weight multiplier of discordID's entry.
func (q *Queue) SetImportance(discordID string, importance float64) (QueueEntry, error) {
	for i := range q.Entries {
		if q.Entries[i].DiscordID == discordID {
			q.Entries[i].Importance = max(importance, 0)
			return q.Entries[i], nil
		}
	}
	return QueueEntry{}, domain.ErrEntryNotFound
}

func (q *Queue) Contains(discordID string) bool {
	_, ok := q.Entry(discordID)
	return ok
}

func (q *Queue) IsEmpty() bool {
	return len(q.Entries) == 0
}

// SortedEntries ranks entries by descending weighted wait time, keeping
// insertion order for ties. A limit <= 0 returns every entry.
func (q *Queue) SortedEntries(now time.Time, limit int) []QueueEntry {
	sorted := make([]QueueEntry, len(q.Entries))
	copy(sorted, q.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight(now) > sorted[j].Weight(now)
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// Position returns the 0-based rank of discordID, or -1 when absent.
func (q *Queue) Position(now time.Time, discordID string) int {
	for i, e := range q.SortedEntries(now, 0) {
		if e.DiscordID == discordID {
			return i
		}
	}
	return -1
}

// Close stops the queue from accepting joins. Open reverses it.
func (q *Queue) Close() { q.Locked = true }
func (q *Queue) Open()  { q.Locked = false }

// ToggleLock flips the lock and returns the new state.
func (q *Queue) ToggleLock() bool {
	q.Locked = !q.Locked
	return q.Locked
}

// ShouldBeOpen reports whether any opening span is active at now.
func (q *Queue) ShouldBeOpen(now time.Time) bool {
	for _, span := range q.OpeningTimes {
		if span.IsActive(now) {
			return true
		}
	}
	return false
}

// AddSpan appends span, filling unset shifts from the queue defaults.
func (q *Queue) AddSpan(span QueueSpan) {
	if span.OpenShift == 0 {
		span.OpenShift = q.OpenShift
	}
	if span.CloseShift == 0 {
		span.CloseShift = q.CloseShift
	}
	q.OpeningTimes = append(q.OpeningTimes, span)
}

// RemoveSpan removes the span at index.
func (q *Queue) RemoveSpan(index int) (QueueSpan, error) {
	if index < 0 || index >= len(q.OpeningTimes) {
		return QueueSpan{}, domain.ErrNotFound
	}
	span := q.OpeningTimes[index]
	q.OpeningTimes = append(q.OpeningTimes[:index:index], q.OpeningTimes[index+1:]...)
	return span, nil
}

// MessageData returns the variables available to join/leave templates.
// entry may be nil for queue-scoped rendering.
func (q *Queue) MessageData(now time.Time, entry *QueueEntry) map[string]any {
	data := map[string]any{
		"name":        q.Name,
		"description": q.Description,
		"limit":       q.Limit,
		"total":       len(q.Entries),
	}
	if entry == nil {
		return data
	}
	pos := q.Position(now, entry.DiscordID)
	data["pos"] = pos + 1
	data["time_spent"] = now.Sub(entry.JoinedAt).Truncate(time.Second).String()
	data["eta"] = "?"
	if q.AvgService > 0 && pos >= 0 {
		data["eta"] = (time.Duration(pos) * q.AvgService).Truncate(time.Second).String()
	}
	return data
}
