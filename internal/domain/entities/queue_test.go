package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbot/internal/domain"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func ids(entries []QueueEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.DiscordID)
	}
	return out
}

func TestQueue_WeightedOrdering(t *testing.T) {
	q := &Queue{Name: "math-help"}
	_, err := q.Join(QueueEntry{DiscordID: "A", JoinedAt: t0, Importance: 1})
	require.NoError(t, err)
	_, err = q.Join(QueueEntry{DiscordID: "B", JoinedAt: t0, Importance: 5})
	require.NoError(t, err)

	now := t0.Add(10 * time.Minute)
	assert.Equal(t, []string{"B", "A"}, ids(q.SortedEntries(now, 0)))
	assert.Equal(t, 1, q.Position(now, "A"))
	assert.Equal(t, 0, q.Position(now, "B"))
	assert.Equal(t, -1, q.Position(now, "C"))
}

func TestQueue_EqualImportanceIsFIFO(t *testing.T) {
	q := &Queue{}
	for i, id := range []string{"first", "second", "third"} {
		_, err := q.Join(NewQueueEntry(id, t0.Add(time.Duration(i)*time.Minute), ""))
		require.NoError(t, err)
	}
	now := t0.Add(time.Hour)
	assert.Equal(t, []string{"first", "second", "third"}, ids(q.SortedEntries(now, 0)))
	assert.Equal(t, []string{"first", "second"}, ids(q.SortedEntries(now, 2)))
}

func TestQueue_RecentImportantOvertakes(t *testing.T) {
	q := &Queue{}
	_, _ = q.Join(NewQueueEntry("old", t0, ""))
	_, _ = q.Join(QueueEntry{DiscordID: "vip", JoinedAt: t0.Add(50 * time.Minute), Importance: 10})

	// old waited 60m (weight 60), vip waited 10m x 10 (weight 100).
	assert.Equal(t, []string{"vip", "old"}, ids(q.SortedEntries(t0.Add(time.Hour), 0)))
}

func TestQueue_TiesKeepInsertionOrder(t *testing.T) {
	q := &Queue{}
	_, _ = q.Join(NewQueueEntry("x", t0, ""))
	_, _ = q.Join(NewQueueEntry("y", t0, ""))
	assert.Equal(t, []string{"x", "y"}, ids(q.SortedEntries(t0, 0)))
}

func TestQueue_JoinLeaveRoundTrip(t *testing.T) {
	q := &Queue{}
	_, _ = q.Join(NewQueueEntry("a", t0, ""))
	before := append([]QueueEntry(nil), q.Entries...)

	stored, err := q.Join(NewQueueEntry("b", t0, "homework"))
	require.NoError(t, err)
	assert.Equal(t, "homework", stored.Intent)
	assert.True(t, q.Contains("b"))

	left, err := q.Leave("b")
	require.NoError(t, err)
	assert.Equal(t, stored, left)
	assert.Equal(t, before, q.Entries)

	_, err = q.Leave("b")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueue_JoinDuplicate(t *testing.T) {
	q := &Queue{}
	_, _ = q.Join(NewQueueEntry("a", t0, ""))
	before := append([]QueueEntry(nil), q.Entries...)

	_, err := q.Join(NewQueueEntry("a", t0.Add(time.Minute), ""))
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	assert.Equal(t, before, q.Entries)
}

func TestQueue_JoinLockedAndFull(t *testing.T) {
	q := &Queue{Locked: true}
	_, err := q.Join(NewQueueEntry("a", t0, ""))
	assert.ErrorIs(t, err, domain.ErrQueueLocked)
	assert.True(t, q.IsEmpty())

	q = &Queue{Limit: 1}
	_, err = q.Join(NewQueueEntry("a", t0, ""))
	require.NoError(t, err)
	_, err = q.Join(NewQueueEntry("b", t0, ""))
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

func TestQueue_SetImportanceReranks(t *testing.T) {
	q := &Queue{}
	_, err := q.Join(NewQueueEntry("a", t0, ""))
	require.NoError(t, err)
	_, err = q.Join(NewQueueEntry("b", t0.Add(time.Minute), ""))
	require.NoError(t, err)
	now := t0.Add(2 * time.Minute)
	assert.Equal(t, []string{"a", "b"}, ids(q.SortedEntries(now, 0)))

	e, err := q.SetImportance("b", 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, e.Importance)
	assert.Equal(t, []string{"b", "a"}, ids(q.SortedEntries(now, 0)))

	e, err = q.SetImportance("a", -2)
	require.NoError(t, err)
	assert.Zero(t, e.Importance)

	_, err = q.SetImportance("c", 1)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestQueue_CloseOpenToggle(t *testing.T) {
	q := &Queue{}
	q.Close()
	assert.True(t, q.Locked)
	q.Open()
	assert.False(t, q.Locked)
	assert.True(t, q.ToggleLock())
	assert.False(t, q.ToggleLock())
}

func TestQueue_HasName(t *testing.T) {
	q := &Queue{Name: "Math-Help"}
	assert.True(t, q.HasName("math-help"))
	assert.True(t, q.HasName(" MATH-HELP "))
	assert.False(t, q.HasName("physics"))
}

func TestQueue_Spans(t *testing.T) {
	q := &Queue{OpenShift: -10 * time.Minute, CloseShift: 5 * time.Minute}
	q.AddSpan(mustSpan(t, "FRIDAY 10:00 - FRIDAY 12:00"))
	custom := mustSpan(t, "MONDAY 10:00 - MONDAY 12:00")
	custom.OpenShift = time.Minute
	q.AddSpan(custom)

	require.Len(t, q.OpeningTimes, 2)
	assert.Equal(t, -10*time.Minute, q.OpeningTimes[0].OpenShift)
	assert.Equal(t, 5*time.Minute, q.OpeningTimes[0].CloseShift)
	assert.Equal(t, time.Minute, q.OpeningTimes[1].OpenShift)

	assert.True(t, q.ShouldBeOpen(day(time.Friday, 9, 55)))
	assert.False(t, q.ShouldBeOpen(day(time.Thursday, 10, 0)))

	removed, err := q.RemoveSpan(0)
	require.NoError(t, err)
	assert.Equal(t, time.Friday, removed.Begin.Weekday)
	assert.Len(t, q.OpeningTimes, 1)

	_, err = q.RemoveSpan(3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueue_MessageData(t *testing.T) {
	q := &Queue{Name: "help", Description: "desk", Limit: 10, AvgService: 5 * time.Minute}
	_, _ = q.Join(NewQueueEntry("a", t0, ""))
	b, _ := q.Join(NewQueueEntry("b", t0.Add(time.Minute), ""))

	now := t0.Add(3 * time.Minute)
	data := q.MessageData(now, &b)
	assert.Equal(t, "help", data["name"])
	assert.Equal(t, "desk", data["description"])
	assert.Equal(t, 10, data["limit"])
	assert.Equal(t, 2, data["total"])
	assert.Equal(t, 2, data["pos"])
	assert.Equal(t, "2m0s", data["time_spent"])
	assert.Equal(t, "5m0s", data["eta"])

	q.AvgService = 0
	assert.Equal(t, "?", q.MessageData(now, &b)["eta"])

	scoped := q.MessageData(now, nil)
	assert.NotContains(t, scoped, "pos")
}
