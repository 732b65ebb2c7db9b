package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

const (
	embedColorOpen   = 0x57F287
	embedColorLocked = 0xED4245
	maxListedEntries = 20
)

// BuildQueueEmbed renders a queue listing: state, ranked entries and schedule.
// entries must already be ranked.
func BuildQueueEmbed(t output.T, locale string, q *entities.Queue, entries []entities.QueueEntry, now time.Time) *discordgo.MessageEmbed {
	data := q.MessageData(now, nil)

	state, color := t.T(locale, "queue.list.open", nil), embedColorOpen
	if q.Locked {
		state, color = t.T(locale, "queue.list.locked", nil), embedColorLocked
	}

	var b strings.Builder
	if q.Description != "" {
		b.WriteString(q.Description)
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("**%s**", state))
	if q.Limit > 0 {
		b.WriteString(fmt.Sprintf(" • %d/%d", len(q.Entries), q.Limit))
	}
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(t.T(locale, "queue.list.empty", nil))
	}
	for i, e := range entries {
		if i == maxListedEntries {
			b.WriteString(fmt.Sprintf("… +%d\n", len(entries)-maxListedEntries))
			break
		}
		b.WriteString(fmt.Sprintf("%d. <@%s> • %s", i+1, e.DiscordID, FormatWait(now.Sub(e.JoinedAt))))
		if e.Intent != "" {
			b.WriteString(" • " + e.Intent)
		}
		b.WriteString("\n")
	}

	embed := &discordgo.MessageEmbed{
		Title:       t.T(locale, "queue.list.title", data),
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       color,
	}
	if len(q.OpeningTimes) > 0 {
		lines := make([]string, 0, len(q.OpeningTimes))
		for i, span := range q.OpeningTimes {
			lines = append(lines, fmt.Sprintf("`%d` %s (%s / %s)", i, span.String(), entities.FormatShift(span.OpenShift), entities.FormatShift(span.CloseShift)))
		}
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  t.T(locale, "queue.list.schedule", nil),
			Value: strings.Join(lines, "\n"),
		}}
	}
	return embed
}
