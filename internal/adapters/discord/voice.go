package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
)

// HandleGuildCreate makes sure every guild the bot sits in has a workspace.
func (h *Handler) HandleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if _, err := h.queues.EnsureWorkspace(context.Background(), g.ID, g.Name); err != nil {
		log.Printf("❌ Workspace setup failed (guild=%s): %v", g.ID, err)
	}
}

// HandleVoiceStateUpdate feeds room event logs and waiting-room disconnect timers.
func (h *Handler) HandleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	after := v.ChannelID
	if before == after || v.UserID == botID(s) {
		return
	}

	ctx := context.Background()
	if before != "" {
		h.voiceLeft(ctx, s, v.GuildID, before, v.UserID)
	}
	if after != "" {
		h.voiceJoined(ctx, v.GuildID, after, v.UserID)
	}
}

func (h *Handler) voiceLeft(ctx context.Context, s *discordgo.Session, guildID, channelID, userID string) {
	isRoom, err := h.rooms.IsRoom(ctx, channelID)
	if err != nil {
		log.Printf("⚠️ Room lookup failed (channel=%s): %v", channelID, err)
	}
	if isRoom {
		closed, err := h.rooms.RecordLeave(ctx, channelID, userID, voiceMembers(s, guildID, channelID))
		if err != nil {
			log.Printf("⚠️ Recording room leave failed (channel=%s, user=%s): %v", channelID, userID, err)
		} else if closed {
			log.Printf("🧹 Room %s closed, last member left", channelID)
		}
		return
	}
	if _, err := h.queues.MemberLeftWaitingRoom(ctx, guildID, channelID, userID); err != nil {
		log.Printf("⚠️ Waiting room leave failed (channel=%s, user=%s): %v", channelID, userID, err)
	}
}

func (h *Handler) voiceJoined(ctx context.Context, guildID, channelID, userID string) {
	isRoom, err := h.rooms.IsRoom(ctx, channelID)
	if err != nil {
		log.Printf("⚠️ Room lookup failed (channel=%s): %v", channelID, err)
	}
	if isRoom {
		if err := h.rooms.RecordJoin(ctx, channelID, userID); err != nil {
			log.Printf("⚠️ Recording room join failed (channel=%s, user=%s): %v", channelID, userID, err)
		}
		return
	}
	if _, err := h.queues.MemberJoinedWaitingRoom(ctx, guildID, channelID, userID); err != nil {
		log.Printf("⚠️ Waiting room join failed (channel=%s, user=%s): %v", channelID, userID, err)
	}
}

// HandleChannelUpdate records permission edits on rooms. The editor is read
// from the audit log; without it the edit counts as foreign.
func (h *Handler) HandleChannelUpdate(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	if c.BeforeUpdate == nil || sameOverwrites(c.BeforeUpdate.PermissionOverwrites, c.PermissionOverwrites) {
		return
	}
	ctx := context.Background()
	if isRoom, err := h.rooms.IsRoom(ctx, c.ID); err != nil || !isRoom {
		return
	}
	actor := overwriteEditor(s, c.GuildID, c.ID)
	if err := h.rooms.RecordPermissionChange(ctx, c.ID, actor); err != nil {
		log.Printf("⚠️ Recording permission change failed (channel=%s): %v", c.ID, err)
	}
}

// HandleChannelDelete closes rooms deleted by hand.
func (h *Handler) HandleChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	ctx := context.Background()
	if isRoom, err := h.rooms.IsRoom(ctx, c.ID); err != nil || !isRoom {
		return
	}
	if err := h.rooms.Close(ctx, c.ID, overwriteEditor(s, c.GuildID, c.ID)); err != nil {
		log.Printf("⚠️ Closing deleted room failed (channel=%s): %v", c.ID, err)
	}
}

func botID(s *discordgo.Session) string {
	if s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

// voiceMembers counts the humans connected to channelID according to the state cache.
func voiceMembers(s *discordgo.Session, guildID, channelID string) int {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	bot := botID(s)
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID && vs.UserID != bot {
			n++
		}
	}
	return n
}

func overwriteEditor(s *discordgo.Session, guildID, channelID string) string {
	for _, action := range []discordgo.AuditLogAction{
		discordgo.AuditLogActionChannelOverwriteUpdate,
		discordgo.AuditLogActionChannelOverwriteCreate,
		discordgo.AuditLogActionChannelOverwriteDelete,
		discordgo.AuditLogActionChannelDelete,
	} {
		entries, err := s.GuildAuditLog(guildID, "", "", int(action), 5)
		if err != nil {
			return ""
		}
		for _, e := range entries.AuditLogEntries {
			if e.TargetID == channelID {
				return e.UserID
			}
		}
	}
	return ""
}

func sameOverwrites(a, b []*discordgo.PermissionOverwrite) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[string]discordgo.PermissionOverwrite, len(a))
	for _, o := range a {
		index[o.ID] = *o
	}
	for _, o := range b {
		prev, ok := index[o.ID]
		if !ok || prev.Type != o.Type || prev.Allow != o.Allow || prev.Deny != o.Deny {
			return false
		}
	}
	return true
}
