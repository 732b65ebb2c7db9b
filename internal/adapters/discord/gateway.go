package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"coachbot/internal/domain"
	"coachbot/internal/domain/entities"
	"coachbot/internal/ports/output"
)

// membersPageSize is the maximum page size of the guild members endpoint.
const membersPageSize = 1000

var _ output.Platform = (*Gateway)(nil)

// Gateway implements output.Platform on top of a discordgo session.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{session: s}
}

func platformErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.PlatformError{Op: op, Err: err}
}

func (g *Gateway) BotID() string {
	if g.session.State == nil || g.session.State.User == nil {
		return ""
	}
	return g.session.State.User.ID
}

func (g *Gateway) CreateVoiceChannel(ctx context.Context, workspaceID string, spec output.VoiceChannelSpec) (string, error) {
	ch, err := g.session.GuildChannelCreateComplex(workspaceID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		UserLimit:            spec.MaxUsers,
		ParentID:             spec.ParentID,
		PermissionOverwrites: toDiscordOverwrites(spec.Overwrites),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", platformErr("create voice channel", err)
	}
	return ch.ID, nil
}

func (g *Gateway) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := g.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return platformErr("rename channel", err)
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return platformErr("delete channel", err)
}

func (g *Gateway) SetChannelPermissions(ctx context.Context, channelID string, overwrites []entities.PermissionOverwrite) error {
	for _, o := range toDiscordOverwrites(overwrites) {
		if err := g.session.ChannelPermissionSet(channelID, o.ID, o.Type, o.Allow, o.Deny, discordgo.WithContext(ctx)); err != nil {
			return platformErr(fmt.Sprintf("set permission %s", o.ID), err)
		}
	}
	return nil
}

func (g *Gateway) MoveMember(ctx context.Context, workspaceID, memberID, channelID string) error {
	var target *string
	if channelID != "" {
		target = &channelID
	}
	return platformErr("move member", g.session.GuildMemberMove(workspaceID, memberID, target, discordgo.WithContext(ctx)))
}

func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return platformErr("send message", err)
}

func (g *Gateway) SendDirectMessage(ctx context.Context, userID, content string) error {
	ch, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return platformErr("open dm", err)
	}
	_, err = g.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return platformErr("send dm", err)
}

func (g *Gateway) FetchRoles(ctx context.Context, workspaceID string) ([]output.Role, error) {
	roles, err := g.session.GuildRoles(workspaceID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, platformErr("fetch roles", err)
	}
	out := make([]output.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, output.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (g *Gateway) FetchMembers(ctx context.Context, workspaceID string) ([]output.Member, error) {
	var out []output.Member
	after := ""
	for {
		page, err := g.session.GuildMembers(workspaceID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, platformErr("fetch members", err)
		}
		for _, m := range page {
			out = append(out, toMember(m))
		}
		if len(page) < membersPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Gateway) AddRole(ctx context.Context, workspaceID, memberID, roleID string) error {
	return platformErr("add role", g.session.GuildMemberRoleAdd(workspaceID, memberID, roleID, discordgo.WithContext(ctx)))
}

func (g *Gateway) RemoveRole(ctx context.Context, workspaceID, memberID, roleID string) error {
	return platformErr("remove role", g.session.GuildMemberRoleRemove(workspaceID, memberID, roleID, discordgo.WithContext(ctx)))
}

func toDiscordOverwrites(in []entities.PermissionOverwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(in))
	for _, o := range in {
		t := discordgo.PermissionOverwriteTypeRole
		if o.Type == entities.OverwriteMember {
			t = discordgo.PermissionOverwriteTypeMember
		}
		out = append(out, &discordgo.PermissionOverwrite{ID: o.ID, Type: t, Allow: o.Allow, Deny: o.Deny})
	}
	return out
}

func toMember(m *discordgo.Member) output.Member {
	member := output.Member{DisplayName: resolveDisplayName(m), Roles: m.Roles}
	if m.User != nil {
		member.ID = m.User.ID
		member.Bot = m.User.Bot
	}
	return member
}
