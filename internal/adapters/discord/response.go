package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// reply is what a command handler sends back to its caller.
type reply struct {
	content string
	embed   *discordgo.MessageEmbed
}

// Nick > GlobalName > Username
func resolveDisplayName(member *discordgo.Member) string {
	if member == nil || member.User == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// invoker returns the member behind an interaction, in guilds or DMs.
func invoker(i *discordgo.Interaction) (id, displayName string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, resolveDisplayName(i.Member)
	}
	if i.User != nil {
		return i.User.ID, i.User.Username
	}
	return "", ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	_ = s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferEphemeral acknowledges the interaction so slow commands (room spawn,
// member moves) do not hit the interaction deadline.
func deferEphemeral(s *discordgo.Session, i *discordgo.Interaction) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func editResponse(s *discordgo.Session, i *discordgo.Interaction, r reply) {
	edit := &discordgo.WebhookEdit{Content: &r.content}
	if r.embed != nil {
		embeds := []*discordgo.MessageEmbed{r.embed}
		edit.Embeds = &embeds
	}
	if _, err := s.InteractionResponseEdit(i, edit); err != nil {
		log.Printf("❌ Interaction response edit failed: %v", err)
	}
}
