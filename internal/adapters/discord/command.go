package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "coachbot/pkg/discord"
)

// invocation carries what every subcommand handler needs.
type invocation struct {
	session  *discordgo.Session
	i        *discordgo.Interaction
	guildID  string
	userID   string
	userName string
	locale   string
	opts     options
}

type subcommandHandler func(h *Handler, ctx context.Context, inv *invocation) (reply, error)

// commandRegistry maps command name → subcommand name → handler.
var commandRegistry = map[string]map[string]subcommandHandler{
	"queue": {
		"join":     (*Handler).queueJoin,
		"leave":    (*Handler).queueLeave,
		"position": (*Handler).queuePosition,
		"list":     (*Handler).queueList,
		"stay":     (*Handler).queueStay,
	},
	"coach": {
		"start": (*Handler).coachStart,
		"quit":  (*Handler).coachQuit,
		"next":  (*Handler).coachNext,
		"pick":  (*Handler).coachPick,
		"boost": (*Handler).coachBoost,
	},
	"queueadmin": {
		"create":          (*Handler).adminCreate,
		"delete":          (*Handler).adminDelete,
		"lock":            (*Handler).adminLock,
		"unlock":          (*Handler).adminUnlock,
		"autolock":        (*Handler).adminAutoLock,
		"schedule-add":    (*Handler).adminScheduleAdd,
		"schedule-remove": (*Handler).adminScheduleRemove,
		"shifts":          (*Handler).adminShifts,
		"messages":        (*Handler).adminMessages,
		"limit":           (*Handler).adminLimit,
		"timeout":         (*Handler).adminTimeout,
		"room":            (*Handler).adminRoom,
		"link":            (*Handler).adminLink,
		"waitingrole":     (*Handler).adminWaitingRole,
		"fixup":           (*Handler).adminFixup,
		"terminate":       (*Handler).adminTerminate,
		"closeroom":       (*Handler).adminCloseRoom,
	},
}

// HandleCommand routes a slash command to its subcommand handler. Every
// command answers ephemerally through a deferred response.
func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	subs, ok := commandRegistry[data.Name]
	if !ok || len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	handle, ok := subs[sub.Name]
	if !ok {
		return
	}

	userID, userName := invoker(i.Interaction)
	inv := &invocation{
		session:  s,
		i:        i.Interaction,
		guildID:  i.GuildID,
		userID:   userID,
		userName: userName,
		locale:   h.localeOf(i.Interaction),
		opts:     newOptions(sub.Options),
	}
	if inv.guildID == "" {
		respondEphemeral(s, i.Interaction, h.translator.T(inv.locale, "errors.workspace_not_found", nil))
		return
	}
	if err := deferEphemeral(s, i.Interaction); err != nil {
		log.Printf("❌ Deferring /%s %s failed: %v", data.Name, sub.Name, err)
		return
	}

	ctx := context.Background()
	r, err := handle(h, ctx, inv)
	if err != nil {
		log.Printf("⚠️ /%s %s (guild=%s, user=%s): %v", data.Name, sub.Name, inv.guildID, inv.userID, err)
		r = reply{content: pkgdiscord.ErrorMessage(h.translator, inv.locale, err)}
	}
	editResponse(s, i.Interaction, r)
}

func (h *Handler) localeOf(i *discordgo.Interaction) string {
	if i.Locale != "" {
		return string(i.Locale)
	}
	return h.locale
}

// options indexes the options of a subcommand by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(list []*discordgo.ApplicationCommandInteractionDataOption) options {
	out := make(options, len(list))
	for _, o := range list {
		out[o.Name] = o
	}
	return out
}

func (o options) has(name string) bool {
	_, ok := o[name]
	return ok
}

func (o options) stringValue(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o options) intValue(name string, fallback int) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return fallback
}

func (o options) boolValue(name string) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return false
}

func (o options) floatValue(name string) float64 {
	if opt, ok := o[name]; ok {
		return opt.FloatValue()
	}
	return 0
}

// id returns the snowflake of a user, role or channel option.
func (o options) id(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	if v, ok := opt.Value.(string); ok {
		return v
	}
	return fmt.Sprint(opt.Value)
}

var (
	adminPermissions int64 = discordgo.PermissionManageChannels
	coachPermissions int64 = discordgo.PermissionVoiceMoveMembers
)

func queueOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "queue", Description: description, Required: true}
}

func subcommand(name, description string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionSubCommand, Name: name, Description: description, Options: opts}
}

// commandDefinitions lists the slash commands registered at startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "queue",
			Description: "Wait for a coach",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("join", "Join a queue",
					queueOption("Queue to join"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "intent", Description: "What you need help with"}),
				subcommand("leave", "Leave a queue", queueOption("Queue to leave")),
				subcommand("position", "Show your position", queueOption("Queue")),
				subcommand("list", "Show who is waiting", queueOption("Queue")),
				subcommand("stay", "Keep your spot after leaving the waiting room"),
			},
		},
		{
			Name:                     "coach",
			Description:              "Coach sessions and rooms",
			DefaultMemberPermissions: &coachPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("start", "Start a coaching session",
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "queue", Description: "Queue you coach"}),
				subcommand("quit", "End your coaching session"),
				subcommand("next", "Pull the next members into a room",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "How many members", MinValue: floatPtr(1)}),
				subcommand("pick", "Pull a specific member into a room",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Member to pull", Required: true}),
				subcommand("boost", "Change how fast a waiting member moves up",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Waiting member", Required: true},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionNumber, Name: "importance", Description: "Wait time multiplier (default 1)", Required: true, MinValue: floatPtr(0)}),
			},
		},
		{
			Name:                     "queueadmin",
			Description:              "Manage queues",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Create a queue",
					queueOption("Queue name"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Description"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Text channel for notices", ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText}}),
				subcommand("delete", "Delete a queue", queueOption("Queue")),
				subcommand("lock", "Close a queue", queueOption("Queue")),
				subcommand("unlock", "Open a queue", queueOption("Queue")),
				subcommand("autolock", "Follow the opening times automatically",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: "enabled", Description: "On or off", Required: true}),
				subcommand("schedule-add", "Add an opening time",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "span", Description: "MONDAY 08:00 - WEDNESDAY 16:00", Required: true}),
				subcommand("schedule-remove", "Remove an opening time",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: "index", Description: "Index shown by /queue list", Required: true}),
				subcommand("shifts", "Default open/close shifts for new opening times",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "open", Description: "e.g. -15", Required: true},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "close", Description: "e.g. +10", Required: true}),
				subcommand("messages", "Join/leave message templates",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "join", Description: "e.g. {{.name}}: you are #{{.pos}}"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "leave", Description: "e.g. You waited {{.time_spent}}"}),
				subcommand("limit", "Cap the queue and set the average service time",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "0 = unlimited", Required: true},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "avg_service", Description: "e.g. 10 or 1h"}),
				subcommand("timeout", "Drop members who leave the waiting room",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "after", Description: "e.g. 5 (minutes), 0 = never", Required: true}),
				subcommand("room", "Configure spawned rooms",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "e.g. 🎧 {{.owner_name}}"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: "max_users", Description: "0 = unlimited"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Parent category", ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: "supervisor", Description: "Role that may join every room"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: "lock", Description: "Deny connect to everyone"},
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionBoolean, Name: "hide", Description: "Hide from everyone"}),
				subcommand("link", "Use a voice channel as waiting room",
					queueOption("Queue"),
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Voice channel", Required: true, ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}}),
				subcommand("waitingrole", "Role given to waiting members",
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true}),
				subcommand("fixup", "Resync the waiting role with the queues"),
				subcommand("terminate", "End every active coaching session"),
				subcommand("closeroom", "Close a spawned room",
					&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Room", Required: true, ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice}}),
			},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }
