package discord

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"coachbot/internal/application"
	"coachbot/internal/config"
	"coachbot/internal/ports/output"
)

// Deps are the output adapters the bot is wired with.
type Deps struct {
	Workspaces output.WorkspaceRepository
	Rooms      output.RoomRepository
	Sessions   output.SessionRepository
	Publisher  output.EventPublisher
	Translator output.T
	Logger     *slog.Logger
	Location   *time.Location
}

// Bot is the Discord adapter.
type Bot struct {
	session *discordgo.Session
	config  *config.Config
	handler *Handler
	guard   *GuardRunner
	timers  *application.DisconnectTimers
}

// NewBot creates a Bot and wires ports: output adapters -> application (use cases) -> handler.
func NewBot(cfg *config.Config, deps Deps) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsGuildMembers

	gateway := NewGateway(s)
	env := application.Env{Logger: deps.Logger, Location: deps.Location, Locale: cfg.DefaultLocale}
	locks := application.NewKeyedMutex()
	timers := application.NewDisconnectTimers()

	queues := application.NewQueueService(deps.Workspaces, gateway, deps.Translator, deps.Publisher, timers, locks, env)
	rooms := application.NewRoomService(deps.Rooms, deps.Workspaces, gateway, deps.Publisher, locks, env)
	sessions := application.NewSessionService(deps.Sessions, deps.Rooms, deps.Workspaces, locks, env)
	spawner := application.NewRoomSpawner(gateway, deps.Rooms, deps.Translator, env)
	coach := application.NewCoachService(deps.Workspaces, spawner, rooms, sessions, gateway, deps.Translator, deps.Publisher, timers, locks, env)
	guard := application.NewSchedulerGuard(deps.Workspaces, gateway, deps.Translator, deps.Publisher, locks, env)

	runner, err := NewGuardRunner(guard, cfg.GuardSchedule)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		session: s,
		config:  cfg,
		handler: NewHandler(queues, coach, rooms, sessions, deps.Translator, cfg.DefaultLocale, deps.Location),
		guard:   runner,
		timers:  timers,
	}
	bot.setupHandlers()
	return bot, nil
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handler.HandleGuildCreate)
	b.session.AddHandler(b.handler.HandleVoiceStateUpdate)
	b.session.AddHandler(b.handler.HandleChannelUpdate)
	b.session.AddHandler(b.handler.HandleChannelDelete)
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type == discordgo.InteractionApplicationCommand {
		b.handler.HandleCommand(s, i)
	}
}

// Start runs the bot until interrupted.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commandDefinitions()); err != nil {
		log.Printf("⚠️ Command registration failed: %v", err)
	}

	b.guard.RunOnce()
	b.guard.Start()
	defer b.guard.Stop()
	defer b.timers.Stop()

	log.Println("🤖 Bot online! Press CTRL+C to quit.")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("👋 Shutting down.")
	return nil
}
