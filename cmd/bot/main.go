package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"coachbot/internal/adapters/discord"
	"coachbot/internal/config"
	"coachbot/internal/infrastructure/database"
	"coachbot/internal/infrastructure/events"
	"coachbot/internal/infrastructure/i18n"
	"coachbot/internal/ports/output"
	"coachbot/pkg/tz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database initialisation failed: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migrations failed: %v", err)
	}

	var publisher output.EventPublisher = events.NoopPublisher{}
	if cfg.RedisURL != "" {
		rdb, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Redis initialisation failed: %v", err)
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, cfg.EventStream)
	}

	bot, err := discord.NewBot(cfg, discord.Deps{
		Workspaces: database.NewWorkspaceRepository(pool),
		Rooms:      database.NewRoomRepository(pool),
		Sessions:   database.NewSessionRepository(pool),
		Publisher:  publisher,
		Translator: i18n.NewTranslator(cfg.DefaultLocale),
		Logger:     logger,
		Location:   tz.MustLoad(cfg.Timezone),
	})
	if err != nil {
		log.Fatalf("❌ Bot setup failed: %v", err)
	}
	if err := bot.Start(); err != nil {
		log.Printf("❌ Bot failed: %v", err)
		os.Exit(1)
	}
}
