package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/BartuV/telsiz/internal/api/http"
	"github.com/BartuV/telsiz/internal/api/http/handlers"
	"github.com/BartuV/telsiz/internal/auth"
	"github.com/BartuV/telsiz/internal/bot"
	"github.com/BartuV/telsiz/internal/config"
	"github.com/BartuV/telsiz/internal/events"
	"github.com/BartuV/telsiz/internal/identity"
	"github.com/BartuV/telsiz/internal/observability"
	"github.com/BartuV/telsiz/internal/persistence"
	"github.com/BartuV/telsiz/internal/repository"
	"github.com/BartuV/telsiz/internal/service"
	"github.com/BartuV/telsiz/internal/store"
	"github.com/BartuV/telsiz/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		credRepo    repository.CredentialRepository
		sessionRepo repository.SessionRepository
		channelRepo repository.ChannelRepository
		cache       store.Cache
		pingers     map[string]handlers.Pinger
	)

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		sq, err := persistence.NewSQLite(cfg.SQLite, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer sq.Close()

		pool := sq.PoolHandle()
		credRepo = repository.NewSQLiteCredentialRepository(pool)
		sessionRepo = repository.NewSQLiteSessionRepository(pool)
		channelRepo = repository.NewSQLiteChannelRepository(pool)
		cache = store.NewMemoryCache()
		pingers = map[string]handlers.Pinger{"sqlite": sq}

	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}

		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()

		pool := pg.PoolHandle()
		credRepo = repository.NewCredentialRepository(pool)
		sessionRepo = repository.NewSessionRepository(pool)
		channelRepo = repository.NewChannelRepository(pool)
		cache = store.NewRedisCache(redis)
		pingers = map[string]handlers.Pinger{"postgres": pg, "redis": redis}
	}

	credStore := store.NewCredentialStore(credRepo, cache, logger)
	sessionStore := store.NewSessionStore(sessionRepo, cache, logger)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	tokenService := service.NewTokenService(service.TokenServiceDeps{
		Credentials: credStore,
		Sessions:    sessionStore,
		Tokens:      auth.NewTokenManager(cfg.Auth.SessionTTL()),
		BcryptCost:  cfg.Auth.BcryptCost,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	bloxlink := identity.NewBloxlinkClient(cfg.Bloxlink.BaseURL, cfg.Bloxlink.Timeout(), logger)
	resolver := identity.NewResolver(credStore, bloxlink, dispatcher, logger)
	gateway := service.NewAuthorizationGateway(tokenService, resolver, logger)

	var platform service.ChatPlatform = bot.Disabled{}
	if cfg.Discord.Token != "" {
		discordBot, err := bot.New(cfg.Discord, tokenService, channelRepo, logger)
		if err != nil {
			logger.Fatal("failed to build discord bot", zap.Error(err))
		}
		if err := discordBot.Start(); err != nil {
			logger.Fatal("failed to connect discord gateway", zap.Error(err))
		}
		defer discordBot.Stop() //nolint:errcheck
		platform = discordBot
	} else {
		logger.Warn("DISCORD_TOKEN not set; gateway actions will answer 503")
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers),
		Auth:     handlers.NewAuthHandler(tokenService),
		Actions:  handlers.NewActionsHandler(gateway, platform),
		Channels: handlers.NewChannelsHandler(gateway, channelRepo),
	})

	go func() {
		logger.Info("web server alive", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
