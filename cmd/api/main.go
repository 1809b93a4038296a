package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/match-service/internal/api/http"
	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/observability"
	"github.com/spec-kit/match-service/internal/persistence"
	"github.com/spec-kit/match-service/internal/repository"
	"github.com/spec-kit/match-service/internal/service"
	"github.com/spec-kit/match-service/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	roomRepo := repository.NewChatRoomRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	dealRepo := repository.NewDealRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger)
	notifications.Register(dispatcher)

	chatRoomService := service.NewChatRoomService(service.ChatRoomDependencies{
		RoomRepo:    roomRepo,
		MessageRepo: messageRepo,
		MatchRepo:   matchRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	matchService := service.NewMatchService(service.MatchDependencies{
		MatchRepo:  matchRepo,
		UserRepo:   userRepo,
		ChatRooms:  chatRoomService,
		Dispatcher: dispatcher,
	})
	dealService := service.NewDealService(service.DealDependencies{
		DealRepo:   dealRepo,
		MatchRepo:  matchRepo,
		Dispatcher: dispatcher,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo:  statsRepo,
		Redis:      redis.Client,
		Config:     cfg.Stats,
		Logger:     logger,
		Dispatcher: dispatcher,
	})
	compatibilityService := service.NewCompatibilityService(
		userRepo,
		service.NewHTTPScorer(cfg.Scorer),
		cfg.Scorer,
		logger,
	)
	userService := service.NewUserService(userRepo, matchService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	metrics := observability.NewMetrics()
	for _, eventType := range []events.EventType{
		events.EventMatchConfirmed,
		events.EventDealStatusChanged,
		events.EventStatsRefreshed,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			metrics.RecordFlowEvent(string(event.Type))
			return nil
		})
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Matches:        handlers.NewMatchesHandler(matchService, compatibilityService),
		ChatRooms:      handlers.NewChatRoomsHandler(chatRoomService),
		Deals:          handlers.NewDealsHandler(dealService),
		Users:          handlers.NewUsersHandler(userService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	refresher := worker.NewStatsRefresher(statsService, cfg.Stats.RefreshInterval(), logger)
	refresher.Start(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	refresher.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
