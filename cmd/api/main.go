// Package main - точка входа REST API сервера LuckCash.
//
// LuckCash учит финансовой грамотности через игру: уроки с квизами,
// ежедневные миссии, монеты и опыт, серии активных дней, достижения,
// магазин наград и рейтинги.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: реализация репозиториев, кеши, шина событий
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/luckcash/luckcash-server/internal/application/command"
	"github.com/luckcash/luckcash-server/internal/application/eventhandler"
	"github.com/luckcash/luckcash-server/internal/application/query"
	"github.com/luckcash/luckcash-server/internal/application/saga"

	// Domain layer
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"

	// Infrastructure layer
	"github.com/luckcash/luckcash-server/internal/infrastructure/auth"
	"github.com/luckcash/luckcash-server/internal/infrastructure/messaging"
	"github.com/luckcash/luckcash-server/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/luckcash/luckcash-server/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/luckcash/luckcash-server/internal/interface/http"
	"github.com/luckcash/luckcash-server/internal/interface/http/handlers"

	// Packages
	"github.com/luckcash/luckcash-server/config"
	"github.com/luckcash/luckcash-server/pkg/logger"
	"github.com/luckcash/luckcash-server/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting LuckCash API server",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение; база может подниматься параллельно с нами
	if err := retry.DatabaseRetrier().Do(ctx, dbConn.Ping); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПОДКЛЮЧЕНИЕ К REDIS
	// Рейтинги и дневная статистика живут в Redis, поэтому для API
	// сервера это обязательная зависимость.
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Disabled {
		return errors.New("redis is required for the API server (leaderboards, stats)")
	}

	log.Info("connecting to Redis...")
	redisCfg := redisinfra.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	redisCache, err := redisinfra.NewCache(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()
	log.Info("Redis connection established")

	profileCache := redisinfra.NewProfileCache(redisCache)
	leaderboardStore := redisinfra.NewLeaderboardStore(redisCache)
	statsAccumulator := redisinfra.NewStatsAccumulator(redisCache)
	activityTracker := redisinfra.NewActivityTracker(redisCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)
	lessonRepo := postgres.NewLessonRepository(dbConn)
	missionRepo := postgres.NewMissionRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	storeItemRepo := postgres.NewStoreItemRepository(dbConn)
	progressionRepo := postgres.NewProgressionRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true

	// С включённым REDIS_EVENT_BUS события расходятся между
	// процессами (API и воркером) через Redis Pub/Sub.
	var eventBus messaging.EventBus
	if cfg.Redis.EventBusEnabled {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			ChannelName:    cfg.Redis.EventBusChannel,
			LocalBusConfig: eventBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = redisBus
	} else {
		eventBus = messaging.NewInMemoryEventBus(eventBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	ledger := progression.NewLedger(profile.CalendarDayPolicy{})

	// Commands (write side)
	advanceLessonCmd := command.NewAdvanceLessonHandler(
		profileRepo, lessonRepo, progressionRepo, ledger, profileCache, eventBus)
	completeLessonCmd := command.NewCompleteLessonHandler(
		profileRepo, lessonRepo, progressionRepo, ledger, profileCache, eventBus)
	claimMissionCmd := command.NewClaimMissionHandler(
		profileRepo, missionRepo, progressionRepo, ledger, profileCache, eventBus)
	purchaseItemCmd := command.NewPurchaseItemHandler(
		profileRepo, storeItemRepo, progressionRepo, ledger, profileCache, eventBus)
	redeemPurchaseCmd := command.NewRedeemPurchaseHandler(progressionRepo)
	updateProfileCmd := command.NewUpdateProfileHandler(profileRepo, profileCache)
	selectPlanCmd := command.NewSelectPlanHandler(profileRepo, profileCache, eventBus)

	// Queries (read side)
	profileOverviewQuery := query.NewGetProfileOverviewHandler(
		profileRepo, profileCache, progressionRepo, leaderboardStore)
	listLessonsQuery := query.NewListLessonsHandler(lessonRepo, profileRepo, progressionRepo)
	getLessonQuery := query.NewGetLessonHandler(lessonRepo, profileRepo, progressionRepo)
	dailyMissionsQuery := query.NewGetDailyMissionsHandler(missionRepo, progressionRepo)
	listStoreQuery := query.NewListStoreHandler(storeItemRepo, profileRepo)
	listPurchasesQuery := query.NewListPurchasesHandler(progressionRepo, storeItemRepo)
	listAchievementsQuery := query.NewListAchievementsHandler(achievementRepo, progressionRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardStore)
	statsHistoryQuery := query.NewGetStatsHistoryHandler(progressionRepo)
	listProfilesQuery := query.NewListProfilesHandler(profileRepo)

	// Sagas
	achievementFlow := saga.NewAchievementFlowSaga(
		profileRepo, progressionRepo, achievementRepo, profileCache, eventBus,
		saga.DefaultAchievementFlowConfig())
	onboardingSaga := saga.NewOnboardingSaga(
		profileRepo, profileCache, leaderboardStore, eventBus,
		saga.DefaultOnboardingConfig())

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	missionProgressHandler := eventhandler.NewOnMissionProgressHandler(
		missionRepo, progressionRepo, log, eventhandler.DefaultMissionProgressConfig())
	scoreChangedHandler := eventhandler.NewOnScoreChangedHandler(
		profileRepo, leaderboardStore, log, eventhandler.DefaultScoreChangedConfig())
	achievementTriggerHandler := eventhandler.NewOnAchievementTriggerHandler(
		achievementFlow, log)
	dailyStatsHandler := eventhandler.NewOnDailyStatsHandler(
		statsAccumulator, activityTracker, log)

	// Все обработчики проходят через диспетчер: он даёт ретраи с
	// backoff, dead letter queue и единые middleware вместо голых
	// подписок на шину.
	dispatcherCfg := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherCfg.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))
	dispatcher.Use(messaging.MetricsMiddleware(dispatcher.Metrics()))

	registrations := []struct {
		name    string
		types   []shared.EventType
		handler shared.EventHandler
	}{
		{"mission_progress", missionProgressHandler.EventTypes(), missionProgressHandler.Handle},
		{"score_changed", scoreChangedHandler.EventTypes(), scoreChangedHandler.Handle},
		{"achievement_trigger", achievementTriggerHandler.EventTypes(), achievementTriggerHandler.Handle},
		{"daily_stats", dailyStatsHandler.EventTypes(), dailyStatsHandler.Handle},
	}
	for _, reg := range registrations {
		for _, t := range reg.types {
			// Шина уже доставляет события асинхронно, поэтому внутри
			// диспетчера обработчики выполняются последовательно.
			if err := dispatcher.RegisterSync(t, reg.name, reg.handler); err != nil {
				return fmt.Errorf("failed to register %s handler: %w", reg.name, err)
			}
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping event dispatcher...")
		_ = dispatcher.Stop()
	}()
	log.Info("event handlers registered", "handlers", len(registrations))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ИНИЦИАЛИЗАЦИЯ АУТЕНТИФИКАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing auth...")
	tokenManager, err := auth.NewTokenManager(auth.TokenManagerParams{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	authService := auth.NewService(auth.ServiceParams{
		Profiles: profileRepo,
		Hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:   tokenManager,
		Cache:    redisCache,
		Logger:   logger.Default(),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	healthChecker.AddCheck("redis", handlers.NewCacheCheck(redisCache))

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeys = cfg.HTTP.APIKeys

	httpDeps := httpserver.Dependencies{
		Auth:   authService,
		Tokens: tokenManager,

		AdvanceLessonHandler:  advanceLessonCmd,
		CompleteLessonHandler: completeLessonCmd,
		ClaimMissionHandler:   claimMissionCmd,
		PurchaseItemHandler:   purchaseItemCmd,
		RedeemPurchaseHandler: redeemPurchaseCmd,
		UpdateProfileHandler:  updateProfileCmd,
		SelectPlanHandler:     selectPlanCmd,

		GetProfileOverviewHandler: profileOverviewQuery,
		ListLessonsHandler:        listLessonsQuery,
		GetLessonHandler:          getLessonQuery,
		GetDailyMissionsHandler:   dailyMissionsQuery,
		ListStoreHandler:          listStoreQuery,
		ListPurchasesHandler:      listPurchasesQuery,
		ListAchievementsHandler:   listAchievementsQuery,
		GetLeaderboardHandler:     leaderboardQuery,
		GetStatsHistoryHandler:    statsHistoryQuery,
		ListProfilesHandler:       listProfilesQuery,

		Onboarding:    onboardingSaga,
		Logger:        logger.Default(),
		HealthChecker: healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("LuckCash API server is running", "address", httpServer.Address())

	// Ожидаем сигнал завершения или ошибку
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus и соединения закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.Observability.LogFormat == "json" {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
