// Package main - точка входа фоновых процессов (Worker) LuckCash.
//
// Worker отвечает за периодические задачи:
// - Пересборка рейтингов из профилей
// - Обслуживание серий активных дней (сброс прерванных)
// - Сброс ежедневных миссий в полночь UTC
// - Свод дневной статистики из Redis в PostgreSQL
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Infrastructure layer
	"github.com/luckcash/luckcash-server/internal/infrastructure/messaging"
	"github.com/luckcash/luckcash-server/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/luckcash/luckcash-server/internal/infrastructure/persistence/redis"
	"github.com/luckcash/luckcash-server/internal/infrastructure/scheduler"
	"github.com/luckcash/luckcash-server/internal/infrastructure/scheduler/jobs"

	// Packages
	"github.com/luckcash/luckcash-server/config"
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
	if !cfg.Scheduler.Enabled {
		return errors.New("scheduler is disabled, nothing to do (set SCHEDULER_ENABLED=true)")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting LuckCash worker",
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

	// База может подниматься параллельно с воркером
	if err := retry.DatabaseRetrier().Do(ctx, dbConn.Ping); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПОДКЛЮЧЕНИЕ К REDIS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Disabled {
		return errors.New("redis is required for the worker (leaderboards, stats rollup)")
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

	leaderboardStore := redisinfra.NewLeaderboardStore(redisCache)
	statsAccumulator := redisinfra.NewStatsAccumulator(redisCache)
	activityTracker := redisinfra.NewActivityTracker(redisCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)
	missionRepo := postgres.NewMissionRepository(dbConn)
	progressionRepo := postgres.NewProgressionRepository(dbConn)

	// Задачи публикуют события (StreakBroken, StatsRolledUp,
	// DailyMissionsReset). Подписчиков в самом воркере нет: с
	// включённым REDIS_EVENT_BUS события уходят через Pub/Sub в API
	// процесс, иначе локальная шина просто логирует их для аудита.
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log

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
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. СОЗДАНИЕ И РЕГИСТРАЦИЯ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(schedCfg)

	rebuildJob := jobs.NewRebuildLeaderboardsJob(
		profileRepo, leaderboardStore, eventBus, log,
		jobs.DefaultRebuildLeaderboardsConfig())
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardsInterval)); err != nil {
		return fmt.Errorf("failed to register rebuild_leaderboards: %w", err)
	}

	streaksSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.MaintainStreaksCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_STREAKS_CRON: %w", err)
	}
	streaksJob := jobs.NewMaintainStreaksJob(
		profileRepo, eventBus, log,
		jobs.DefaultMaintainStreaksConfig())
	if err := sched.Register(streaksJob, streaksSchedule); err != nil {
		return fmt.Errorf("failed to register maintain_streaks: %w", err)
	}

	missionsSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.ResetDailyMissionsCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_MISSIONS_CRON: %w", err)
	}
	missionsJob := jobs.NewResetDailyMissionsJob(
		missionRepo, redisCache, eventBus, log,
		redisinfra.PrefixMissions+"*")
	if err := sched.Register(missionsJob, missionsSchedule); err != nil {
		return fmt.Errorf("failed to register reset_daily_missions: %w", err)
	}

	rollupSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.RollupDailyStatsCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_ROLLUP_CRON: %w", err)
	}
	rollupJob := jobs.NewRollupDailyStatsJob(
		profileRepo, progressionRepo, statsAccumulator, activityTracker, eventBus, log,
		jobs.DefaultRollupDailyStatsConfig())
	if err := sched.Register(rollupJob, rollupSchedule); err != nil {
		return fmt.Errorf("failed to register rollup_daily_stats: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("LuckCash worker is running",
		"jobs", 4,
		"timezone", cfg.App.Timezone,
	)

	// Ожидаем сигнал завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

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
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
