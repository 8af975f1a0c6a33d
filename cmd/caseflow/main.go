// Точка входа Caseflow — backend интейк-пайплайна personal injury дел.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт клиентов внешних систем (хранилище, docassemble, DocuSign, Redis),
// собирает сервисный слой и API handlers, запускает планировщик ночного
// sweep, мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"caseflow/internal/api/handlers"
	"caseflow/internal/api/middleware"
	"caseflow/internal/config"
	"caseflow/internal/database"
	"caseflow/internal/docassemble"
	"caseflow/internal/docusign"
	"caseflow/internal/events"
	"caseflow/internal/repository"
	"caseflow/internal/server"
	"caseflow/internal/service"
	"caseflow/internal/storageclient"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Caseflow запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("CF_DEPHEALTH_GROUP") == "" {
		logger.Warn("CF_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиенты внешних систем
	storage := storageclient.New(
		cfg.StorageURL,
		cfg.StorageKey,
		cfg.StorageBucket,
		cfg.StorageTimeout,
		cfg.StorageCacheSize,
		cfg.StorageCacheTTL,
		logger,
	)
	daClient := docassemble.New(cfg.DocassembleURL, cfg.DocassembleAPIKey, cfg.DocassembleTimeout, logger)
	dsClient := docusign.New(
		cfg.DocusignBaseURL,
		cfg.DocusignAccountID,
		cfg.DocusignClientID,
		cfg.DocusignClientSecret,
		cfg.DocusignTimeout,
		logger,
	)
	eventSink := events.New(cfg.RedisAddr, cfg.RedisPassword, cfg.EventsChannel, logger)
	defer eventSink.Close()

	// 6. Repositories
	caseRepo := repository.NewCaseRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	adjRepo := repository.NewFeeAdjustmentRepository(pool)
	disbStore := repository.NewDisbursementStore(pool)

	// 7. Services
	splitSvc := service.NewSplitService(caseRepo, adjRepo, logger)
	readinessSvc := service.NewReadinessService(docRepo, logger)
	demandSvc := service.NewDemandService(caseRepo, docRepo, readinessSvc, storage, logger)
	disbursementSvc := service.NewDisbursementService(
		caseRepo, disbStore, splitSvc,
		daClient, dsClient, eventSink,
		cfg.DisbursementRetries, cfg.DisbursementRetryDelay,
		logger,
	)

	// 8. Планировщик ночного sweep
	scheduler, err := service.NewScheduler(demandSvc, cfg.DemandSweepSchedule, logger)
	if err != nil {
		logger.Error("Ошибка создания планировщика", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 9. Readiness checker и handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		splitSvc,
		readinessSvc,
		demandSvc,
		disbursementSvc,
		logger,
	)

	// 10. JWT middleware (опционально: без CF_JWT_JWKS_URL auth выключен)
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTJWKSURL != "" {
		jwtAuth, err = middleware.NewJWTAuth(cfg.JWTJWKSURL, cfg.JWKSRefreshInterval, cfg.JWTLeeway, logger)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT middleware инициализирован", slog.String("jwks_url", cfg.JWTJWKSURL))
	} else {
		logger.Warn("CF_JWT_JWKS_URL не задан — API работает без аутентификации")
	}

	// 11. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"caseflow",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.StorageURL,
		cfg.DocassembleURL,
		cfg.DocusignBaseURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			defer dephealthSvc.Stop()
		}
	}

	// 12. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
