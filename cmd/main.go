package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/database/minio"
	"adjudication-service/internal/database/postgres"
	redisdb "adjudication-service/internal/database/redis"
	"adjudication-service/internal/event"
	"adjudication-service/internal/handlers"
	"adjudication-service/internal/providers"
	"adjudication-service/internal/repository"
	"adjudication-service/internal/services"
	"adjudication-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/agrisa", "log", "adjudication_service")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, file), nil)
	slog.SetDefault(slog.New(handler))
	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		fmt.Printf("Failed to set up file logging, using stdout only: %v\n", err)
	} else {
		defer logFile.Close()
	}

	cfg := config.New()

	slog.Info("Connecting to PostgreSQL",
		"host", cfg.PostgresCfg.Host,
		"port", cfg.PostgresCfg.Port,
		"dbname", cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("error connect to database", "error", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	redisClient, err := redisdb.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	var publisher services.StagePublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("Failed to connect to RabbitMQ, case events disabled", "error", err)
		publisher = event.NopPublisher{}
	} else {
		defer rabbitConn.Close()
		publisher = event.NewCasePublisher(rabbitConn)
	}

	// Repositories
	claimRepo := repository.NewClaimRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)

	// Providers
	satelliteClient := providers.NewSatelliteClient(cfg.ProviderCfg)
	ocrClient := providers.NewOCRClient(cfg.ProviderCfg)

	// Pipeline services
	gate := services.NewEligibilityGate(policyRepo, propertyRepo, cfg.Rules)
	collector := services.NewEvidenceCollector(satelliteClient, ocrClient, minioClient, cfg.ProviderCfg)
	scorer := services.NewScoringEngine(cfg.Rules)
	sentinel := services.NewFraudSentinel(cfg.Rules)
	classifier := services.NewDecisionClassifier(cfg.Rules)
	payout := services.NewPayoutCalculator(cfg.Rules.PayoutFactor)
	locker := services.NewRedisCaseLocker(redisClient.GetClient(), cfg.WorkerCfg.CaseLockTTL)
	statsService := services.NewStatsService(claimRepo, verificationRepo)

	pool := worker.NewWorkingPool(cfg.WorkerCfg.MaxInFlightCases, cfg.WorkerCfg.QueueSize)

	orchestrator := services.NewAdjudicationOrchestrator(
		gate, collector, scorer, sentinel, classifier, payout,
		claimRepo, verificationRepo, policyRepo, propertyRepo, propertyRepo,
		locker, publisher, pool, cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	app := fiber.New(fiber.Config{
		BodyLimit: 12 << 20,
	})

	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Adjudication service is healthy")
	})

	handlers.NewClaimHandler(orchestrator).Register(app)
	handlers.NewVerificationHandler(orchestrator, minioClient).Register(app)
	handlers.NewDashboardHandler(statsService).Register(app)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("Adjudication service listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("Fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down adjudication service")

	if err := app.Shutdown(); err != nil {
		slog.Error("Failed to shut down Fiber server", "error", err)
	}
	managerWg.Wait()
	slog.Info("Adjudication service stopped")
}
