package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"loyalty-service/internal/config"
	"loyalty-service/internal/database/postgres"
	"loyalty-service/internal/database/redis"
	"loyalty-service/internal/event"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/services"
	"loyalty-service/internal/worker"

	"github.com/joho/godotenv"
)

const schemaFile = "schema.sql"

func setupLogging(serviceName string) (*os.File, error) {
	logDir := filepath.Join("log", serviceName)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	out := io.MultiWriter(file, os.Stdout)
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return file, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	logFile, err := setupLogging("loyalty_worker")
	if err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg := config.New()

	loyaltyDB, err := postgres.Connect(cfg.LoyaltyCfg, schemaFile)
	if err != nil {
		slog.Error("loyalty store unreachable at startup, retrying", "error", err)
		postgres.RetryConnect(30*time.Second, &loyaltyDB, cfg.LoyaltyCfg, schemaFile)
	}
	billingDB, err := postgres.Connect(cfg.BillingCfg, "")
	if err != nil {
		slog.Error("billing store unreachable at startup, retrying", "error", err)
		postgres.RetryConnect(30*time.Second, &billingDB, cfg.BillingCfg, "")
	}

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	var publisher *event.Publisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("rabbitmq unreachable, event mirroring disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		publisher = event.NewPublisher(rabbitConn)
	}

	couponRepo := repository.NewCouponRepository(loyaltyDB)
	settingsRepo := repository.NewSettingsRepository(loyaltyDB)
	blacklistRepo := repository.NewBlacklistRepository(loyaltyDB)
	notificationRepo := repository.NewNotificationRepository(loyaltyDB)
	dashboardRepo := repository.NewDashboardRepository(loyaltyDB)
	billingRepo := repository.NewBillingRepository(billingDB)

	// The worker pushes over RabbitMQ only; websocket clients connect to
	// the api process.
	broadcaster := &services.Broadcaster{Publisher: publisher}
	settingsService := services.NewSettingsService(settingsRepo)
	tierService := services.NewTierService(couponRepo)
	dashboardService := services.NewDashboardService(dashboardRepo, redisClient.GetClient(), broadcaster)
	conversionService := services.NewConversionService(settingsService, tierService, couponRepo, notificationRepo, blacklistRepo, repository.NewPromotionRepository(loyaltyDB), billingRepo, dashboardService, broadcaster)
	syncService := services.NewSyncService(billingRepo, couponRepo, notificationRepo, dashboardService)
	auditService := services.NewAuditService(billingRepo, blacklistRepo, notificationRepo, settingsService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.New(settingsService, conversionService, syncService, auditService, dashboardService).Run(ctx)
}
