package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"loyalty-service/internal/config"
	"loyalty-service/internal/database/postgres"
	"loyalty-service/internal/database/redis"
	"loyalty-service/internal/event"
	"loyalty-service/internal/handlers"
	"loyalty-service/internal/hub"
	"loyalty-service/internal/printer"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
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

	logFile, err := setupLogging("loyalty_api")
	if err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg := config.New()

	// Repositories hold the *sqlx.DB they are given, so both stores must be
	// up before anything is wired. Block until they are.
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

	wsHub := hub.NewHub()
	go wsHub.Run()

	// Repositories
	couponRepo := repository.NewCouponRepository(loyaltyDB)
	customerRepo := repository.NewCustomerRepository(loyaltyDB)
	settingsRepo := repository.NewSettingsRepository(loyaltyDB)
	blacklistRepo := repository.NewBlacklistRepository(loyaltyDB)
	notificationRepo := repository.NewNotificationRepository(loyaltyDB)
	dashboardRepo := repository.NewDashboardRepository(loyaltyDB)
	billingRepo := repository.NewBillingRepository(billingDB)

	// Services
	broadcaster := &services.Broadcaster{Hub: wsHub, Publisher: publisher}
	settingsService := services.NewSettingsService(settingsRepo)
	tierService := services.NewTierService(couponRepo)
	dashboardService := services.NewDashboardService(dashboardRepo, redisClient.GetClient(), broadcaster)

	var receiptPrinter printer.Printer = printer.PreviewPrinter{}
	if cfg.PrinterCfg.Host != "" {
		receiptPrinter = printer.NewNetworkPrinter(cfg.PrinterCfg.Host, cfg.PrinterCfg.Port)
	}

	redemptionService := services.NewRedemptionService(couponRepo, customerRepo, blacklistRepo, billingRepo, settingsService, dashboardService, receiptPrinter)
	voidService := services.NewVoidService(couponRepo, tierService, settingsService, dashboardService)
	adminService := services.NewCouponAdminService(couponRepo, customerRepo, notificationRepo, settingsService, dashboardService)

	router := gin.Default()
	handlers.NewCustomerHandler(customerRepo, couponRepo, tierService, settingsService, redemptionService).RegisterRoutes(router)
	handlers.NewCouponHandler(voidService, adminService).RegisterRoutes(router)
	handlers.NewDashboardHandler(dashboardService, notificationRepo, wsHub).RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("loyalty api listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("loyalty api stopped")
}
