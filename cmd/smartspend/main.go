package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smartspend/internal/amqp"
	"smartspend/internal/auth"
	"smartspend/internal/config"
	"smartspend/internal/core"
	apphttp "smartspend/internal/http"
	"smartspend/internal/log"
	"smartspend/internal/mail"
	"smartspend/internal/otp"
	"smartspend/internal/services"
	"smartspend/internal/storage"
	"smartspend/internal/token"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.DefaultConfig())
	slog.SetDefault(logger.Logger)

	logger.Info("Starting smartspend")

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite store (runs migrations on open)
	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize AMQP publisher for budget alerts. The broker is
	// optional for the API: alerts are still persisted without it.
	var publisher core.AlertPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, alerts will not be pushed", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.JWTTTL, logger)
	issuer := otp.NewIssuer(cfg.OTPTTL())
	mailer := mail.NewLogSender(logger, cfg.EmailSender)

	authSvc := auth.NewService(store.Users, issuer, mailer, tokens, cfg.OTPAutoVerify, logger)
	notifications := services.NewNotificationService(store.Notifications, publisher, logger)
	monitor := services.NewBudgetMonitor(store.Budgets, store.Expenses, notifications, logger)
	expenses := services.NewExpenseService(store.Expenses, monitor, logger)
	budgets := services.NewBudgetService(store.Budgets, logger)
	reports := services.NewReportService(store.Expenses, store.Budgets, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:       ":" + cfg.Port,
		TrustProxy: cfg.TrustProxy,
	}, authSvc, tokens, expenses, budgets, notifications, reports, store, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting smartspend server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
