package main

import (
	"becky-backend/config"
	"becky-backend/database"
	"becky-backend/handlers"
	"becky-backend/logger"
	"becky-backend/router"
	"becky-backend/services"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
)

func main() {
	// Load configuration
	config.Load()
	logger.InitLogger(config.AppConfig.LogLevel)

	// Connect to database
	if err := database.Connect(); err != nil {
		logger.L.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	notifications := services.GetNotificationService()
	if err := notifications.InitPush(context.Background(), config.AppConfig.FirebaseCredPath); err != nil {
		logger.L.Warn("push notifications disabled", "error", err)
	}

	if config.AppConfig.OpenAIAPIKey != "" {
		handlers.ChatModel = openai.NewClient(config.AppConfig.OpenAIAPIKey)
	} else {
		logger.L.Warn("OPENAI_API_KEY not set, chat disabled")
	}

	var scheduler *services.Scheduler
	if config.AppConfig.SchedulerEnabled {
		loc, err := time.LoadLocation(config.AppConfig.ReportTimezone)
		if err != nil {
			logger.L.Warn("unknown report timezone, using UTC", "timezone", config.AppConfig.ReportTimezone, "error", err)
			loc = time.UTC
		}
		reports := services.NewReportService(database.DB, notifications.Mailer()).WithDebtAlerter(notifications)
		scheduler = services.NewScheduler(database.DB, reports, database.Redis, loc)
		if err := scheduler.Start(); err != nil {
			logger.L.Error("report scheduler failed to start", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + config.AppConfig.Port,
		Handler:           router.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L.Info("server starting", "app", config.AppConfig.AppName, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L.Error("forced shutdown", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if database.Redis != nil {
		database.Redis.Close()
	}
}
