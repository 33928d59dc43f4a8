package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HelmetGuard/internal/config"
	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/log"
	"HelmetGuard/pkg/metrics"
	"HelmetGuard/pkg/redis"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.NewLogger().Fatalf("Error loading .env file: %v", err)
	}
	logger := log.NewLogger()

	validator := config.NewValidator()
	appConfig, err := config.LoadAppConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger, appConfig)
	resultStore := redis.New(redis.Config{
		Address:  appConfig.RedisAddress,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
		TTL:      appConfig.ResultTTL,
	}, logger)
	detectorClient := detector.New(detector.Config{
		BaseURL: appConfig.BackendAPIURL,
		Timeout: appConfig.BackendTimeout,
	}, logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithConfig(appConfig),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithContent(appConfig.ContentFile),
		config.WithDetector(detectorClient),
		config.WithResultStore(resultStore),
		config.WithMetrics(metrics.New()),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
