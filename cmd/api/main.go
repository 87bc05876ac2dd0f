// Entry point for REST API
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clockwise.service/internal/api"
	"clockwise.service/internal/classifier"
	"clockwise.service/internal/config"
	"clockwise.service/internal/core"
	"clockwise.service/internal/ports/messaging"
	"clockwise.service/internal/ports/repository"
	"clockwise.service/pkg/aws"
	"clockwise.service/pkg/database"
	"clockwise.service/pkg/logger"
	"clockwise.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	ctx := context.Background()

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Options{
		ServiceName: "clockwise-api",
		Endpoint:    cfg.OTLPEndpoint,
		Stdout:      cfg.IsLocalDev,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer pool.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	cls, err := newClassifier(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create anomaly classifier")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	employees := repository.NewEmployeeRepository(pool)
	logs := repository.NewClockingLogRepository(pool)
	producer := messaging.NewSQSProducer(sqsClient, cfg.LogEventsQueueURL)

	recorder := core.NewRecorder(employees, cls,
		core.WithLocation(cfg.Location()),
		core.WithClassifierTimeout(cfg.ClassifierTimeout),
	)
	clockingService := core.NewClockingService(recorder, logs, employees, producer)
	employeeService := core.NewEmployeeService(employees)

	// Setup router and server
	handler := api.NewHandler(api.Dependencies{
		Clocking:  clockingService,
		Employees: employeeService,
		DB:        pool,
	})

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("classifier", cfg.ClassifierBackend).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

func newClassifier(ctx context.Context, cfg config.Config) (core.Classifier, error) {
	switch cfg.ClassifierBackend {
	case config.ClassifierGemini:
		client, err := classifier.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return classifier.NewGeminiClassifier(client.Models, cfg.GeminiModel, cfg.Location()), nil
	default:
		policy := classifier.DefaultPolicy()
		policy.Location = cfg.Location()
		return classifier.NewRuleClassifier(policy), nil
	}
}
