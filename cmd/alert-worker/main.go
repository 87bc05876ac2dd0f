package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clockwise.service/internal/config"
	"clockwise.service/internal/core"
	"clockwise.service/internal/ports/repository"
	"clockwise.service/internal/worker"
	"clockwise.service/internal/worker/alert"
	"clockwise.service/pkg/aws"
	"clockwise.service/pkg/database"
	"clockwise.service/pkg/logger"
	"clockwise.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.Options{
		ServiceName: "clockwise-alert-worker",
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
	pool, err := database.NewPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer pool.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	sesClient := ses.NewFromConfig(awsCfg)
	logs := repository.NewClockingLogRepository(pool)
	alertService := core.NewSESAlertService(sesClient, cfg.AlertSenderEmail, cfg.AlertRecipientMail)
	processor := alert.NewProcessor(alertService, logs)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.LogEventsQueueURL, processor)
	app.Concurrency = cfg.WorkerConcurrency

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Str("queue", cfg.LogEventsQueueURL).Int("concurrency", app.Concurrency).Msg("Alert worker starting")
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling, then wait for
	// in-flight messages.
	cancel()
	<-done

	log.Info().Msg("Worker exited gracefully")
}
