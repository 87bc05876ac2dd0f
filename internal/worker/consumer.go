package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"clockwise.service/pkg/logger"
	"clockwise.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConcurrency = 10
	// SQS accepts at most 10 messages per receive call.
	maxReceiveBatch   = 10
	receiveErrorPause = time.Second
)

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Processor is a generic interface for any type that can process a message from SQS.
// This lets us reuse the main worker logic for different kinds of jobs.
type Processor interface {
	Process(ctx context.Context, msg types.Message) (shouldRetry bool, retryDelay int32, err error)
}

// Worker is our generic SQS message consumer. It polls a queue and passes
// messages off to a Processor.
type Worker struct {
	client    SQSClient
	queueURL  string
	processor Processor
	// Concurrency controls how many messages can be processed at the same time.
	Concurrency int
	// WaitTimeSeconds is the long polling wait of each receive call.
	WaitTimeSeconds int32
}

// NewWorker creates a new SQS worker, ready to be started.
func NewWorker(client SQSClient, url string, proc Processor) *Worker {
	return &Worker{
		client:          client,
		queueURL:        url,
		processor:       proc,
		Concurrency:     DefaultConcurrency,
		WaitTimeSeconds: 20,
	}
}

// Start runs the poller and the processor pool until ctx is canceled. It
// returns once every in-flight message has been handled.
func (w *Worker) Start(ctx context.Context) {
	concurrency := w.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log.Info().Int("concurrency", concurrency).Str("queue_url", w.queueURL).Msg("SQS Worker started. Polling for messages...")

	messagesCh := make(chan types.Message, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processMessages(ctx, messagesCh)
		}()
	}

	w.pollMessages(ctx, messagesCh, concurrency)
	wg.Wait()
	log.Info().Msg("SQS Worker stopped")
}

// pollMessages fetches messages from SQS and sends them to a channel.
func (w *Worker) pollMessages(ctx context.Context, messagesCh chan<- types.Message, concurrency int) {
	defer close(messagesCh) // Close channel to signal processors to stop

	batch := int32(concurrency)
	if batch > maxReceiveBatch {
		batch = maxReceiveBatch
	}

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Poller shutting down...")
			return
		}

		output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              &w.queueURL,
			MaxNumberOfMessages:   batch,
			WaitTimeSeconds:       w.WaitTimeSeconds,
			MessageAttributeNames: []string{"All"}, // Request attributes to get trace context
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrorPause):
			}
			continue
		}

		if len(output.Messages) > 0 {
			log.Debug().Int("count", len(output.Messages)).Msg("Received messages")
		}
		for _, msg := range output.Messages {
			select {
			case messagesCh <- msg:
			case <-ctx.Done():
				// Unsent messages become visible again after the visibility timeout.
				return
			}
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messagesCh <-chan types.Message) {
	for msg := range messagesCh {
		w.handleSingleMessage(ctx, msg)
	}
}

// handleSingleMessage calls the processor and then deletes the message or
// changes its visibility for a retry.
func (w *Worker) handleSingleMessage(ctx context.Context, msg types.Message) {
	ctx, span := telemetry.StartSpanFromSQSMessage(ctx, msg)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx)

	shouldRetry, retryDelay, err := w.processor.Process(ctx, msg)

	if err != nil && shouldRetry {
		log.Ctx(ctx).Warn().Err(err).Int32("retry_delay", retryDelay).Msg("Processing failed, will retry")

		if _, vErr := w.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          &w.queueURL,
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: retryDelay,
		}); vErr != nil {
			log.Ctx(ctx).Error().Err(vErr).Msg("Failed to change message visibility")
		}
		return
	}

	if err != nil {
		// An unrecoverable error occurred (e.g., bad message format).
		log.Ctx(ctx).Error().Err(err).Msg("Unrecoverable error processing message, will not retry")
	}

	// Delete on success and on unrecoverable errors so the message is not redelivered.
	if _, dErr := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &w.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	}); dErr != nil {
		log.Ctx(ctx).Error().Err(dErr).Msg("Failed to delete message")
	}
}
