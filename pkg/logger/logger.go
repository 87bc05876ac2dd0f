package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger.
func Setup(isLocalDev bool) {
	setup(isLocalDev, os.Stderr)
}

func setup(isLocalDev bool, out io.Writer) {
	// Use Unix timestamps for performance and consistency
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isLocalDev {
		// Pretty printing for local development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		// Default to JSON output for production
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// log.Ctx on a context without a logger falls back to the global one.
	zerolog.DefaultContextLogger = &log.Logger
}

// EnrichContextWithLogger adds a zerolog logger to the context with trace information.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	l := log.With()

	sCtx := trace.SpanFromContext(ctx).SpanContext()
	if sCtx.HasTraceID() {
		l = l.Str("trace_id", sCtx.TraceID().String())
	}
	if sCtx.HasSpanID() {
		l = l.Str("span_id", sCtx.SpanID().String())
	}

	logger := l.Logger()
	return logger.WithContext(ctx)
}
