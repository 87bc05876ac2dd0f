package database

import (
	"context"
	"database/sql"
	"fmt"

	"clockwise.service/internal/config"
	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// NewInstrumentedConnection opens a traced database/sql handle for
// golang-migrate, which cannot run on a pgx pool.
func NewInstrumentedConnection(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", cfg.DatabaseURL(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening instrumented connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return db, nil
}
