package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clockwise.service/internal/core/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500

	anomalyWindow = 24 * time.Hour
)

type ClockingService struct {
	recorder  *Recorder
	logs      LogStore
	employees EmployeeRepository
	publisher LogPublisher
}

// NewClockingService wires the recorder to persistence and fan-out.
func NewClockingService(recorder *Recorder, logs LogStore, employees EmployeeRepository, publisher LogPublisher) *ClockingService {
	return &ClockingService{
		recorder:  recorder,
		logs:      logs,
		employees: employees,
		publisher: publisher,
	}
}

// Submit records, persists and broadcasts a clocking event. A failed publish
// does not undo the saved log.
func (s *ClockingService) Submit(ctx context.Context, sub model.ClockingSubmission) (*model.ClockingLog, error) {
	clockingLog, err := s.recorder.RecordClockingEvent(ctx, sub)
	if err != nil {
		return nil, err
	}

	if err := s.logs.Save(ctx, clockingLog); err != nil {
		return nil, fmt.Errorf("failed to save clocking log: %w", err)
	}

	logger := log.Ctx(ctx).With().Str("log_id", clockingLog.ID).Str("employee_id", clockingLog.EmployeeID).Logger()

	if s.publisher != nil {
		if err := s.publisher.PublishLogCreated(ctx, clockingLog); err != nil {
			logger.Error().Err(err).Msg("Failed to publish log created event")
		}
	}

	event := logger.Info()
	if clockingLog.Anomaly != nil {
		event = logger.Warn().Str("anomaly_type", clockingLog.Anomaly.Type)
	}
	event.Msg("Clocking event recorded")

	return clockingLog, nil
}

// ListLogs returns logs newest first.
func (s *ClockingService) ListLogs(ctx context.Context, filter LogFilter) ([]*model.ClockingLog, error) {
	filter.EmployeeID = strings.TrimSpace(filter.EmployeeID)
	switch {
	case filter.Limit < 0:
		return nil, newValidationError("limit", "must not be negative")
	case filter.Limit == 0:
		filter.Limit = DefaultLogLimit
	case filter.Limit > MaxLogLimit:
		filter.Limit = MaxLogLimit
	}
	return s.logs.List(ctx, filter)
}

// Stats computes the dashboard counters as of now.
func (s *ClockingService) Stats(ctx context.Context, now time.Time) (model.Stats, error) {
	total, err := s.employees.Count(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to count employees: %w", err)
	}

	onDuty, err := s.logs.CountOnDuty(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to count on-duty logs: %w", err)
	}

	anomalies, err := s.logs.CountAnomaliesSince(ctx, now.Add(-anomalyWindow))
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to count anomalies: %w", err)
	}

	return model.Stats{
		TotalEmployees:   total,
		OnDuty:           onDuty,
		AnomaliesLast24h: anomalies,
	}, nil
}
