package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"clockwise.service/internal/ports/messaging"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// AlertStore tracks the alert delivery state of each log.
type AlertStore interface {
	GetAlertStatus(ctx context.Context, logID string) (model.AlertStatus, int, error)
	UpdateAlertStatus(ctx context.Context, logID string, status model.AlertStatus, retryCount int) error
}

type Processor struct {
	alerts core.AlertService
	store  AlertStore
}

// NewProcessor sets up a new processor for log-created events.
// It needs an alert service to notify supervisors and a store to track delivery.
func NewProcessor(alerts core.AlertService, store AlertStore) *Processor {
	return &Processor{
		alerts: alerts,
		store:  store,
	}
}

// Process handles a message from the log events queue. Normal shifts are
// acknowledged without an alert.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("message has no body")
	}

	var event messaging.LogCreatedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal log created event")
		return false, 0, err // Do not retry on malformed message
	}
	if err := event.Validate(); err != nil {
		return false, 0, err
	}

	logger := log.Ctx(ctx).With().Str("log_id", event.LogID).Str("employee_id", event.EmployeeID).Logger()

	if event.Anomaly == nil || !event.Anomaly.IsAnomaly {
		logger.Debug().Msg("Normal shift. No alert needed.")
		return false, 0, nil
	}

	status, retryCount, err := p.store.GetAlertStatus(ctx, event.LogID)
	if errors.Is(err, core.ErrNotFound) {
		return false, 0, fmt.Errorf("log referenced by event does not exist: %w", err)
	}
	if err != nil {
		// If we can't get the record, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get alert status: %w", err)
	}

	if status == model.AlertStatusSent {
		logger.Info().Msg("Alert already sent. Skipping.")
		return false, 0, nil
	}

	entry := event.ClockingLog()
	err = p.alerts.SendAnomalyAlert(ctx, core.AnomalyAlert{
		LogID:        entry.ID,
		EmployeeID:   entry.EmployeeID,
		EmployeeName: entry.EmployeeName,
		ClockInTime:  entry.ClockInTime,
		ClockOutTime: entry.ClockOutTime,
		HoursWorked:  entry.HoursWorked(),
		AnomalyType:  entry.Anomaly.Type,
		Explanation:  entry.Anomaly.Explanation,
	})
	if err != nil {
		newCount := retryCount + 1
		if uErr := p.store.UpdateAlertStatus(ctx, event.LogID, model.AlertStatusPending, newCount); uErr != nil {
			logger.Error().Err(uErr).Msg("Failed to record alert retry")
		}
		return true, calculateBackoff(newCount), err
	}

	if err := p.store.UpdateAlertStatus(ctx, event.LogID, model.AlertStatusSent, retryCount); err != nil {
		return false, 0, fmt.Errorf("alert sent but status update failed: %w", err)
	}

	logger.Info().Str("anomaly_type", event.Anomaly.Type).Msg("Anomaly alert sent")
	return false, 0, nil
}

// calculateBackoff determines how long to wait before retrying a failed alert.
// The delay doubles with each retry and is capped at one hour.
func calculateBackoff(retryCount int) int32 {
	backoff := math.Pow(2, float64(retryCount)) * 10
	if backoff > 3600 { // Cap at 1 hour
		return 3600
	}
	return int32(backoff)
}
