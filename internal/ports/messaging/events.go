package messaging

import (
	"time"

	"clockwise.service/internal/core/model"
)

const EventTypeLogCreated = "CLOCKING_LOG_CREATED"

// LogCreatedEvent is the JSON payload sent via SQS for every persisted clocking log.
type LogCreatedEvent struct {
	LogID        string         `json:"logId"`
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName"`
	ClockInTime  time.Time      `json:"clockInTime"`
	ClockOutTime *time.Time     `json:"clockOutTime"`
	Anomaly      *model.Anomaly `json:"anomaly"`
	OccurredAt   time.Time      `json:"occurredAt"`
}

// NewLogCreatedEvent snapshots a log into an event.
func NewLogCreatedEvent(l *model.ClockingLog, occurredAt time.Time) LogCreatedEvent {
	return LogCreatedEvent{
		LogID:        l.ID,
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		ClockInTime:  l.ClockInTime,
		ClockOutTime: l.ClockOutTime,
		Anomaly:      l.Anomaly,
		OccurredAt:   occurredAt.UTC(),
	}
}

// ClockingLog rebuilds the log snapshot carried by the event.
func (e LogCreatedEvent) ClockingLog() *model.ClockingLog {
	return &model.ClockingLog{
		ID:           e.LogID,
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		ClockInTime:  e.ClockInTime,
		ClockOutTime: e.ClockOutTime,
		Anomaly:      e.Anomaly,
	}
}

// Validate reports whether a decoded event can be acted on.
func (e LogCreatedEvent) Validate() error {
	if e.LogID == "" {
		return errMissingField("logId")
	}
	if e.EmployeeID == "" {
		return errMissingField("employeeId")
	}
	if e.ClockInTime.IsZero() {
		return errMissingField("clockInTime")
	}
	return nil
}
