package model

import (
	"time"
)

// EmployeeStatus defines where an employee is in the directory lifecycle.
type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "active"
	StatusInactive EmployeeStatus = "inactive"
	// StatusPending means listed in the directory but not yet biometrically enrolled.
	StatusPending EmployeeStatus = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	default:
		return false
	}
}

// AlertStatus defines the state of the anomaly alert delivery for a log.
type AlertStatus string

const (
	AlertStatusPending AlertStatus = "PENDING"
	AlertStatusSent    AlertStatus = "SENT"
	AlertStatusSkipped AlertStatus = "SKIPPED"
)

type Employee struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	FingerprintID *string        `json:"fingerprintId"`
	Status        EmployeeStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Anomaly is the verdict attached to a log. A nil *Anomaly on a log means the
// shift was not flagged.
type Anomaly struct {
	IsAnomaly   bool   `json:"isAnomaly"`
	Type        string `json:"type,omitempty"`
	Explanation string `json:"explanation"`
}

// ClockingLog is immutable once assembled. EmployeeName is a snapshot taken at
// recording time and does not follow later renames.
type ClockingLog struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	ClockInTime  time.Time  `json:"clockInTime"`
	ClockOutTime *time.Time `json:"clockOutTime"`
	Anomaly      *Anomaly   `json:"anomaly"`
}

// OnDuty reports whether the shift is still open.
func (l *ClockingLog) OnDuty() bool {
	return l.ClockOutTime == nil
}

// HoursWorked returns the shift length in hours, or 0 while on duty.
func (l *ClockingLog) HoursWorked() float64 {
	if l.ClockOutTime == nil {
		return 0
	}
	return l.ClockOutTime.Sub(l.ClockInTime).Hours()
}

// AnomalyVerdict is the classifier output for one shift.
type AnomalyVerdict struct {
	IsAnomaly   bool   `json:"isAnomaly"`
	AnomalyType string `json:"anomalyType,omitempty"`
	Explanation string `json:"explanation"`
}

// ToAnomaly maps a verdict onto the log field: nil for a normal shift.
func (v AnomalyVerdict) ToAnomaly() *Anomaly {
	if !v.IsAnomaly {
		return nil
	}
	return &Anomaly{
		IsAnomaly:   true,
		Type:        v.AnomalyType,
		Explanation: v.Explanation,
	}
}

// ClockingSubmission is the raw, unvalidated input of a clocking event.
type ClockingSubmission struct {
	EmployeeID   string `json:"employeeId"`
	ClockInTime  string `json:"clockInTime"`
	ClockOutTime string `json:"clockOutTime"`
}

// ShiftInput is what the classifier sees: the resolved employee and UTC timestamps.
type ShiftInput struct {
	EmployeeID   string
	ClockInTime  time.Time
	ClockOutTime time.Time
}

// Duration returns the shift length.
func (s ShiftInput) Duration() time.Duration {
	return s.ClockOutTime.Sub(s.ClockInTime)
}

// Stats summarises the dashboard counters.
type Stats struct {
	TotalEmployees   int `json:"totalEmployees"`
	OnDuty           int `json:"onDuty"`
	AnomaliesLast24h int `json:"anomaliesLast24h"`
}
