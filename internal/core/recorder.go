package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clockwise.service/internal/core/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultClassifierTimeout = 15 * time.Second

// Recorder turns a raw clocking submission into a classified ClockingLog. It
// neither persists nor broadcasts the result.
type Recorder struct {
	directory  EmployeeDirectory
	classifier Classifier
	location   *time.Location
	timeout    time.Duration
	newID      func() string
}

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithLocation sets the zone used for timestamps that carry no offset.
func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClassifierTimeout bounds every classifier call.
func WithClassifierTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithIDGenerator replaces the uuid v7 log id generator.
func WithIDGenerator(fn func() string) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRecorder wires the recorder to its directory and classifier.
func NewRecorder(directory EmployeeDirectory, classifier Classifier, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		directory:  directory,
		classifier: classifier,
		location:   time.UTC,
		timeout:    DefaultClassifierTimeout,
		newID:      newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordClockingEvent validates the submission, resolves the employee,
// classifies the shift and assembles a new log. Every failure is terminal and
// no log is returned alongside an error.
func (r *Recorder) RecordClockingEvent(ctx context.Context, sub model.ClockingSubmission) (*model.ClockingLog, error) {
	employeeID, clockIn, clockOut, err := r.validate(sub)
	if err != nil {
		return nil, err
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	employee, err := r.directory.Find(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}

	shift := model.ShiftInput{
		EmployeeID:   employee.ID,
		ClockInTime:  clockIn,
		ClockOutTime: clockOut,
	}

	verdict, err := r.classify(ctx, shift)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("employee_id", employee.ID).Msg("Clocking event classification failed")
		return nil, &ClassificationError{Err: err}
	}

	out := clockOut
	return &model.ClockingLog{
		ID:           r.newID(),
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		ClockInTime:  clockIn,
		ClockOutTime: &out,
		Anomaly:      verdict.ToAnomaly(),
	}, nil
}

func (r *Recorder) validate(sub model.ClockingSubmission) (string, time.Time, time.Time, error) {
	employeeID := strings.TrimSpace(sub.EmployeeID)
	if employeeID == "" {
		return "", time.Time{}, time.Time{}, newValidationError("employeeId", "is required")
	}

	clockIn, err := ParseTimestamp(sub.ClockInTime, r.location)
	if err != nil {
		return "", time.Time{}, time.Time{}, newValidationError("clockInTime", err.Error())
	}

	clockOut, err := ParseTimestamp(sub.ClockOutTime, r.location)
	if err != nil {
		return "", time.Time{}, time.Time{}, newValidationError("clockOutTime", err.Error())
	}

	if !clockOut.After(clockIn) {
		return "", time.Time{}, time.Time{}, newValidationError("clockOutTime", "must be after clockInTime")
	}

	return employeeID, clockIn, clockOut, nil
}

func (r *Recorder) classify(ctx context.Context, shift model.ShiftInput) (model.AnomalyVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	verdict, err := r.classifier.Classify(ctx, shift)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.AnomalyVerdict{}, errors.Join(errors.New("classifier timed out"), err)
		}
		return model.AnomalyVerdict{}, err
	}

	verdict = NormalizeVerdict(verdict)
	if err := ValidateVerdict(verdict); err != nil {
		return model.AnomalyVerdict{}, err
	}
	return verdict, nil
}

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
