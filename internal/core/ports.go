package core

import (
	"context"
	"time"

	"clockwise.service/internal/core/model"
)

// EmployeeDirectory resolves employee ids. Find returns a *NotFoundError for
// unknown ids.
type EmployeeDirectory interface {
	Find(ctx context.Context, id string) (*model.Employee, error)
}

// Classifier decides whether a shift is anomalous.
type Classifier interface {
	Classify(ctx context.Context, shift model.ShiftInput) (model.AnomalyVerdict, error)
}

// EmployeeFilter narrows ListEmployees.
type EmployeeFilter struct {
	Status *model.EmployeeStatus
}

// EmployeeRepository is the persistent directory.
type EmployeeRepository interface {
	EmployeeDirectory
	Create(ctx context.Context, e *model.Employee) error
	Update(ctx context.Context, e *model.Employee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EmployeeFilter) ([]*model.Employee, error)
	Count(ctx context.Context) (int, error)
}

// LogFilter narrows ListLogs.
type LogFilter struct {
	EmployeeID    string
	AnomaliesOnly bool
	Limit         int
}

// LogStore persists finished clocking logs.
type LogStore interface {
	Save(ctx context.Context, log *model.ClockingLog) error
	List(ctx context.Context, filter LogFilter) ([]*model.ClockingLog, error)
	CountOnDuty(ctx context.Context) (int, error)
	CountAnomaliesSince(ctx context.Context, since time.Time) (int, error)
}

// LogPublisher fans a persisted log out to other viewers.
type LogPublisher interface {
	PublishLogCreated(ctx context.Context, log *model.ClockingLog) error
}
