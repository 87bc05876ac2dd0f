package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"clockwise.service/internal/core/model"
	"github.com/rs/zerolog/log"
)

const minEmployeeNameLength = 2

// NewEmployeeInput is the payload of AddEmployee.
type NewEmployeeInput struct {
	Name          string                `json:"name"`
	FingerprintID *string               `json:"fingerprintId"`
	Status        *model.EmployeeStatus `json:"status"`
}

type EmployeeService struct {
	repo  EmployeeRepository
	now   func() time.Time
	newID func() string
}

// NewEmployeeService creates the directory service on top of the repository.
func NewEmployeeService(repo EmployeeRepository) *EmployeeService {
	return &EmployeeService{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newTimeOrderedID,
	}
}

// AddEmployee registers a new employee. Without a fingerprint the employee
// stays pending until enrollment completes.
func (s *EmployeeService) AddEmployee(ctx context.Context, in NewEmployeeInput) (*model.Employee, error) {
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < minEmployeeNameLength {
		return nil, newValidationError("name", fmt.Sprintf("must be at least %d characters", minEmployeeNameLength))
	}

	fingerprint := normalizeFingerprint(in.FingerprintID)

	status := model.StatusPending
	if fingerprint != nil {
		status = model.StatusActive
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, newValidationError("status", "must be one of active, inactive, pending")
		}
		status = *in.Status
	}
	if status == model.StatusActive && fingerprint == nil {
		return nil, newValidationError("fingerprintId", "is required for an active employee")
	}

	now := s.now()
	employee := &model.Employee{
		ID:            s.newID(),
		Name:          name,
		FingerprintID: fingerprint,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	log.Ctx(ctx).Info().Str("employee_id", employee.ID).Str("status", string(status)).Msg("Employee added")
	return employee, nil
}

// GetEmployee returns a single employee or a NotFoundError.
func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return s.repo.Find(ctx, id)
}

// ListEmployees returns the directory ordered by name.
func (s *EmployeeService) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*model.Employee, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, newValidationError("status", "must be one of active, inactive, pending")
	}
	return s.repo.List(ctx, filter)
}

// ActivateEmployee puts an employee back on the active roster.
func (s *EmployeeService) ActivateEmployee(ctx context.Context, id string) (*model.Employee, error) {
	employee, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.FingerprintID == nil {
		return nil, newValidationError("fingerprintId", "enrollment must be completed before activation")
	}
	return s.setStatus(ctx, employee, model.StatusActive)
}

// DeactivateEmployee takes an employee off the active roster.
func (s *EmployeeService) DeactivateEmployee(ctx context.Context, id string) (*model.Employee, error) {
	employee, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.setStatus(ctx, employee, model.StatusInactive)
}

// CompleteEnrollment stores the fingerprint template id captured by the
// scanner. A pending employee becomes active.
func (s *EmployeeService) CompleteEnrollment(ctx context.Context, id, fingerprintID string) (*model.Employee, error) {
	fingerprint := normalizeFingerprint(&fingerprintID)
	if fingerprint == nil {
		return nil, newValidationError("fingerprintId", "is required")
	}

	employee, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	employee.FingerprintID = fingerprint
	if employee.Status == model.StatusPending {
		employee.Status = model.StatusActive
	}
	employee.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to complete enrollment: %w", err)
	}

	log.Ctx(ctx).Info().Str("employee_id", employee.ID).Msg("Enrollment completed")
	return employee, nil
}

// DeleteEmployee removes an employee. Existing logs keep the name snapshot.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("employee_id", id).Msg("Employee deleted")
	return nil
}

func (s *EmployeeService) setStatus(ctx context.Context, employee *model.Employee, status model.EmployeeStatus) (*model.Employee, error) {
	if employee.Status == status {
		return employee, nil
	}

	employee.Status = status
	employee.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to update employee status: %w", err)
	}

	log.Ctx(ctx).Info().Str("employee_id", employee.ID).Str("status", string(status)).Msg("Employee status changed")
	return employee, nil
}

func normalizeFingerprint(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	return &v
}
