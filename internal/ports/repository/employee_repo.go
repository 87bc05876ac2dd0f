package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"clockwise.service/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolationCode = "23505"

const (
	employeeColumns = `id, name, fingerprint_id, status, created_at, updated_at`

	insertEmployeeQuery = `INSERT INTO employees (id, name, fingerprint_id, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6)`

	updateEmployeeQuery = `UPDATE employees
              SET name = $1,
                  fingerprint_id = $2,
                  status = $3,
                  updated_at = $4
              WHERE id = $5`

	findEmployeeQuery = `SELECT ` + employeeColumns + `
              FROM employees
              WHERE id = $1`

	listEmployeesQuery = `SELECT ` + employeeColumns + `
              FROM employees
              ORDER BY name ASC, id ASC`

	listEmployeesByStatusQuery = `SELECT ` + employeeColumns + `
              FROM employees
              WHERE status = $1
              ORDER BY name ASC, id ASC`

	deleteEmployeeQuery = `DELETE FROM employees WHERE id = $1`

	countEmployeesQuery = `SELECT COUNT(*) FROM employees`
)

var _ core.EmployeeRepository = (*EmployeeRepository)(nil)

// EmployeeRepository is the PostgreSQL employee directory.
type EmployeeRepository struct {
	db database.Queryer
}

// NewEmployeeRepository create new instance
func NewEmployeeRepository(db database.Queryer) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", e.ID))

	_, err := r.db.Exec(ctx, insertEmployeeQuery,
		e.ID, e.Name, nullableString(e.FingerprintID), string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return translateEmployeeError(err, e.ID)
	}
	return nil
}

// Update overwrites the mutable fields of an employee.
func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", e.ID))

	tag, err := r.db.Exec(ctx, updateEmployeeQuery,
		e.Name, nullableString(e.FingerprintID), string(e.Status), e.UpdatedAt, e.ID)
	if err != nil {
		return translateEmployeeError(err, e.ID)
	}
	if tag.RowsAffected() == 0 {
		return core.EmployeeNotFound(e.ID)
	}
	return nil
}

// Find fetches an employee by id.
func (r *EmployeeRepository) Find(ctx context.Context, id string) (*model.Employee, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", id))

	e, err := scanEmployee(r.db.QueryRow(ctx, findEmployeeQuery, id))
	if err != nil {
		return nil, translateEmployeeError(err, id)
	}
	return e, nil
}

// List returns employees ordered by name.
func (r *EmployeeRepository) List(ctx context.Context, filter core.EmployeeFilter) ([]*model.Employee, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.Status != nil {
		rows, err = r.db.Query(ctx, listEmployeesByStatusQuery, string(*filter.Status))
	} else {
		rows, err = r.db.Query(ctx, listEmployeesQuery)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*model.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// Delete removes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", id))

	tag, err := r.db.Exec(ctx, deleteEmployeeQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.EmployeeNotFound(id)
	}
	return nil
}

// Count returns the directory size.
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countEmployeesQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	var (
		e           model.Employee
		fingerprint sql.NullString
		status      string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&e.ID, &e.Name, &fingerprint, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if fingerprint.Valid {
		fp := fingerprint.String
		e.FingerprintID = &fp
	}
	e.Status = model.EmployeeStatus(status)
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	return &e, nil
}

func translateEmployeeError(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.EmployeeNotFound(id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("fingerprint is already enrolled for another employee: %w", core.ErrConflict)
	}
	return err
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
