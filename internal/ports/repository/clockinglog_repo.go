package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"clockwise.service/pkg/database"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	insertLogQuery = `INSERT INTO clocking_logs (id, employee_id, employee_name, clock_in_time, clock_out_time,
                  is_anomaly, anomaly_type, anomaly_explanation, alert_status, alert_retry_count)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)`

	listLogsBaseQuery = `SELECT id, employee_id, employee_name, clock_in_time, clock_out_time,
                  is_anomaly, anomaly_type, anomaly_explanation
              FROM clocking_logs`

	countOnDutyQuery = `SELECT COUNT(*) FROM clocking_logs WHERE clock_out_time IS NULL`

	countAnomaliesSinceQuery = `SELECT COUNT(*) FROM clocking_logs WHERE is_anomaly AND clock_in_time >= $1`

	getAlertStatusQuery = `SELECT alert_status, alert_retry_count FROM clocking_logs WHERE id = $1`

	updateAlertStatusQuery = `UPDATE clocking_logs
              SET alert_status = $1,
                  alert_retry_count = $2
              WHERE id = $3`
)

var _ core.LogStore = (*ClockingLogRepository)(nil)

// ClockingLogRepository persists clocking logs and their alert delivery state.
type ClockingLogRepository struct {
	db database.Queryer
}

// NewClockingLogRepository create new instance
func NewClockingLogRepository(db database.Queryer) *ClockingLogRepository {
	return &ClockingLogRepository{db: db}
}

// Save inserts a finished log. Normal shifts start with a SKIPPED alert.
func (r *ClockingLogRepository) Save(ctx context.Context, l *model.ClockingLog) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", l.EmployeeID))

	var (
		isAnomaly   bool
		anomalyType any
		explanation any
		alertStatus = model.AlertStatusSkipped
	)
	if l.Anomaly != nil {
		isAnomaly = l.Anomaly.IsAnomaly
		anomalyType = l.Anomaly.Type
		explanation = l.Anomaly.Explanation
		alertStatus = model.AlertStatusPending
	}

	var clockOut any
	if l.ClockOutTime != nil {
		clockOut = *l.ClockOutTime
	}

	_, err := r.db.Exec(ctx, insertLogQuery,
		l.ID, l.EmployeeID, l.EmployeeName, l.ClockInTime, clockOut,
		isAnomaly, anomalyType, explanation, string(alertStatus))
	if err != nil {
		return fmt.Errorf("failed to insert clocking log: %w", err)
	}
	return nil
}

// List returns logs newest first.
func (r *ClockingLogRepository) List(ctx context.Context, filter core.LogFilter) ([]*model.ClockingLog, error) {
	query, args := buildListLogsQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clocking logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*model.ClockingLog, 0)
	for rows.Next() {
		l, err := scanClockingLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clocking log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clocking logs: %w", err)
	}
	return logs, nil
}

// CountOnDuty counts open shifts.
func (r *ClockingLogRepository) CountOnDuty(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countOnDutyQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count on-duty logs: %w", err)
	}
	return n, nil
}

// CountAnomaliesSince counts anomalous logs clocked in at or after since.
func (r *ClockingLogRepository) CountAnomaliesSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countAnomaliesSinceQuery, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count anomalies: %w", err)
	}
	return n, nil
}

// GetAlertStatus retrieves the alert delivery state of a log.
func (r *ClockingLogRepository) GetAlertStatus(ctx context.Context, id string) (model.AlertStatus, int, error) {
	var (
		status     string
		retryCount int
	)
	err := r.db.QueryRow(ctx, getAlertStatusQuery, id).Scan(&status, &retryCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, core.LogNotFound(id)
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to get alert status: %w", err)
	}
	return model.AlertStatus(status), retryCount, nil
}

// UpdateAlertStatus updates the status and retry count of the alert for a log.
func (r *ClockingLogRepository) UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus, retryCount int) error {
	tag, err := r.db.Exec(ctx, updateAlertStatusQuery, string(status), retryCount, id)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.LogNotFound(id)
	}
	return nil
}

func buildListLogsQuery(filter core.LogFilter) (string, []any) {
	args := make([]any, 0, 2)
	conditions := make([]string, 0, 2)

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.AnomaliesOnly {
		conditions = append(conditions, "is_anomaly")
	}

	var sb strings.Builder
	sb.WriteString(listLogsBaseQuery)
	if len(conditions) > 0 {
		sb.WriteString("\n              WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString("\n              ORDER BY clock_in_time DESC, id DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString("\n              LIMIT $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

func scanClockingLog(row pgx.Row) (*model.ClockingLog, error) {
	var (
		l           model.ClockingLog
		clockIn     time.Time
		clockOut    sql.NullTime
		isAnomaly   bool
		anomalyType sql.NullString
		explanation sql.NullString
	)
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.EmployeeName, &clockIn, &clockOut,
		&isAnomaly, &anomalyType, &explanation); err != nil {
		return nil, err
	}

	l.ClockInTime = clockIn.UTC()
	if clockOut.Valid {
		out := clockOut.Time.UTC()
		l.ClockOutTime = &out
	}
	if isAnomaly {
		l.Anomaly = &model.Anomaly{
			IsAnomaly:   true,
			Type:        anomalyType.String,
			Explanation: explanation.String,
		}
	}
	return &l, nil
}
