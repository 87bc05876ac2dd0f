package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clockwise.service/internal/api/handler"
	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClocking struct {
	submitted  model.ClockingSubmission
	submitErr  error
	lastFilter core.LogFilter
	statsAt    time.Time
}

func (s *stubClocking) Submit(ctx context.Context, sub model.ClockingSubmission) (*model.ClockingLog, error) {
	s.submitted = sub
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	in := time.Date(2024, 7, 30, 8, 55, 0, 0, time.UTC)
	out := time.Date(2024, 7, 30, 12, 30, 0, 0, time.UTC)
	return &model.ClockingLog{
		ID: "log-1", EmployeeID: sub.EmployeeID, EmployeeName: "Ada Lovelace",
		ClockInTime: in, ClockOutTime: &out,
		Anomaly: &model.Anomaly{IsAnomaly: true, Type: "Short Shift", Explanation: "Worked only 3.6 hours."},
	}, nil
}

func (s *stubClocking) ListLogs(ctx context.Context, filter core.LogFilter) ([]*model.ClockingLog, error) {
	s.lastFilter = filter
	return []*model.ClockingLog{}, nil
}

func (s *stubClocking) Stats(ctx context.Context, now time.Time) (model.Stats, error) {
	s.statsAt = now
	return model.Stats{TotalEmployees: 3, OnDuty: 1, AnomaliesLast24h: 2}, nil
}

type stubEmployees struct {
	added      core.NewEmployeeInput
	lastFilter core.EmployeeFilter
	enrolled   string
}

func (s *stubEmployees) AddEmployee(ctx context.Context, in core.NewEmployeeInput) (*model.Employee, error) {
	s.added = in
	if len(strings.TrimSpace(in.Name)) < 2 {
		return nil, &core.ValidationError{Field: "name", Reason: "must be at least 2 characters"}
	}
	return &model.Employee{ID: "emp-new", Name: in.Name, Status: model.StatusPending}, nil
}

func (s *stubEmployees) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	if id != "emp-1" {
		return nil, core.EmployeeNotFound(id)
	}
	return &model.Employee{ID: "emp-1", Name: "Ada Lovelace", Status: model.StatusActive}, nil
}

func (s *stubEmployees) ListEmployees(ctx context.Context, filter core.EmployeeFilter) ([]*model.Employee, error) {
	s.lastFilter = filter
	return []*model.Employee{{ID: "emp-1", Name: "Ada Lovelace", Status: model.StatusActive}}, nil
}

func (s *stubEmployees) ActivateEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return &model.Employee{ID: id, Name: "Ada Lovelace", Status: model.StatusActive}, nil
}

func (s *stubEmployees) DeactivateEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return &model.Employee{ID: id, Name: "Ada Lovelace", Status: model.StatusInactive}, nil
}

func (s *stubEmployees) CompleteEnrollment(ctx context.Context, id, fingerprintID string) (*model.Employee, error) {
	s.enrolled = fingerprintID
	fp := fingerprintID
	return &model.Employee{ID: id, Name: "Ada Lovelace", FingerprintID: &fp, Status: model.StatusActive}, nil
}

func (s *stubEmployees) DeleteEmployee(ctx context.Context, id string) error {
	if id != "emp-1" {
		return core.EmployeeNotFound(id)
	}
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type fixture struct {
	clocking  *stubClocking
	employees *stubEmployees
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clocking: &stubClocking{}, employees: &stubEmployees{}}
	f.handler = NewHandler(Dependencies{
		Clocking:  f.clocking,
		Employees: f.employees,
		DB:        stubPinger{},
		Now:       func() time.Time { return time.Date(2024, 7, 30, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmitClockingEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/clocking-logs",
		`{"employeeId":"emp-1","clockInTime":"2024-07-30T08:55:00","clockOutTime":"2024-07-30T12:30:00"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "emp-1", f.clocking.submitted.EmployeeID)
	assert.Equal(t, "2024-07-30T08:55:00", f.clocking.submitted.ClockInTime)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "log-1", body["id"])
	assert.Equal(t, "Ada Lovelace", body["employeeName"])
	assert.Equal(t, "2024-07-30T08:55:00Z", body["clockInTime"])
	anomaly := body["anomaly"].(map[string]any)
	assert.Equal(t, true, anomaly["isAnomaly"])
	assert.Equal(t, "Short Shift", anomaly["type"])
}

func TestSubmitClockingEvent_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &core.ValidationError{Field: "clockInTime", Reason: "is required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown employee", core.EmployeeNotFound("ghost"), http.StatusNotFound, "NOT_FOUND"},
		{"classifier", &core.ClassificationError{Err: errors.New("schema mismatch")}, http.StatusBadGateway, "CLASSIFICATION_FAILED"},
		{"store", errors.New("connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.clocking.submitErr = tc.err

			rec := f.do(t, http.MethodPost, "/api/v1/clocking-logs", `{"employeeId":"x","clockInTime":"","clockOutTime":""}`)
			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotContains(t, body.Error, "connection refused")
		})
	}
}

func TestSubmitClockingEvent_NotFoundMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.clocking.submitErr = core.EmployeeNotFound("ghost")

	rec := f.do(t, http.MethodPost, "/api/v1/clocking-logs", `{"employeeId":"ghost"}`)
	assert.Equal(t, "Employee not found", decodeError(t, rec).Error)
}

func TestSubmitClockingEvent_BadBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/clocking-logs", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/clocking-logs", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body: is required", decodeError(t, rec).Error)
}

func TestListClockingLogs_QueryParams(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/clocking-logs?employeeId=emp-1&anomalies=true&limit=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, core.LogFilter{EmployeeID: "emp-1", AnomaliesOnly: true, Limit: 20}, f.clocking.lastFilter)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/clocking-logs?limit=ten", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/clocking-logs?anomalies=maybe", "").Code)
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalEmployees":3,"onDuty":1,"anomaliesLast24h":2}`, rec.Body.String())
	assert.Equal(t, time.Date(2024, 7, 30, 12, 0, 0, 0, time.UTC), f.clocking.statsAt)
}

func TestEmployeeRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/employees", `{"name":"Grace Hopper"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Grace Hopper", f.employees.added.Name)

	rec = f.do(t, http.MethodPost, "/api/v1/employees", `{"name":"G"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/employees?status=active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.employees.lastFilter.Status)
	assert.Equal(t, model.StatusActive, *f.employees.lastFilter.Status)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/employees/emp-1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/employees/ghost", "").Code)

	rec = f.do(t, http.MethodPost, "/api/v1/employees/emp-1/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"inactive"`)

	rec = f.do(t, http.MethodPost, "/api/v1/employees/emp-1/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"active"`)

	rec = f.do(t, http.MethodPost, "/api/v1/employees/emp-1/enrollment", `{"fingerprintId":"fp-42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fp-42", f.employees.enrolled)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/employees/emp-1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/v1/employees/ghost", "").Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())

	down := NewHandler(Dependencies{DB: stubPinger{err: errors.New("down")}})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodPut, "/api/v1/clocking-logs", "").Code)
}
