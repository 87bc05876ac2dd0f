package handler

import (
	"context"
	"net/http"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
	"github.com/gorilla/mux"
)

// EmployeeService is what the directory endpoints need from the core.
type EmployeeService interface {
	AddEmployee(ctx context.Context, in core.NewEmployeeInput) (*model.Employee, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	ListEmployees(ctx context.Context, filter core.EmployeeFilter) ([]*model.Employee, error)
	ActivateEmployee(ctx context.Context, id string) (*model.Employee, error)
	DeactivateEmployee(ctx context.Context, id string) (*model.Employee, error)
	CompleteEnrollment(ctx context.Context, id, fingerprintID string) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type EmployeeHandler struct {
	Service EmployeeService
}

type EnrollmentRequest struct {
	FingerprintID string `json:"fingerprintId"`
}

func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var filter core.EmployeeFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.EmployeeStatus(raw)
		filter.Status = &status
	}

	employees, err := h.Service.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req core.NewEmployeeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	employee, err := h.Service.AddEmployee(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.GetEmployee(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteEmployee(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EmployeeHandler) ActivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.respondEmployee(w, r)(h.Service.ActivateEmployee(r.Context(), mux.Vars(r)["id"]))
}

func (h *EmployeeHandler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.respondEmployee(w, r)(h.Service.DeactivateEmployee(r.Context(), mux.Vars(r)["id"]))
}

func (h *EmployeeHandler) CompleteEnrollment(w http.ResponseWriter, r *http.Request) {
	var req EnrollmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondEmployee(w, r)(h.Service.CompleteEnrollment(r.Context(), mux.Vars(r)["id"], req.FingerprintID))
}

func (h *EmployeeHandler) respondEmployee(w http.ResponseWriter, r *http.Request) func(*model.Employee, error) {
	return func(employee *model.Employee, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, employee)
	}
}
