package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"clockwise.service/internal/core"
	"clockwise.service/internal/core/model"
)

// ClockingService is what the clocking endpoints need from the core.
type ClockingService interface {
	Submit(ctx context.Context, sub model.ClockingSubmission) (*model.ClockingLog, error)
	ListLogs(ctx context.Context, filter core.LogFilter) ([]*model.ClockingLog, error)
	Stats(ctx context.Context, now time.Time) (model.Stats, error)
}

type ClockingHandler struct {
	Service ClockingService
	Now     func() time.Time
}

// SubmitClockingEvent records a clock-in/clock-out pair.
func (h *ClockingHandler) SubmitClockingEvent(w http.ResponseWriter, r *http.Request) {
	var req model.ClockingSubmission
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	clockingLog, err := h.Service.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, clockingLog)
}

// ListClockingLogs returns recent logs, optionally for one employee or only anomalies.
func (h *ClockingHandler) ListClockingLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.LogFilter{EmployeeID: q.Get("employeeId")}

	if raw := q.Get("anomalies"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, &core.ValidationError{Field: "anomalies", Reason: "must be true or false"})
			return
		}
		filter.AnomaliesOnly = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, &core.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		filter.Limit = v
	}

	logs, err := h.Service.ListLogs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// GetStats returns the dashboard counters.
func (h *ClockingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	stats, err := h.Service.Stats(r.Context(), now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
