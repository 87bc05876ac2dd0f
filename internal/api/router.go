package api

import (
	"net/http"
	"time"

	"clockwise.service/internal/api/handler"
	"clockwise.service/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Dependencies are the services behind the HTTP API.
type Dependencies struct {
	Clocking  handler.ClockingService
	Employees handler.EmployeeService
	DB        handler.Pinger
	Now       func() time.Time
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(deps Dependencies) *mux.Router {
	clockingHandler := &handler.ClockingHandler{Service: deps.Clocking, Now: deps.Now}
	employeeHandler := &handler.EmployeeHandler{Service: deps.Employees}
	healthHandler := &handler.HealthHandler{DB: deps.DB}

	r := mux.NewRouter()
	r.Use(loggerMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clocking-logs", clockingHandler.SubmitClockingEvent).Methods(http.MethodPost)
	api.HandleFunc("/clocking-logs", clockingHandler.ListClockingLogs).Methods(http.MethodGet)
	api.HandleFunc("/stats", clockingHandler.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/employees", employeeHandler.ListEmployees).Methods(http.MethodGet)
	api.HandleFunc("/employees", employeeHandler.CreateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}", employeeHandler.GetEmployee).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", employeeHandler.DeleteEmployee).Methods(http.MethodDelete)
	api.HandleFunc("/employees/{id}/activate", employeeHandler.ActivateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}/deactivate", employeeHandler.DeactivateEmployee).Methods(http.MethodPost)
	api.HandleFunc("/employees/{id}/enrollment", employeeHandler.CompleteEnrollment).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	return r
}

// NewHandler wraps the router with OpenTelemetry middleware to create spans for each request.
func NewHandler(deps Dependencies) http.Handler {
	return otelhttp.NewHandler(NewRouter(deps), "api")
}

// loggerMiddleware injects a logger carrying the trace ID and logs each request.
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.EnrichContextWithLogger(r.Context())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
