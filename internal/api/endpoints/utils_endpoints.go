package endpoints

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type UtilsEndpoints interface {
	Status(http.ResponseWriter, *http.Request) error
	Health(http.ResponseWriter, *http.Request) error
}

type utilsEndpoints struct {
	checks map[string]HealthCheck
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewUtilsEndpoints(checks map[string]HealthCheck) UtilsEndpoints {
	return &utilsEndpoints{checks: checks}
}

func (h *utilsEndpoints) Status(w http.ResponseWriter, r *http.Request) error {
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Server is live"})
}

func (h *utilsEndpoints) Health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	return WriteJSON(w, status, resp)
}
