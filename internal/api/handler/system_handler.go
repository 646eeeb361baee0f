package handler

import (
	"context"
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"net/http"
	"time"
)

// PingFunc checks one backing service.
type PingFunc func(ctx context.Context) error

type SystemHandler struct {
	checks map[string]PingFunc
	logger *slog.Logger
}

// NewSystemHandler takes the named health checks; a nil check is skipped.
func NewSystemHandler(checks map[string]PingFunc, l *slog.Logger) *SystemHandler {
	return &SystemHandler{checks: checks, logger: l.With("component", "SystemHandler")}
}

// Root handles GET /
// @Summary Service banner
// @Tags System
// @Produce json
// @Success 200 {object} dto.RootResponse
// @Router / [get]
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.RootResponse{
		Status:  "ok",
		Service: "microfinance-backend",
		Routes:  []string{"/health", "/metrics", "/swagger/", "/api/manager/*"},
	})
}

// Health handles GET /health
// @Summary Liveness with dependency checks
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Services: map[string]string{}}
	status := http.StatusOK
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "Health check failed", slog.String("service", name), slog.Any("error", err))
			resp.Services[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "up"
	}
	respondJSON(w, status, resp)
}

// Test handles GET /api/manager/test
// @Summary Connectivity probe
// @Tags System
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /api/manager/test [get]
func (h *SystemHandler) Test(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Manager API is working"})
}
