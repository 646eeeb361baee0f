package handler

import (
	"fmt"
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/config"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/pkg/apperrors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

const (
	RoleManager = "manager"
	RoleAgent   = "agent"
)

type AuthHandler struct {
	cfg          config.AuthConfig
	agentService agent.AgentService
	logger       *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, as agent.AgentService, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		agentService: as,
		logger:       l.With("component", "AuthHandler"),
	}
}

func (h *AuthHandler) issueToken(subject, role string) (string, error) {
	if h.cfg.JWTSecret == "" {
		return "", fmt.Errorf("%w: jwt secret is not configured", apperrors.ErrInternalServer)
	}
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: could not sign token: %w", apperrors.ErrInternalServer, err)
	}
	return "Bearer " + signed, nil
}

// GenerateBearerToken issues a manager token.
//
// @Summary Generate a JWT bearer token
// @Description Issues a manager bearer token signed with the configured secret.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} map[string]string "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/manager/auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode request body", "error", err)
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	token, err := h.issueToken(req.Username, RoleManager)
	if err != nil {
		h.logger.Error("Failed to issue token", "error", err)
		respondError(w, err)
		return
	}
	h.logger.Info("Issued manager token", "username", req.Username)
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// AgentLogin handles POST /auth/agent
// @Summary Agent login
// @Description Matches the agent's phone and code. A token is returned when a signing secret is configured.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.AgentLoginRequest true "Credentials"
// @Success 200 {object} dto.AgentLoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/manager/auth/agent [post]
func (h *AuthHandler) AgentLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.AgentLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	a, err := h.agentService.Login(r.Context(), req.Mobile, req.AgentID)
	if err != nil {
		logServiceError(r, h.logger, "Agent login failed", err)
		respondError(w, err)
		return
	}

	resp := dto.AgentLoginResponse{
		Success: true,
		Agent:   dto.NewAgentResponse(a),
		Message: "Login successful",
	}
	if h.cfg.JWTSecret != "" {
		token, err := h.issueToken(a.AgentID, RoleAgent)
		if err != nil {
			respondError(w, err)
			return
		}
		resp.Token = token
	}
	h.logger.InfoContext(r.Context(), "Agent logged in", slog.String("agentID", a.AgentID))
	respondJSON(w, http.StatusOK, resp)
}
