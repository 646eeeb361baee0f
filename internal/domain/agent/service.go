package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/pkg/apperrors"
	"strings"

	"github.com/jackc/pgx/v5"
)

type AgentService interface {
	CreateAgent(ctx context.Context, p CreateParams) (*Agent, error)

	ListAgents(ctx context.Context) ([]*Agent, error)

	GetAgent(ctx context.Context, agentID string) (*Agent, error)

	// Login matches phone and agent code as stored.
	Login(ctx context.Context, phone, agentID string) (*Agent, error)

	ListAgentCodes(ctx context.Context) ([]string, error)
}

type agentServiceImpl struct {
	repo     Repository
	generate CodeGenerator
	logger   *slog.Logger
}

func NewAgentService(r Repository, generate CodeGenerator, logger *slog.Logger) AgentService {
	if generate == nil {
		generate = RandomCode
	}
	return &agentServiceImpl{repo: r, generate: generate, logger: logger.With("component", "agent_service")}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func (s *agentServiceImpl) CreateAgent(ctx context.Context, p CreateParams) (*Agent, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	status := p.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown agent status %q", status))
	}

	code := strings.TrimSpace(p.AgentID)
	if code == "" {
		generated, err := s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	created, err := s.repo.CreateAgent(ctx, &Agent{
		AgentID: code,
		Name:    name,
		Phone:   strings.TrimSpace(p.Phone),
		Email:   strings.TrimSpace(p.Email),
		Status:  status,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: agent %s already exists", apperrors.ErrConflict, code)
		}
		s.logger.Error("Failed to create agent", "agentID", code, "error", err)
		return nil, fmt.Errorf("%w: failed to create agent: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Agent created", "agentID", created.AgentID)
	return created, nil
}

func (s *agentServiceImpl) uniqueCode(ctx context.Context) (string, error) {
	for range codeAttempts {
		candidate := s.generate()
		exists, err := s.repo.AgentCodeExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: failed to check agent code: %w", apperrors.ErrDatabase, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	s.logger.Error("Exhausted agent code attempts", "attempts", codeAttempts)
	return "", fmt.Errorf("%w: failed to generate unique agentId", apperrors.ErrInternalServer)
}

func (s *agentServiceImpl) ListAgents(ctx context.Context) ([]*Agent, error) {
	agents, err := s.repo.ListAgents(ctx)
	if err != nil {
		s.logger.Error("Failed to list agents", "error", err)
		return nil, fmt.Errorf("%w: failed to list agents: %w", apperrors.ErrDatabase, err)
	}
	return agents, nil
}

func (s *agentServiceImpl) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	a, err := s.repo.GetAgentByCode(ctx, agentID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("agent", agentID)
		}
		s.logger.Error("Failed to get agent", "agentID", agentID, "error", err)
		return nil, fmt.Errorf("%w: failed to get agent %s: %w", apperrors.ErrDatabase, agentID, err)
	}
	return a, nil
}

func (s *agentServiceImpl) Login(ctx context.Context, phone, agentID string) (*Agent, error) {
	phone, agentID = strings.TrimSpace(phone), strings.TrimSpace(agentID)
	if phone == "" || agentID == "" {
		return nil, apperrors.NewValidationError("", "Mobile number and Agent ID are required")
	}

	a, err := s.repo.FindByCredentials(ctx, phone, agentID)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("Agent login rejected", "agentID", agentID)
			return nil, fmt.Errorf("%w: Invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: login failed: %w", apperrors.ErrDatabase, err)
	}
	s.logger.Info("Agent logged in", "agentID", a.AgentID)
	return a, nil
}

func (s *agentServiceImpl) ListAgentCodes(ctx context.Context) ([]string, error) {
	codes, err := s.repo.ListAgentCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list agent codes: %w", apperrors.ErrDatabase, err)
	}
	return codes, nil
}
