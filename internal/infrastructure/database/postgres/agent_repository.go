package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"microfinance-backend/internal/domain/agent"
	"microfinance-backend/internal/pkg/apperrors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, agent_id, name, phone, email, status, created_at`

type AgentRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ agent.Repository = (*AgentRepository)(nil)

func NewAgentRepository(db DBPool, logger *slog.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger.With("component", "AgentRepository")}
}

func scanAgent(row pgx.Row) (*agent.Agent, error) {
	var a agent.Agent
	if err := row.Scan(&a.ID, &a.AgentID, &a.Name, &a.Phone, &a.Email, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAgent relies on the unique agent_id index; a clash comes back as
// ErrAlreadyExists.
func (r *AgentRepository) CreateAgent(ctx context.Context, a *agent.Agent) (*agent.Agent, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `
        INSERT INTO agents (id, agent_id, name, phone, email, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING ` + agentColumns

	startTime := time.Now()
	created, err := scanAgent(r.db.QueryRow(ctx, query, a.ID, a.AgentID, a.Name, a.Phone, a.Email, a.Status))
	observe("InsertAgent", startTime, err)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Agent created in DB", "agent_id", created.AgentID)
	return created, nil
}

func (r *AgentRepository) ListAgents(ctx context.Context) ([]*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query agents", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	agents := make([]*agent.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan agent row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		agents = append(agents, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return agents, nil
}

func (r *AgentRepository) GetAgentByCode(ctx context.Context, agentID string) (*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE agent_id = $1`

	startTime := time.Now()
	a, err := scanAgent(r.db.QueryRow(ctx, query, agentID))
	observe("GetAgentByCode", startTime, err)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return a, nil
}

func (r *AgentRepository) AgentCodeExists(ctx context.Context, agentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM agents WHERE agent_id = $1)`, agentID).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check agent code", "agent_id", agentID, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return exists, nil
}

// FindByCredentials is a plaintext match on phone and agent code.
func (r *AgentRepository) FindByCredentials(ctx context.Context, phone, agentID string) (*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE phone = $1 AND agent_id = $2`

	a, err := scanAgent(r.db.QueryRow(ctx, query, phone, agentID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return a, nil
}

func (r *AgentRepository) ListAgentCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT agent_id FROM agents ORDER BY agent_id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query agent codes", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return codes, nil
}
