package agent

import "context"

type Repository interface {
	CreateAgent(ctx context.Context, a *Agent) (*Agent, error)

	ListAgents(ctx context.Context) ([]*Agent, error)

	GetAgentByCode(ctx context.Context, agentID string) (*Agent, error)

	AgentCodeExists(ctx context.Context, agentID string) (bool, error)

	FindByCredentials(ctx context.Context, phone, agentID string) (*Agent, error)

	ListAgentCodes(ctx context.Context) ([]string, error)
}
