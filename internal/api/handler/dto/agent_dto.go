package dto

import (
	"microfinance-backend/internal/domain/agent"
	"time"
)

type CreateAgentRequest struct {
	Name    string `json:"name"`
	AgentID string `json:"agentId"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Status  string `json:"status" validate:"omitempty,oneof=active on_leave inactive"`
}

func (r *CreateAgentRequest) Validate() error {
	return validateStruct(r)
}

func (r *CreateAgentRequest) ToParams() agent.CreateParams {
	return agent.CreateParams{
		Name:    r.Name,
		AgentID: r.AgentID,
		Phone:   r.Phone,
		Email:   r.Email,
		Status:  agent.Status(r.Status),
	}
}

type AgentResponse struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewAgentResponse(a *agent.Agent) AgentResponse {
	return AgentResponse{
		ID:        a.ID,
		AgentID:   a.AgentID,
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

func NewAgentResponses(agents []*agent.Agent) []AgentResponse {
	resp := make([]AgentResponse, len(agents))
	for i, a := range agents {
		resp[i] = NewAgentResponse(a)
	}
	return resp
}

type AgentLoginRequest struct {
	Mobile  string `json:"mobile"`
	AgentID string `json:"agentId"`
}

type AgentLoginResponse struct {
	Success bool          `json:"success"`
	Agent   AgentResponse `json:"agent"`
	Message string        `json:"message"`
	Token   string        `json:"token"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
}

func (r *TokenRequest) Validate() error {
	return validateStruct(r)
}
