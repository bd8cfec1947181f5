package mapper

import (
	"time"

	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
)

type Agent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	Available  bool      `json:"available"`
	LoginEmail string    `json:"loginEmail"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ProvisionResponse struct {
	Agent    Agent    `json:"agent"`
	Warnings []string `json:"warnings,omitempty"`
}

type CreateAgentRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Available *bool  `json:"available"`
}

type UpdateAgentRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Mobile *string `json:"mobile"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// ToCreateInput defaults availability to true when the field is omitted.
func ToCreateInput(req CreateAgentRequest, idempotencyKey string) agenttypes.CreateAgentInput {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return agenttypes.CreateAgentInput{
		Name:           req.Name,
		Email:          req.Email,
		Mobile:         req.Mobile,
		Available:      available,
		IdempotencyKey: idempotencyKey,
	}
}

func ToUpdateInput(agentID string, req UpdateAgentRequest) agenttypes.UpdateAgentInput {
	return agenttypes.UpdateAgentInput{AgentID: agentID, Name: req.Name, Email: req.Email, Mobile: req.Mobile}
}

func FromAgent(a *domain.Agent) Agent {
	return Agent{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Mobile:     a.Mobile,
		Available:  a.Available,
		LoginEmail: a.LoginEmail,
		CreatedAt:  a.CreatedAt,
	}
}

func FromAgents(agents []*domain.Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		out = append(out, FromAgent(a))
	}
	return out
}

func FromProvision(result *agenttypes.ProvisionResult) ProvisionResponse {
	return ProvisionResponse{Agent: FromAgent(result.Agent), Warnings: result.Warnings}
}
