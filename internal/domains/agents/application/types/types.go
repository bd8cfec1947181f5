package types

import "github.com/Apurer/retail-ops/internal/domains/agents/domain"

// CreateAgentInput provisions an agent; credentials go to Email.
type CreateAgentInput struct {
	Name           string
	Email          string
	Mobile         string
	Available      bool
	IdempotencyKey string
}

// UpdateAgentInput changes the provided fields only.
type UpdateAgentInput struct {
	AgentID string
	Name    *string
	Email   *string
	Mobile  *string
}

// ProvisionResult mirrors the stores result: warnings report a credential e-mail that was not sent.
type ProvisionResult struct {
	Agent    *domain.Agent
	Warnings []string
	Replayed bool
}
