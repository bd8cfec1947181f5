package ports

import (
	"context"
	"fmt"

	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var ErrNotFound = fmt.Errorf("agent %w", failure.ErrNotFound)

// Filter narrows List.
type Filter struct {
	AvailableOnly bool
}

// Repository persists delivery agents.
type Repository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Get(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context, filter Filter) ([]*domain.Agent, error)
	Update(ctx context.Context, agent *domain.Agent) error
	Delete(ctx context.Context, id string) error
	LoginEmailTaken(ctx context.Context, email string) (bool, error)
}

// Service defines the agent use cases exposed to adapters.
type Service interface {
	CreateAgent(ctx context.Context, input agenttypes.CreateAgentInput) (*agenttypes.ProvisionResult, error)
	UpdateAgent(ctx context.Context, input agenttypes.UpdateAgentInput) (*domain.Agent, error)
	SetAvailability(ctx context.Context, agentID string, available bool) (*domain.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*domain.Agent, error)
	ListAgents(ctx context.Context, filter Filter) ([]*domain.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
}
