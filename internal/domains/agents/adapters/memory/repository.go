package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/domains/agents/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps agents in memory.
type Repository struct {
	mu     sync.RWMutex
	agents map[string]domain.Agent
}

func NewRepository() *Repository {
	return &Repository{agents: map[string]domain.Agent{}}
}

func (r *Repository) Create(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[agent.ID]; ok {
		return failure.Conflict(fmt.Errorf("agent %s already exists", agent.ID))
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &agent, nil
}

func (r *Repository) List(_ context.Context, filter ports.Filter) ([]*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		if filter.AvailableOnly && !agent.Available {
			continue
		}
		agent := agent
		out = append(out, &agent)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) Update(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[agent.ID]; !ok {
		return ports.ErrNotFound
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.agents, id)
	return nil
}

func (r *Repository) LoginEmailTaken(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, agent := range r.agents {
		if strings.EqualFold(agent.LoginEmail, email) {
			return true, nil
		}
	}
	return false, nil
}
