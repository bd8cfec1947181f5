// Package agents adapts the agents context to the orders AgentDirectory port.
package agents

import (
	"context"

	agentports "github.com/Apurer/retail-ops/internal/domains/agents/ports"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
)

type Directory struct {
	agents agentports.Service
}

func NewDirectory(agents agentports.Service) *Directory {
	return &Directory{agents: agents}
}

func (d *Directory) Get(ctx context.Context, agentID string) (*ports.Agent, error) {
	agent, err := d.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return &ports.Agent{ID: agent.ID, Name: agent.Name, Available: agent.Available}, nil
}

var _ ports.AgentDirectory = (*Directory)(nil)
