package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	agentmemory "github.com/Apurer/retail-ops/internal/domains/agents/adapters/memory"
	agentapp "github.com/Apurer/retail-ops/internal/domains/agents/application"
	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/adapters/agents"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func TestDirectory_Get(t *testing.T) {
	svc := agentapp.NewService(agentmemory.NewRepository())
	created, err := svc.CreateAgent(context.Background(), agenttypes.CreateAgentInput{
		Name: "Ann Rider", Email: "ann@example.com", Mobile: "+48 600 100 200", Available: true,
	})
	require.NoError(t, err)

	dir := agents.NewDirectory(svc)
	agent, err := dir.Get(context.Background(), created.Agent.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann Rider", agent.Name)
	require.True(t, agent.Available)

	_, err = dir.Get(context.Background(), "missing")
	require.ErrorIs(t, err, failure.ErrNotFound)
}
