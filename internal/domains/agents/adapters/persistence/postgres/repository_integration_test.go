//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	agentspostgres "github.com/Apurer/retail-ops/internal/domains/agents/adapters/persistence/postgres"
	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/domains/agents/ports"
	"github.com/Apurer/retail-ops/internal/platform/postgres/postgrestest"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func TestAgentRepository_Lifecycle(t *testing.T) {
	db, _ := postgrestest.Start(t)
	repo := agentspostgres.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	agent := &domain.Agent{ID: "agent-1", Name: "Ann", Email: "ann@example.com", Mobile: "+48 600", Available: true,
		LoginEmail: "ann0001@agents.example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, agent))

	taken, err := repo.LoginEmailTaken(ctx, "ANN0001@agents.example.com")
	require.NoError(t, err)
	require.True(t, taken)

	dup := *agent
	dup.ID = "agent-2"
	require.ErrorIs(t, repo.Create(ctx, &dup), failure.ErrConflict)

	agent.Available = false
	require.NoError(t, repo.Update(ctx, agent))
	available, err := repo.List(ctx, ports.Filter{AvailableOnly: true})
	require.NoError(t, err)
	require.Empty(t, available)

	require.NoError(t, repo.Delete(ctx, agent.ID))
	_, err = repo.Get(ctx, agent.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
