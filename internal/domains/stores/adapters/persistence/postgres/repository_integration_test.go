//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storepostgres "github.com/Apurer/retail-ops/internal/domains/stores/adapters/persistence/postgres"
	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/domains/stores/ports"
	"github.com/Apurer/retail-ops/internal/platform/postgres/postgrestest"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func newStore(id, loginEmail string, status domain.Status, created time.Time) *domain.Store {
	return &domain.Store{
		ID:           id,
		Name:         "Corner Shop " + id,
		AddressLine1: "Main St 1",
		Category:     "grocery",
		ContactEmail: "owner@example.com",
		LoginEmail:   loginEmail,
		PasswordHash: "$2a$10$hash",
		Status:       status,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestStoreRepository_CreateGetAndLoginUniqueness(t *testing.T) {
	db, _ := postgrestest.Start(t)
	repo := storepostgres.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	store := newStore("s1", "cornershop0001@stores.example.com", domain.StatusActive, now)
	store.Location = &domain.Location{Lat: 52.23, Lng: 21.01}
	require.NoError(t, repo.Create(ctx, store))

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, store.Name, loaded.Name)
	require.NotNil(t, loaded.Location)
	assert.InDelta(t, 52.23, loaded.Location.Lat, 1e-9)

	taken, err := repo.LoginEmailTaken(ctx, "CornerShop0001@stores.example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	dup := newStore("s2", "cornershop0001@stores.example.com", domain.StatusActive, now)
	require.ErrorIs(t, repo.Create(ctx, dup), failure.ErrConflict)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStoreRepository_UpdateAndFilter(t *testing.T) {
	db, _ := postgrestest.Start(t)
	repo := storepostgres.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.Create(ctx, newStore("s1", "a0001@stores.example.com", domain.StatusActive, now)))
	require.NoError(t, repo.Create(ctx, newStore("s2", "b0001@stores.example.com", domain.StatusActive, now.Add(time.Minute))))

	suspended := newStore("s2", "ignored@stores.example.com", domain.StatusSuspended, now)
	suspended.UpdatedAt = now.Add(2 * time.Minute)
	require.NoError(t, repo.Update(ctx, suspended))

	loaded, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, loaded.Status)
	assert.Equal(t, "b0001@stores.example.com", loaded.LoginEmail)

	status := domain.StatusActive
	active, err := repo.List(ctx, ports.Filter{Status: &status})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s1", active[0].ID)

	require.ErrorIs(t, repo.Update(ctx, newStore("ghost", "x@y", domain.StatusActive, now)), ports.ErrNotFound)
}
