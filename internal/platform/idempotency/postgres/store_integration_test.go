//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	idempostgres "github.com/Apurer/retail-ops/internal/platform/idempotency/postgres"
	"github.com/Apurer/retail-ops/internal/platform/postgres/postgrestest"
)

func TestIdempotencyStore_SaveReplayAndConflict(t *testing.T) {
	db, _ := postgrestest.Start(t)
	store := idempostgres.NewStore(db)
	ctx := context.Background()

	missing, err := store.Get(ctx, idempotency.ScopeStores, "key-1")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, idempotency.Remember(ctx, store, idempotency.ScopeStores, "key-1", "hash-a", "store-1"))
	// Same key in another scope is independent.
	require.NoError(t, idempotency.Remember(ctx, store, idempotency.ScopeAgents, "key-1", "hash-b", "agent-1"))

	id, err := idempotency.Lookup(ctx, store, idempotency.ScopeStores, "key-1", "hash-a")
	require.NoError(t, err)
	require.Equal(t, "store-1", id)

	_, err = idempotency.Lookup(ctx, store, idempotency.ScopeStores, "key-1", "hash-other")
	require.ErrorIs(t, err, idempotency.ErrConflict)

	existing, err := store.Save(ctx, idempotency.Record{Scope: idempotency.ScopeStores, Key: "key-1", RequestHash: "hash-a", ResourceID: "store-2"})
	require.ErrorIs(t, err, idempotency.ErrConflict)
	require.Equal(t, "store-1", existing.ResourceID)

	replayed, err := store.Save(ctx, idempotency.Record{Scope: idempotency.ScopeStores, Key: "key-1", RequestHash: "hash-a", ResourceID: "store-1"})
	require.NoError(t, err)
	require.Equal(t, "store-1", replayed.ResourceID)
}
