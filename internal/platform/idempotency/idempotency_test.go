package idempotency_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	"github.com/Apurer/retail-ops/internal/platform/idempotency/memory"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func TestFingerprintIsStable(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	a, err := idempotency.Fingerprint(payload{Name: "Ann", Email: "a@x"})
	require.NoError(t, err)
	b, err := idempotency.Fingerprint(payload{Name: "Ann", Email: "a@x"})
	require.NoError(t, err)
	c, err := idempotency.Fingerprint(payload{Name: "Bob", Email: "a@x"})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestLookupAndRemember(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	id, err := idempotency.Lookup(ctx, store, idempotency.ScopeStores, "k1", "h1")
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, idempotency.Remember(ctx, store, idempotency.ScopeStores, "k1", "h1", "store-1"))

	id, err = idempotency.Lookup(ctx, store, idempotency.ScopeStores, "k1", "h1")
	require.NoError(t, err)
	require.Equal(t, "store-1", id)

	_, err = idempotency.Lookup(ctx, store, idempotency.ScopeStores, "k1", "other")
	require.ErrorIs(t, err, failure.ErrConflict)

	// Scopes do not collide.
	id, err = idempotency.Lookup(ctx, store, idempotency.ScopeAgents, "k1", "h1")
	require.NoError(t, err)
	require.Empty(t, id)
}

func TestSaveConflictReturnsStored(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.Save(ctx, idempotency.Record{Scope: "stores", Key: "k", RequestHash: "h", ResourceID: "a"})
	require.NoError(t, err)

	existing, err := store.Save(ctx, idempotency.Record{Scope: "stores", Key: "k", RequestHash: "h", ResourceID: "b"})
	require.ErrorIs(t, err, idempotency.ErrConflict)
	require.Equal(t, "a", existing.ResourceID)
}
