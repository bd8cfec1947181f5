package ports

import (
	"context"
	"fmt"

	storetypes "github.com/Apurer/retail-ops/internal/domains/stores/application/types"
	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/platform/geocode"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var ErrNotFound = fmt.Errorf("store %w", failure.ErrNotFound)

// Filter narrows List. A nil status lists every store.
type Filter struct {
	Status *domain.Status
}

// Repository persists stores.
type Repository interface {
	Create(ctx context.Context, store *domain.Store) error
	Get(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context, filter Filter) ([]*domain.Store, error)
	Update(ctx context.Context, store *domain.Store) error
	LoginEmailTaken(ctx context.Context, email string) (bool, error)
}

// Geocoder resolves store addresses. Forward returns nil and Reverse "" when nothing matches.
type Geocoder interface {
	Forward(ctx context.Context, address string) (*geocode.Coordinates, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Service defines the stores use cases exposed to adapters.
type Service interface {
	CreateStore(ctx context.Context, input storetypes.CreateStoreInput) (*storetypes.ProvisionResult, error)
	UpdateStore(ctx context.Context, input storetypes.UpdateStoreInput) (*storetypes.ProvisionResult, error)
	SetStoreStatus(ctx context.Context, storeID string, status domain.Status) (*domain.Store, error)
	GetStore(ctx context.Context, storeID string) (*domain.Store, error)
	ListStores(ctx context.Context, filter Filter) ([]*domain.Store, error)
	ResolveAddress(ctx context.Context, lat, lng float64) (string, error)
}
