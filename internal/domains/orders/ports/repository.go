package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var (
	ErrNotFound           = fmt.Errorf("order %w", failure.ErrNotFound)
	ErrStoreOrderNotFound = fmt.Errorf("store order %w", failure.ErrNotFound)
	// ErrStaleWrite is returned when a guarded write lost against a concurrent update.
	ErrStaleWrite = fmt.Errorf("%w: document changed concurrently", failure.ErrConflict)
	// ErrAlreadyAssigned is returned when another agent was bound first.
	ErrAlreadyAssigned = fmt.Errorf("%w: order already assigned", failure.ErrConflict)
)

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	Status     *domain.Status
	StoreID    string
	AgentID    string
	Unassigned bool
	Limit      int
}

// StoreOrderFilter narrows ListStoreOrders. Zero values match everything.
type StoreOrderFilter struct {
	StoreID string
	Status  *domain.Status
	Limit   int
}

// AgentBinding is the data written when an agent is bound to an order.
type AgentBinding struct {
	AgentID   string
	AgentName string
	At        time.Time
}

// Repository persists orders, store orders and line items.
//
// SaveOrder and SaveStoreOrder are guarded writes: they succeed only when the
// stored Version equals the Version of the argument and return ErrStaleWrite otherwise.
// On success the argument's Version is advanced.
type Repository interface {
	Create(ctx context.Context, order *domain.Order, storeOrders []*domain.StoreOrder) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	SaveOrder(ctx context.Context, order *domain.Order) error

	GetStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error)
	ListStoreOrdersByOrder(ctx context.Context, orderIDs ...string) (map[string][]*domain.StoreOrder, error)
	ListStoreOrders(ctx context.Context, filter StoreOrderFilter) ([]*domain.StoreOrder, error)
	SaveStoreOrder(ctx context.Context, storeOrder *domain.StoreOrder) error

	// BindAgent atomically binds an agent when none is bound and the order is not rejected.
	// It returns ErrAlreadyAssigned when the condition no longer holds.
	BindAgent(ctx context.Context, orderID string, binding AgentBinding) (*domain.Order, error)
}
