package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// Repository keeps orders in memory. Every read returns a copy and every guarded
// write compares versions under the lock.
type Repository struct {
	mu          sync.RWMutex
	orders      map[string]*domain.Order
	storeOrders map[string]*domain.StoreOrder
	byOrder     map[string][]string
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		orders:      make(map[string]*domain.Order),
		storeOrders: make(map[string]*domain.StoreOrder),
		byOrder:     make(map[string][]string),
	}
}

func storeOrderKey(orderID, storeID string) string { return orderID + "/" + storeID }

func (r *Repository) Create(ctx context.Context, order *domain.Order, storeOrders []*domain.StoreOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return failure.Conflict(fmt.Errorf("order %s already exists", order.ID))
	}
	order.Version = 1
	r.orders[order.ID] = order.Clone()
	for _, so := range storeOrders {
		so.Version = 1
		key := storeOrderKey(so.OrderID, so.StoreID)
		r.storeOrders[key] = so.Clone()
		r.byOrder[so.OrderID] = append(r.byOrder[so.OrderID], key)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if !matchesOrder(order, filter) {
			continue
		}
		result = append(result, order.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchesOrder(order *domain.Order, filter ports.OrderFilter) bool {
	if filter.Status != nil && order.Status != *filter.Status {
		return false
	}
	if filter.StoreID != "" {
		if _, ok := order.StoreStatuses[filter.StoreID]; !ok {
			return false
		}
	}
	if filter.AgentID != "" && (order.DeliveryAgentID == nil || *order.DeliveryAgentID != filter.AgentID) {
		return false
	}
	if filter.Unassigned && order.DeliveryAgentID != nil {
		return false
	}
	return true
}

func (r *Repository) SaveOrder(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if stored.Version != order.Version {
		return ports.ErrStaleWrite
	}
	order.Version++
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *Repository) GetStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	so, ok := r.storeOrders[storeOrderKey(orderID, storeID)]
	if !ok {
		return nil, ports.ErrStoreOrderNotFound
	}
	return so.Clone(), nil
}

func (r *Repository) ListStoreOrdersByOrder(ctx context.Context, orderIDs ...string) (map[string][]*domain.StoreOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string][]*domain.StoreOrder, len(orderIDs))
	for _, orderID := range orderIDs {
		for _, key := range r.byOrder[orderID] {
			result[orderID] = append(result[orderID], r.storeOrders[key].Clone())
		}
	}
	return result, nil
}

func (r *Repository) ListStoreOrders(ctx context.Context, filter ports.StoreOrderFilter) ([]*domain.StoreOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.StoreOrder, 0)
	for _, so := range r.storeOrders {
		if filter.StoreID != "" && so.StoreID != filter.StoreID {
			continue
		}
		if filter.Status != nil && so.Status != *filter.Status {
			continue
		}
		result = append(result, so.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *Repository) SaveStoreOrder(ctx context.Context, so *domain.StoreOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := storeOrderKey(so.OrderID, so.StoreID)
	stored, ok := r.storeOrders[key]
	if !ok {
		return ports.ErrStoreOrderNotFound
	}
	if stored.Version != so.Version {
		return ports.ErrStaleWrite
	}
	so.Version++
	r.storeOrders[key] = so.Clone()
	return nil
}

func (r *Repository) BindAgent(ctx context.Context, orderID string, binding ports.AgentBinding) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.DeliveryAgentID != nil {
		return nil, ports.ErrAlreadyAssigned
	}
	if stored.Status == domain.StatusRejected {
		return nil, failure.Conflict(domain.ErrNotReady)
	}
	order := stored.Clone()
	if err := order.BindAgent(binding.AgentID, binding.AgentName, binding.At); err != nil {
		return nil, err
	}
	order.Version++
	r.orders[orderID] = order.Clone()
	return order, nil
}

var _ ports.Repository = (*Repository)(nil)
