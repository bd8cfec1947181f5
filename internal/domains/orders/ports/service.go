package ports

import (
	"context"

	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
)

// Service defines the orders use cases exposed to adapters (inbound/driving port).
type Service interface {
	PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error)
	GetOrder(ctx context.Context, orderID string) (*ordertypes.OrderView, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	ListStoreOrders(ctx context.Context, filter StoreOrderFilter) ([]*domain.StoreOrder, error)

	AcceptLineItem(ctx context.Context, input ordertypes.AcceptLineItemInput) (*ordertypes.DecisionResult, error)
	RejectLineItem(ctx context.Context, input ordertypes.RejectLineItemInput) (*ordertypes.DecisionResult, error)
	RecomputeStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error)
	ReconcilePending(ctx context.Context) (int, error)
	TransitionStoreOrder(ctx context.Context, input ordertypes.TransitionInput) (*domain.StoreOrder, error)

	ReadyForAssignment(ctx context.Context) ([]*ordertypes.OrderView, error)
	Assign(ctx context.Context, input ordertypes.AssignInput) (*ordertypes.OrderResult, error)
	MarkDelivered(ctx context.Context, orderID string) (*ordertypes.OrderResult, error)

	OrderQR(ctx context.Context, orderID string) (string, error)
	LineItemQR(ctx context.Context, input ordertypes.LineItemQRInput) ([]byte, error)
}
