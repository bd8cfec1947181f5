package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
)

// PlaceOrderInput seeds an order with its store orders.
type PlaceOrderInput struct {
	UserID      string
	Location    domain.Location
	StoreOrders []StoreOrderInput
}

// StoreOrderInput is the portion of a new order handled by one store.
type StoreOrderInput struct {
	StoreID string
	Items   []LineItemInput
}

// LineItemInput is the checkout snapshot of a product.
type LineItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
}

// OrderView joins an order with its store orders.
type OrderView struct {
	Order       *domain.Order
	StoreOrders []*domain.StoreOrder
	Ready       bool
}

// AcceptLineItemInput identifies the item a store accepts.
type AcceptLineItemInput struct {
	StoreID      string
	OrderID      string
	ItemID       string
	UpdatedPrice *decimal.Decimal
}

// RejectLineItemInput identifies the item a store rejects.
type RejectLineItemInput struct {
	StoreID string
	OrderID string
	ItemID  string
	Reason  string
}

// TransitionInput is a staff-driven store order status change.
type TransitionInput struct {
	StoreID string
	OrderID string
	To      domain.Status
}

// DecisionResult is returned after a line item decision.
type DecisionResult struct {
	StoreOrder *domain.StoreOrder
	// ProductStock is the catalogue stock after an acceptance, when known.
	ProductStock *int
	// Warnings lists follow-up steps that did not complete.
	Warnings []string
}

// AssignInput binds an agent to an order.
type AssignInput struct {
	OrderID string
	AgentID string
}

// OrderResult is returned by order-level workflows.
type OrderResult struct {
	Order    *domain.Order
	Warnings []string
}

// LineItemQRInput selects the payload for a line item QR code.
type LineItemQRInput struct {
	OrderID   string
	ProductID string
	Action    domain.QRAction
}
