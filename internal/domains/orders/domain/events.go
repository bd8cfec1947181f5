package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlaced is raised when an order and its store orders are created.
type OrderPlaced struct {
	BaseEvent
	OrderID  string
	UserID   string
	StoreIDs []string
}

func (e OrderPlaced) EventName() string { return "orders.order.placed" }

// LineItemDecided is raised when a store accepts or rejects a line item.
type LineItemDecided struct {
	BaseEvent
	OrderID      string
	StoreOrderID string
	StoreID      string
	ItemID       string
	ProductID    string
	Status       Status
	Reason       string
}

func (e LineItemDecided) EventName() string { return "orders.line_item.decided" }

// StoreOrderStatusChanged is raised when a store order moves to a new status.
type StoreOrderStatusChanged struct {
	BaseEvent
	OrderID        string
	StoreOrderID   string
	StoreID        string
	Status         Status
	PreviousStatus Status
}

func (e StoreOrderStatusChanged) EventName() string { return "orders.store_order.status_changed" }

// OrderStatusChanged is raised when the overall order status or its store status map changes.
type OrderStatusChanged struct {
	BaseEvent
	OrderID       string
	Status        Status
	StoreStatuses map[string]Status
}

func (e OrderStatusChanged) EventName() string { return "orders.order.status_changed" }

// OrderAssigned is raised when a delivery agent is bound to an order.
type OrderAssigned struct {
	BaseEvent
	OrderID   string
	AgentID   string
	AgentName string
}

func (e OrderAssigned) EventName() string { return "orders.order.assigned" }

// OrderDelivered is raised when an order reaches the customer.
type OrderDelivered struct {
	BaseEvent
	OrderID string
	AgentID string
}

func (e OrderDelivered) EventName() string { return "orders.order.delivered" }
