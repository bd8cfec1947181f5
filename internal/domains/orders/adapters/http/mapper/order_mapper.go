package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
)

// Location is the delivery destination on the wire.
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Timestamps lists when each status was entered.
type Timestamps struct {
	Accepted  *time.Time `json:"accepted,omitempty"`
	Rejected  *time.Time `json:"rejected,omitempty"`
	Packaged  *time.Time `json:"packaged,omitempty"`
	Onway     *time.Time `json:"onway,omitempty"`
	Delivered *time.Time `json:"delivered,omitempty"`
}

type LineItem struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"productId"`
	Name            string           `json:"name"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	Quantity        int              `json:"quantity"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	Status          string           `json:"status"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	UpdatedPrice    *decimal.Decimal `json:"updatedPrice,omitempty"`
}

type StoreOrder struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"orderId"`
	StoreID    string     `json:"storeId"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	Timestamps Timestamps `json:"timestamps"`
	Total      string     `json:"total"`
	Items      []LineItem `json:"items"`
}

type Order struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	CreatedAt         time.Time         `json:"createdAt"`
	Status            string            `json:"status"`
	StoreStatuses     map[string]string `json:"storeStatuses"`
	DeliveryAgentID   *string           `json:"deliveryAgentId,omitempty"`
	DeliveryAgentName string            `json:"deliveryAgentName,omitempty"`
	Location          Location          `json:"location"`
	Timestamps        Timestamps        `json:"timestamps"`
}

// OrderView is an order joined with its store orders.
type OrderView struct {
	Order
	Ready       bool         `json:"ready"`
	StoreOrders []StoreOrder `json:"storeOrders"`
}

// OrderResult wraps an order with the warnings of the workflow that produced it.
type OrderResult struct {
	Order    Order    `json:"order"`
	Warnings []string `json:"warnings,omitempty"`
}

// DecisionResult is returned after a line item decision.
type DecisionResult struct {
	StoreOrder   StoreOrder `json:"storeOrder"`
	ProductStock *int       `json:"productStock,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
}

type PlaceOrderRequest struct {
	UserID      string                   `json:"userId" binding:"required"`
	Location    Location                 `json:"location"`
	StoreOrders []PlaceStoreOrderRequest `json:"storeOrders" binding:"required"`
}

type PlaceStoreOrderRequest struct {
	StoreID string                 `json:"storeId"`
	Items   []PlaceLineItemRequest `json:"items"`
}

type PlaceLineItemRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

type AssignRequest struct {
	AgentID string `json:"agentId" binding:"required"`
}

type AcceptRequest struct {
	UpdatedPrice *decimal.Decimal `json:"updatedPrice,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ToPlaceOrderInput converts the request body into the application input.
func ToPlaceOrderInput(req PlaceOrderRequest) ordertypes.PlaceOrderInput {
	input := ordertypes.PlaceOrderInput{
		UserID:   strings.TrimSpace(req.UserID),
		Location: domain.Location{Address: req.Location.Address, Lat: req.Location.Lat, Lng: req.Location.Lng},
	}
	for _, so := range req.StoreOrders {
		storeInput := ordertypes.StoreOrderInput{StoreID: strings.TrimSpace(so.StoreID)}
		for _, item := range so.Items {
			storeInput.Items = append(storeInput.Items, ordertypes.LineItemInput{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				ImageURL:  item.ImageURL,
			})
		}
		input.StoreOrders = append(input.StoreOrders, storeInput)
	}
	return input
}

func FromTimestamps(ts domain.Timestamps) Timestamps {
	return Timestamps{
		Accepted:  ts.Accepted,
		Rejected:  ts.Rejected,
		Packaged:  ts.Packaged,
		Onway:     ts.Onway,
		Delivered: ts.Delivered,
	}
}

func FromOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	statuses := make(map[string]string, len(order.StoreStatuses))
	for storeID, status := range order.StoreStatuses {
		statuses[storeID] = string(status)
	}
	return Order{
		ID:                order.ID,
		UserID:            order.UserID,
		CreatedAt:         order.CreatedAt,
		Status:            string(order.Status),
		StoreStatuses:     statuses,
		DeliveryAgentID:   order.DeliveryAgentID,
		DeliveryAgentName: order.DeliveryAgentName,
		Location:          Location{Address: order.Location.Address, Lat: order.Location.Lat, Lng: order.Location.Lng},
		Timestamps:        FromTimestamps(order.Timestamps),
	}
}

func FromOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromOrder(order))
	}
	return out
}

func FromStoreOrder(so *domain.StoreOrder) StoreOrder {
	if so == nil {
		return StoreOrder{}
	}
	items := make([]LineItem, 0, len(so.Items))
	for _, item := range so.Items {
		items = append(items, LineItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			ImageURL:        item.ImageURL,
			Status:          string(item.Status),
			RejectionReason: item.RejectionReason,
			UpdatedPrice:    item.UpdatedPrice,
		})
	}
	return StoreOrder{
		ID:         so.ID,
		OrderID:    so.OrderID,
		StoreID:    so.StoreID,
		Status:     string(so.Status),
		CreatedAt:  so.CreatedAt,
		Timestamps: FromTimestamps(so.Timestamps),
		Total:      so.Total().StringFixed(2),
		Items:      items,
	}
}

func FromStoreOrders(storeOrders []*domain.StoreOrder) []StoreOrder {
	out := make([]StoreOrder, 0, len(storeOrders))
	for _, so := range storeOrders {
		out = append(out, FromStoreOrder(so))
	}
	return out
}

func FromView(view *ordertypes.OrderView) OrderView {
	if view == nil {
		return OrderView{}
	}
	return OrderView{Order: FromOrder(view.Order), Ready: view.Ready, StoreOrders: FromStoreOrders(view.StoreOrders)}
}

func FromViews(views []*ordertypes.OrderView) []OrderView {
	out := make([]OrderView, 0, len(views))
	for _, view := range views {
		out = append(out, FromView(view))
	}
	return out
}

func FromOrderResult(result *ordertypes.OrderResult) OrderResult {
	return OrderResult{Order: FromOrder(result.Order), Warnings: result.Warnings}
}

func FromDecision(result *ordertypes.DecisionResult) DecisionResult {
	return DecisionResult{
		StoreOrder:   FromStoreOrder(result.StoreOrder),
		ProductStock: result.ProductStock,
		Warnings:     result.Warnings,
	}
}
