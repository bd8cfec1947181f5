package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrEmptyUserID       = errors.New("order user id is required")
	ErrNoStoreOrders     = errors.New("order must contain at least one store order")
	ErrDuplicateStore    = errors.New("order contains the same store twice")
	ErrInvalidLocation   = errors.New("delivery location is invalid")
	ErrAlreadyAssigned   = errors.New("order already assigned")
	ErrNotReady          = errors.New("order is not ready for assignment")
	ErrEmptyAgentID      = errors.New("delivery agent id is required")
	ErrAgentInconsistent = errors.New("delivery agent binding does not match order status")
	ErrUnknownStore      = errors.New("store is not part of the order")
)

// Location is the delivery destination.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Validate checks coordinate ranges. The zero location is accepted.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidLocation, l.Lat, l.Lng)
	}
	return nil
}

// Order is a customer purchase spanning one or more stores.
type Order struct {
	ID                string
	UserID            string
	CreatedAt         time.Time
	Status            Status
	StoreStatuses     map[string]Status
	DeliveryAgentID   *string
	DeliveryAgentName string
	Location          Location
	Timestamps        Timestamps
	Version           int64
}

// NewOrder builds a pending order whose status map covers every given store.
func NewOrder(id, userID string, location Location, storeIDs []string, createdAt time.Time) (*Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	if len(storeIDs) == 0 {
		return nil, ErrNoStoreOrders
	}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	statuses := make(map[string]Status, len(storeIDs))
	for _, storeID := range storeIDs {
		if strings.TrimSpace(storeID) == "" {
			return nil, ErrEmptyStoreID
		}
		if _, dup := statuses[storeID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStore, storeID)
		}
		statuses[storeID] = StatusPending
	}
	return &Order{
		ID:            id,
		UserID:        userID,
		CreatedAt:     createdAt.UTC(),
		Status:        StatusPending,
		StoreStatuses: statuses,
		Location:      location,
	}, nil
}

// Validate checks the agent binding invariant: an agent is bound exactly when
// the order is on its way or delivered.
func (o *Order) Validate() error {
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	bound := o.DeliveryAgentID != nil
	inTransit := o.Status == StatusOnway || o.Status == StatusDelivered
	if bound != inTransit {
		return ErrAgentInconsistent
	}
	return nil
}

// ApplyStoreStatus records a store's status in the order map and derives the overall status.
// It reports whether anything changed.
func (o *Order) ApplyStoreStatus(storeID string, status Status, at time.Time) (bool, error) {
	current, ok := o.StoreStatuses[storeID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownStore, storeID)
	}
	if progress(status) < progress(current) {
		return false, nil
	}
	changed := current != status
	o.StoreStatuses[storeID] = status

	next := o.deriveStatus()
	if next != o.Status {
		o.Status = next
		o.Timestamps.Stamp(next, at)
		changed = true
	}
	return changed, nil
}

// progress orders statuses along the fulfilment chain so stale map updates can be ignored.
func progress(status Status) int {
	switch status {
	case StatusAccepted, StatusRejected:
		return 1
	case StatusPackaged:
		return 2
	case StatusOnway:
		return 3
	case StatusDelivered:
		return 4
	default:
		return 0
	}
}

// deriveStatus only moves a pending order: rejected when every store rejected,
// accepted once every store decided and at least one accepted.
func (o *Order) deriveStatus() Status {
	if o.Status != StatusPending {
		return o.Status
	}
	statuses := make([]Status, 0, len(o.StoreStatuses))
	for _, status := range o.StoreStatuses {
		statuses = append(statuses, status)
	}
	if AllRejected(statuses) {
		return StatusRejected
	}
	if AllDecided(statuses) {
		return StatusAccepted
	}
	return o.Status
}

// BindAgent assigns the delivery agent and moves the order on its way.
func (o *Order) BindAgent(agentID, agentName string, at time.Time) error {
	if strings.TrimSpace(agentID) == "" {
		return ErrEmptyAgentID
	}
	if o.DeliveryAgentID != nil {
		return ErrAlreadyAssigned
	}
	if o.Status == StatusRejected || o.Status.Terminal() {
		return fmt.Errorf("%w: order is %s", ErrNotReady, o.Status)
	}
	id := agentID
	o.DeliveryAgentID = &id
	o.DeliveryAgentName = agentName
	o.Status = StatusOnway
	o.Timestamps.Stamp(StatusOnway, at)
	return nil
}

// MarkDelivered completes an order that is on its way.
func (o *Order) MarkDelivered(at time.Time) error {
	if err := checkTransition(o.Status, StatusDelivered); err != nil {
		return err
	}
	o.Status = StatusDelivered
	o.Timestamps.Stamp(StatusDelivered, at)
	return nil
}

// Clone deep copies the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	out.Timestamps = o.Timestamps.Clone()
	out.StoreStatuses = make(map[string]Status, len(o.StoreStatuses))
	for k, v := range o.StoreStatuses {
		out.StoreStatuses[k] = v
	}
	if o.DeliveryAgentID != nil {
		id := *o.DeliveryAgentID
		out.DeliveryAgentID = &id
	}
	return &out
}

// AllDecided reports whether no status is pending. An empty list is not decided.
func AllDecided(statuses []Status) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if !status.Decided() {
			return false
		}
	}
	return true
}

// AllRejected reports whether every status is rejected. An empty list is not rejected.
func AllRejected(statuses []Status) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if status != StatusRejected {
			return false
		}
	}
	return true
}

// ReadyForAssignment reports whether an agent may be bound to the order: every
// store order has been decided, the order is not rejected and no agent is bound.
func ReadyForAssignment(order *Order, storeOrders []*StoreOrder) bool {
	if order == nil || order.DeliveryAgentID != nil || order.Status == StatusRejected {
		return false
	}
	if order.Status != StatusPending && order.Status != StatusAccepted {
		return false
	}
	statuses := make([]Status, 0, len(storeOrders))
	for _, so := range storeOrders {
		if so == nil || so.OrderID != order.ID {
			continue
		}
		statuses = append(statuses, so.Status)
	}
	return AllDecided(statuses) && !AllRejected(statuses)
}
