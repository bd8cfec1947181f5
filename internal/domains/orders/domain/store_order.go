package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyStoreID      = errors.New("store order store id is required")
	ErrEmptyItems        = errors.New("store order must contain at least one line item")
	ErrItemNotFound      = errors.New("line item not found in store order")
	ErrUndecidedItems    = errors.New("store order still has pending line items")
	ErrNothingAccepted   = errors.New("store order has no accepted line items")
	ErrAcceptedItems     = errors.New("store order already has accepted line items")
	ErrDuplicateLineItem = errors.New("line item id is duplicated")
)

// StoreOrder is the portion of an order fulfilled by a single store.
type StoreOrder struct {
	ID         string
	OrderID    string
	StoreID    string
	Status     Status
	CreatedAt  time.Time
	Timestamps Timestamps
	Items      []LineItem
	Version    int64
}

// Validate enforces the structural invariants of a store order.
func (so *StoreOrder) Validate() error {
	if strings.TrimSpace(so.StoreID) == "" {
		return ErrEmptyStoreID
	}
	if len(so.Items) == 0 {
		return ErrEmptyItems
	}
	seen := make(map[string]struct{}, len(so.Items))
	for _, item := range so.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", item.ProductID, err)
		}
		if item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLineItem, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	if !so.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Item returns the line item with the given id.
func (so *StoreOrder) Item(itemID string) (*LineItem, error) {
	for i := range so.Items {
		if so.Items[i].ID == itemID {
			return &so.Items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
}

// ItemStatuses lists the status of every line item in order.
func (so *StoreOrder) ItemStatuses() []Status {
	out := make([]Status, 0, len(so.Items))
	for _, item := range so.Items {
		out = append(out, item.Status)
	}
	return out
}

// Total sums the subtotals of every non-rejected item.
func (so *StoreOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range so.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// AggregateStatus derives a store order status from its line items. It returns
// rejected when every item is rejected and otherwise leaves current unchanged.
// An empty item list never causes a rejection.
func AggregateStatus(current Status, items []Status) Status {
	if len(items) == 0 {
		return current
	}
	for _, status := range items {
		if status != StatusRejected {
			return current
		}
	}
	if current == StatusRejected || CanTransition(current, StatusRejected) {
		return StatusRejected
	}
	return current
}

// Recompute applies AggregateStatus to the store order and reports whether the status changed.
func (so *StoreOrder) Recompute(at time.Time) bool {
	next := AggregateStatus(so.Status, so.ItemStatuses())
	if next == so.Status {
		return false
	}
	so.Status = next
	so.Timestamps.Stamp(next, at)
	return true
}

// Settled reports whether a pending store order has no pending items left and
// at least one accepted item, which is the store's acceptance of its portion.
func (so *StoreOrder) Settled() bool {
	if so.Status != StatusPending {
		return false
	}
	return so.acceptable() == nil
}

func (so *StoreOrder) acceptable() error {
	accepted := false
	for _, item := range so.Items {
		switch item.Status {
		case StatusPending:
			return ErrUndecidedItems
		case StatusAccepted:
			accepted = true
		}
	}
	if !accepted {
		return ErrNothingAccepted
	}
	return nil
}

// Transition applies a staff-driven status change.
func (so *StoreOrder) Transition(to Status, at time.Time) error {
	if err := checkTransition(so.Status, to); err != nil {
		return err
	}
	switch to {
	case StatusAccepted:
		if err := so.acceptable(); err != nil {
			return err
		}
	case StatusRejected:
		for _, item := range so.Items {
			if item.Status == StatusAccepted {
				return ErrAcceptedItems
			}
		}
		for i := range so.Items {
			if so.Items[i].Status == StatusPending {
				_ = so.Items[i].Reject("rejected by store")
			}
		}
	default:
		for i := range so.Items {
			so.Items[i].follow(to)
		}
	}
	so.Status = to
	so.Timestamps.Stamp(to, at)
	return nil
}

// Clone deep copies the store order.
func (so *StoreOrder) Clone() *StoreOrder {
	if so == nil {
		return nil
	}
	out := *so
	out.Timestamps = so.Timestamps.Clone()
	out.Items = make([]LineItem, 0, len(so.Items))
	for _, item := range so.Items {
		out.Items = append(out.Items, item.clone())
	}
	return &out
}
