package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyProductID  = errors.New("line item product id is required")
	ErrInvalidQuantity = errors.New("line item quantity must be greater than zero")
	ErrNegativePrice   = errors.New("price must not be negative")
)

// LineItem is one product entry within a store order. Its ProductID references
// the store's catalogue product; the remaining fields are a snapshot taken at checkout.
type LineItem struct {
	ID              string
	ProductID       string
	Name            string
	UnitPrice       decimal.Decimal
	Quantity        int
	ImageURL        string
	Status          Status
	RejectionReason string
	UpdatedPrice    *decimal.Decimal
}

// Validate enforces checkout invariants.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.ProductID) == "" {
		return ErrEmptyProductID
	}
	if li.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if li.UnitPrice.IsNegative() {
		return ErrNegativePrice
	}
	if li.UpdatedPrice != nil && li.UpdatedPrice.IsNegative() {
		return ErrNegativePrice
	}
	if !li.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Accept records the store's acceptance, optionally with a revised unit price.
func (li *LineItem) Accept(updatedPrice *decimal.Decimal) error {
	if err := checkTransition(li.Status, StatusAccepted); err != nil {
		return err
	}
	if updatedPrice != nil {
		if updatedPrice.IsNegative() {
			return ErrNegativePrice
		}
		price := *updatedPrice
		li.UpdatedPrice = &price
	}
	li.Status = StatusAccepted
	return nil
}

// Reject records the store's rejection. A rejected item carries no revised price.
func (li *LineItem) Reject(reason string) error {
	if err := checkTransition(li.Status, StatusRejected); err != nil {
		return err
	}
	li.Status = StatusRejected
	li.RejectionReason = strings.TrimSpace(reason)
	li.UpdatedPrice = nil
	return nil
}

// follow moves a non-rejected item along with its store order.
func (li *LineItem) follow(to Status) {
	if li.Status == StatusRejected || li.Status == to {
		return
	}
	if CanTransition(li.Status, to) {
		li.Status = to
	}
}

// EffectiveQuantity is the quantity that still counts against stock.
func (li LineItem) EffectiveQuantity() int {
	if li.Status == StatusRejected {
		return 0
	}
	return li.Quantity
}

// EffectivePrice is the revised price when present, otherwise the checkout price.
func (li LineItem) EffectivePrice() decimal.Decimal {
	if li.UpdatedPrice != nil {
		return *li.UpdatedPrice
	}
	return li.UnitPrice
}

// Subtotal is the price of the item's effective quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.EffectivePrice().Mul(decimal.NewFromInt(int64(li.EffectiveQuantity())))
}

func (li LineItem) clone() LineItem {
	out := li
	if li.UpdatedPrice != nil {
		price := *li.UpdatedPrice
		out.UpdatedPrice = &price
	}
	return out
}
