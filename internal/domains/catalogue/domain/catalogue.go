package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyStoreID    = errors.New("store id is required")
	ErrEmptyName       = errors.New("name is required")
	ErrEmptyCategoryID = errors.New("category id is required")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrNegativeStock   = errors.New("stock must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrDeltaOutOfRange = errors.New("stock delta is out of range")
)

// MaxStock is the ceiling a stock level saturates at; it matches the integer
// column the level is stored in.
const MaxStock = math.MaxInt32

// Category groups a store's products.
type Category struct {
	ID        string
	StoreID   string
	Name      string
	ImageURL  string
	CreatedAt time.Time
}

// NewCategory validates and builds a category.
func NewCategory(id, storeID, name, imageURL string, createdAt time.Time) (*Category, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, ErrEmptyStoreID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Category{ID: id, StoreID: storeID, Name: name, ImageURL: strings.TrimSpace(imageURL), CreatedAt: createdAt.UTC()}, nil
}

// Product is a catalogue entry with the store's current stock level.
type Product struct {
	ID          string
	StoreID     string
	CategoryID  string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.StoreID) == "" {
		return ErrEmptyStoreID
	}
	if strings.TrimSpace(p.CategoryID) == "" {
		return ErrEmptyCategoryID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// ValidateDelta rejects corrections larger than any stock level can hold.
func ValidateDelta(delta int) error {
	if delta > MaxStock || delta < -MaxStock {
		return ErrDeltaOutOfRange
	}
	return nil
}

// ClampStock applies delta to current, staying within [0, MaxStock] without
// overflowing on extreme inputs.
func ClampStock(current, delta int) int {
	switch {
	case delta > 0 && current > MaxStock-delta:
		return MaxStock
	case delta < 0 && current < -delta:
		return 0
	}
	next := current + delta
	if next > MaxStock {
		return MaxStock
	}
	if next < 0 {
		return 0
	}
	return next
}

// StockChanged is raised whenever a product's stock level moves.
type StockChanged struct {
	StoreID   string
	ProductID string
	Stock     int
	Delta     int
	At        time.Time
}
