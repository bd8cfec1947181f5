package types

import "github.com/shopspring/decimal"

// CategoryInput creates a category.
type CategoryInput struct {
	StoreID  string
	Name     string
	ImageURL string
}

// ProductInput creates a product.
type ProductInput struct {
	StoreID     string
	CategoryID  string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
}

// UpdateProductInput changes the provided fields only. Stock is changed through AdjustStock.
type UpdateProductInput struct {
	StoreID     string
	ProductID   string
	CategoryID  *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
}
