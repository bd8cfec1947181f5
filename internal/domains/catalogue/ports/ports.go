package ports

import (
	"context"
	"errors"
	"fmt"

	cataloguetypes "github.com/Apurer/retail-ops/internal/domains/catalogue/application/types"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var (
	ErrCategoryNotFound = fmt.Errorf("category %w", failure.ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", failure.ErrNotFound)
	ErrDuplicateName    = fmt.Errorf("%w: a category with this name already exists", failure.ErrConflict)
	ErrCategoryInUse    = errors.New("category still has products")
)

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	StoreID    string
	CategoryID string
}

// Repository persists categories and products.
type Repository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, storeID, categoryID string) (*domain.Category, error)
	ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error)
	// DeleteCategory refuses with ErrCategoryInUse while products reference the category.
	DeleteCategory(ctx context.Context, storeID, categoryID string) error

	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, storeID, productID string) error

	// AdjustStock adds delta to the stock of the product identified by (store, product)
	// in a single atomic step, clamping at zero, and returns the new level.
	AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error)
}

// Service defines the catalogue use cases exposed to adapters.
type Service interface {
	CreateCategory(ctx context.Context, input cataloguetypes.CategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, storeID, categoryID string) error

	CreateProduct(ctx context.Context, input cataloguetypes.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, input cataloguetypes.UpdateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, storeID, productID string) error

	OnAccept(ctx context.Context, storeID, productID string, quantity int) (int, error)
	AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error)
}
