package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	cataloguetypes "github.com/Apurer/retail-ops/internal/domains/catalogue/application/types"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
)

type Category struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CategoryRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type ProductRequest struct {
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
}

// ProductPatch carries the optional fields of a product update.
type ProductPatch struct {
	CategoryID  *string          `json:"categoryId"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
}

type StockRequest struct {
	Delta int `json:"delta"`
}

type StockLevel struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

func ToCategoryInput(storeID string, req CategoryRequest) cataloguetypes.CategoryInput {
	return cataloguetypes.CategoryInput{StoreID: storeID, Name: req.Name, ImageURL: req.ImageURL}
}

func ToProductInput(storeID string, req ProductRequest) cataloguetypes.ProductInput {
	return cataloguetypes.ProductInput{
		StoreID:     storeID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
}

func ToUpdateInput(storeID, productID string, patch ProductPatch) cataloguetypes.UpdateProductInput {
	return cataloguetypes.UpdateProductInput{
		StoreID:     storeID,
		ProductID:   productID,
		CategoryID:  patch.CategoryID,
		Name:        patch.Name,
		Description: patch.Description,
		Price:       patch.Price,
		ImageURL:    patch.ImageURL,
	}
}

func FromCategory(c *domain.Category) Category {
	return Category{ID: c.ID, StoreID: c.StoreID, Name: c.Name, ImageURL: c.ImageURL, CreatedAt: c.CreatedAt}
}

func FromCategories(categories []*domain.Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, FromCategory(c))
	}
	return out
}

func FromProduct(p *domain.Product) Product {
	return Product{
		ID:          p.ID,
		StoreID:     p.StoreID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromProducts(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}
