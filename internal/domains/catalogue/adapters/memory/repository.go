package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
)

type productKey struct {
	storeID   string
	productID string
}

// Repository keeps the catalogue in memory. Products are indexed by (store, product)
// so stock adjustments never scan categories.
type Repository struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
	products   map[productKey]*domain.Product
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		categories: make(map[string]*domain.Category),
		products:   make(map[productKey]*domain.Product),
	}
}

func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.StoreID == category.StoreID && existing.Name == category.Name {
			return ports.ErrDuplicateName
		}
	}
	copy := *category
	r.categories[category.ID] = &copy
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, storeID, categoryID string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[categoryID]
	if !ok || category.StoreID != storeID {
		return nil, ports.ErrCategoryNotFound
	}
	copy := *category
	return &copy, nil
}

func (r *Repository) ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*domain.Category, 0)
	for _, category := range r.categories {
		if category.StoreID != storeID {
			continue
		}
		copy := *category
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, storeID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[categoryID]
	if !ok || category.StoreID != storeID {
		return ports.ErrCategoryNotFound
	}
	for key, product := range r.products {
		if key.storeID == storeID && product.CategoryID == categoryID {
			return ports.ErrCategoryInUse
		}
	}
	delete(r.categories, categoryID)
	return nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *product
	r.products[productKey{product.StoreID, product.ID}] = &copy
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := productKey{product.StoreID, product.ID}
	stored, ok := r.products[key]
	if !ok {
		return ports.ErrProductNotFound
	}
	copy := *product
	// Stock only moves through AdjustStock.
	copy.Stock = stored.Stock
	r.products[key] = &copy
	product.Stock = stored.Stock
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productKey{storeID, productID}]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	copy := *product
	return &copy, nil
}

func (r *Repository) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*domain.Product, 0)
	for key, product := range r.products {
		if key.storeID != filter.StoreID {
			continue
		}
		if filter.CategoryID != "" && product.CategoryID != filter.CategoryID {
			continue
		}
		copy := *product
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, storeID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := productKey{storeID, productID}
	if _, ok := r.products[key]; !ok {
		return ports.ErrProductNotFound
	}
	delete(r.products, key)
	return nil
}

func (r *Repository) AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productKey{storeID, productID}]
	if !ok {
		return 0, ports.ErrProductNotFound
	}
	product.Stock = domain.ClampStock(product.Stock, delta)
	return product.Stock, nil
}

var _ ports.Repository = (*Repository)(nil)
