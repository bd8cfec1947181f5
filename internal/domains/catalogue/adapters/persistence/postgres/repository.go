package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

type categoryRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	StoreID   string    `gorm:"column:store_id;size:64"`
	Name      string    `gorm:"column:name"`
	ImageURL  string    `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (categoryRecord) TableName() string { return "catalogue_categories" }

type productRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:64"`
	StoreID     string          `gorm:"column:store_id;size:64"`
	CategoryID  string          `gorm:"column:category_id;size:64"`
	Name        string          `gorm:"column:name"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Stock       int             `gorm:"column:stock"`
	ImageURL    string          `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "catalogue_products" }

// Repository persists the catalogue in PostgreSQL using GORM.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository wires a PostgreSQL-backed catalogue repository. Migrations run elsewhere.
func NewRepository(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Repository.
type Option func(*Repository)

// WithQueryTimeout bounds every call the repository makes.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(r *Repository) { r.timeout = timeout }
}

func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return pgplatform.Bound(ctx, r.timeout)
}

func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := categoryRecord{
		ID:        category.ID,
		StoreID:   category.StoreID,
		Name:      category.Name,
		ImageURL:  category.ImageURL,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrDuplicateName
	}
	return external(err)
}

func (r *Repository) GetCategory(ctx context.Context, storeID, categoryID string) (*domain.Category, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var rec categoryRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ? AND store_id = ?", categoryID, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrCategoryNotFound
	}
	if err != nil {
		return nil, external(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var records []categoryRecord
	if err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("name").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	out := make([]*domain.Category, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

// DeleteCategory checks for products and deletes inside one transaction.
func (r *Repository) DeleteCategory(ctx context.Context, storeID, categoryID string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := pgplatform.WithRetry(ctx, r.db, pgplatform.DefaultTxOptions(), func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&productRecord{}).
			Where("store_id = ? AND category_id = ?", storeID, categoryID).
			Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ports.ErrCategoryInUse
		}
		result := tx.Where("id = ? AND store_id = ?", categoryID, storeID).Delete(&categoryRecord{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrCategoryNotFound
		}
		return nil
	})
	if errors.Is(err, ports.ErrCategoryInUse) || errors.Is(err, ports.ErrCategoryNotFound) {
		return err
	}
	return external(err)
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := toProductRecord(product)
	return external(r.db.WithContext(ctx).Create(&rec).Error)
}

// UpdateProduct never writes stock; stock moves through AdjustStock only.
func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var stock int
	result := r.db.WithContext(ctx).Raw(
		`UPDATE catalogue_products
		    SET category_id = ?, name = ?, description = ?, price = ?, image_url = ?, updated_at = ?
		  WHERE id = ? AND store_id = ?
		RETURNING stock`,
		product.CategoryID, product.Name, product.Description, product.Price, product.ImageURL,
		product.UpdatedAt, product.ID, product.StoreID,
	).Scan(&stock)
	if result.Error != nil {
		return external(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrProductNotFound
	}
	product.Stock = stock
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var rec productRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ? AND store_id = ?", productID, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrProductNotFound
	}
	if err != nil {
		return nil, external(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := r.db.WithContext(ctx).Where("store_id = ?", filter.StoreID)
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	var records []productRecord
	if err := query.Order("name").Order("id").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	out := make([]*domain.Product, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, storeID, productID string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	result := r.db.WithContext(ctx).Where("id = ? AND store_id = ?", productID, storeID).Delete(&productRecord{})
	if result.Error != nil {
		return external(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrProductNotFound
	}
	return nil
}

// AdjustStock is a single clamped UPDATE so concurrent acceptances never lose a decrement.
func (r *Repository) AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var stock int
	result := r.db.WithContext(ctx).Raw(
		`UPDATE catalogue_products
		    SET stock = LEAST(GREATEST(stock::bigint + ?, 0), ?), updated_at = NOW()
		  WHERE id = ? AND store_id = ?
		RETURNING stock`,
		delta, domain.MaxStock, productID, storeID,
	).Scan(&stock)
	if result.Error != nil {
		return 0, external(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ports.ErrProductNotFound
	}
	return stock, nil
}

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:          p.ID,
		StoreID:     p.StoreID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (rec categoryRecord) toDomain() *domain.Category {
	return &domain.Category{
		ID:        rec.ID,
		StoreID:   rec.StoreID,
		Name:      rec.Name,
		ImageURL:  rec.ImageURL,
		CreatedAt: rec.CreatedAt.UTC(),
	}
}

func (rec productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:          rec.ID,
		StoreID:     rec.StoreID,
		CategoryID:  rec.CategoryID,
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		Stock:       rec.Stock,
		ImageURL:    rec.ImageURL,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return failure.External("postgres", errors.New("catalogue repository not configured"))
	}
	return nil
}

func external(err error) error {
	if err == nil {
		return nil
	}
	return failure.External("postgres", err)
}
