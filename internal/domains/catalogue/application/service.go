package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	cataloguetypes "github.com/Apurer/retail-ops/internal/domains/catalogue/application/types"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// Service orchestrates the catalogue bounded context use cases.
type Service struct {
	repo      ports.Repository
	publisher changefeed.Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithPublisher wires the change feed used to broadcast stock levels.
func WithPublisher(publisher changefeed.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the catalogue service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: changefeed.Discard,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.publisher == nil {
		s.publisher = changefeed.Discard
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) CreateCategory(ctx context.Context, input cataloguetypes.CategoryInput) (*domain.Category, error) {
	category, err := domain.NewCategory(s.newID(), input.StoreID, input.Name, input.ImageURL, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, mapError(err)
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx, storeID)
	if err != nil {
		return nil, mapError(err)
	}
	return categories, nil
}

func (s *Service) DeleteCategory(ctx context.Context, storeID, categoryID string) error {
	return mapError(s.repo.DeleteCategory(ctx, storeID, categoryID))
}

func (s *Service) CreateProduct(ctx context.Context, input cataloguetypes.ProductInput) (*domain.Product, error) {
	now := s.now().UTC()
	product := &domain.Product{
		ID:          s.newID(),
		StoreID:     input.StoreID,
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.repo.GetCategory(ctx, product.StoreID, product.CategoryID); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, product, changefeed.KindCreated)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, input cataloguetypes.UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, input.StoreID, input.ProductID)
	if err != nil {
		return nil, mapError(err)
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		if _, err := s.repo.GetCategory(ctx, product.StoreID, *input.CategoryID); err != nil {
			return nil, mapError(err)
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	product.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, product, changefeed.KindUpdated)
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	if strings.TrimSpace(filter.StoreID) == "" {
		return nil, mapError(domain.ErrEmptyStoreID)
	}
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

func (s *Service) DeleteProduct(ctx context.Context, storeID, productID string) error {
	if err := s.repo.DeleteProduct(ctx, storeID, productID); err != nil {
		return mapError(err)
	}
	s.publish(ctx, &domain.Product{ID: productID, StoreID: storeID}, changefeed.KindDeleted)
	return nil
}

// OnAccept decrements the product's stock by the accepted quantity, never below zero.
func (s *Service) OnAccept(ctx context.Context, storeID, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, mapError(domain.ErrInvalidQuantity)
	}
	if err := domain.ValidateDelta(-quantity); err != nil {
		return 0, mapError(err)
	}
	return s.adjust(ctx, storeID, productID, -quantity)
}

// AdjustStock applies a manual stock correction, clamped at zero.
func (s *Service) AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error) {
	if err := domain.ValidateDelta(delta); err != nil {
		return 0, mapError(err)
	}
	return s.adjust(ctx, storeID, productID, delta)
}

func (s *Service) adjust(ctx context.Context, storeID, productID string, delta int) (int, error) {
	stock, err := s.repo.AdjustStock(ctx, storeID, productID, delta)
	if err != nil {
		return 0, mapError(err)
	}
	s.publishStock(ctx, domain.StockChanged{StoreID: storeID, ProductID: productID, Stock: stock, Delta: delta, At: s.now().UTC()})
	return stock, nil
}

func (s *Service) publish(ctx context.Context, product *domain.Product, kind changefeed.Kind) {
	change := changefeed.Change{
		Collection: changefeed.CollectionCatalogueProducts,
		DocumentID: product.ID,
		ParentID:   product.StoreID,
		Kind:       kind,
		At:         s.now().UTC(),
	}
	if kind != changefeed.KindDeleted {
		change.Fields = map[string]any{
			"name":       product.Name,
			"categoryId": product.CategoryID,
			"price":      product.Price.StringFixed(2),
			"stock":      product.Stock,
		}
	}
	s.send(ctx, change)
}

func (s *Service) publishStock(ctx context.Context, event domain.StockChanged) {
	s.send(ctx, changefeed.Change{
		Collection: changefeed.CollectionCatalogueProducts,
		DocumentID: event.ProductID,
		ParentID:   event.StoreID,
		Kind:       changefeed.KindUpdated,
		Fields:     map[string]any{"stock": event.Stock, "delta": event.Delta},
		At:         event.At,
	})
}

func (s *Service) send(ctx context.Context, change changefeed.Change) {
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "failed to publish catalogue change",
			slog.String("product.id", change.DocumentID),
			slog.String("error", err.Error()))
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if failure.Kind(err) != nil {
		return err
	}
	if errors.Is(err, ports.ErrCategoryInUse) {
		return failure.Conflict(err)
	}
	for _, target := range []error{
		domain.ErrEmptyStoreID,
		domain.ErrEmptyName,
		domain.ErrEmptyCategoryID,
		domain.ErrNegativePrice,
		domain.ErrNegativeStock,
		domain.ErrInvalidQuantity,
		domain.ErrDeltaOutOfRange,
	} {
		if errors.Is(err, target) {
			return failure.Validation(err)
		}
	}
	return fmt.Errorf("catalogue: %w", err)
}

var _ ports.Service = (*Service)(nil)
