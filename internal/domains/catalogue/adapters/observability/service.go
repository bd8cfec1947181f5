package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cataloguetypes "github.com/Apurer/retail-ops/internal/domains/catalogue/application/types"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	"github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
)

const tracerName = "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/observability/service"

// Service decorates the catalogue port with tracing, logging and a stock counter.
type Service struct {
	inner         ports.Service
	tracer        trace.Tracer
	logger        *slog.Logger
	stockMoves    metric.Int64Counter
	stockDepleted metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.stockMoves, _ = m.Int64Counter("catalogue.service.stock_adjustments", metric.WithDescription("Stock adjustments applied"))
		s.stockDepleted, _ = m.Int64Counter("catalogue.service.stock_depleted", metric.WithDescription("Adjustments that left a product at zero stock"))
	}
}

// New wires a decorator around the core catalogue service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) CreateCategory(ctx context.Context, input cataloguetypes.CategoryInput) (*domain.Category, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.CreateCategory", trace.WithAttributes(attribute.String("store.id", input.StoreID)))
	defer span.End()
	category, err := s.inner.CreateCategory(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to create category", slog.String("store.id", input.StoreID))
	}
	s.logger.InfoContext(ctx, "category created", slog.String("store.id", input.StoreID), slog.String("category.id", category.ID))
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, storeID string) ([]*domain.Category, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.ListCategories", trace.WithAttributes(attribute.String("store.id", storeID)))
	defer span.End()
	categories, err := s.inner.ListCategories(ctx, storeID)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to list categories", slog.String("store.id", storeID))
	}
	return categories, nil
}

func (s *Service) DeleteCategory(ctx context.Context, storeID, categoryID string) error {
	ctx, span := s.tracer.Start(ctx, "Catalogue.DeleteCategory", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("category.id", categoryID)))
	defer span.End()
	if err := s.inner.DeleteCategory(ctx, storeID, categoryID); err != nil {
		return s.fail(ctx, span, err, "failed to delete category", slog.String("category.id", categoryID))
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, input cataloguetypes.ProductInput) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.CreateProduct", trace.WithAttributes(attribute.String("store.id", input.StoreID)))
	defer span.End()
	product, err := s.inner.CreateProduct(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to create product", slog.String("store.id", input.StoreID))
	}
	s.logger.InfoContext(ctx, "product created", slog.String("store.id", input.StoreID), slog.String("product.id", product.ID))
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, input cataloguetypes.UpdateProductInput) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.UpdateProduct", trace.WithAttributes(
		attribute.String("store.id", input.StoreID), attribute.String("product.id", input.ProductID)))
	defer span.End()
	product, err := s.inner.UpdateProduct(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to update product", slog.String("product.id", input.ProductID))
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, storeID, productID string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.GetProduct", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("product.id", productID)))
	defer span.End()
	product, err := s.inner.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to load product", slog.String("product.id", productID))
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.ListProducts", trace.WithAttributes(attribute.String("store.id", filter.StoreID)))
	defer span.End()
	products, err := s.inner.ListProducts(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to list products", slog.String("store.id", filter.StoreID))
	}
	span.SetAttributes(attribute.Int("product.result.count", len(products)))
	return products, nil
}

func (s *Service) DeleteProduct(ctx context.Context, storeID, productID string) error {
	ctx, span := s.tracer.Start(ctx, "Catalogue.DeleteProduct", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("product.id", productID)))
	defer span.End()
	if err := s.inner.DeleteProduct(ctx, storeID, productID); err != nil {
		return s.fail(ctx, span, err, "failed to delete product", slog.String("product.id", productID))
	}
	return nil
}

func (s *Service) OnAccept(ctx context.Context, storeID, productID string, quantity int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.OnAccept", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("product.id", productID), attribute.Int("quantity", quantity)))
	defer span.End()
	stock, err := s.inner.OnAccept(ctx, storeID, productID, quantity)
	if err != nil {
		return 0, s.fail(ctx, span, err, "failed to decrement stock", slog.String("product.id", productID))
	}
	s.recordStock(ctx, span, "accept", stock)
	return stock, nil
}

func (s *Service) AdjustStock(ctx context.Context, storeID, productID string, delta int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Catalogue.AdjustStock", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("product.id", productID), attribute.Int("delta", delta)))
	defer span.End()
	stock, err := s.inner.AdjustStock(ctx, storeID, productID, delta)
	if err != nil {
		return 0, s.fail(ctx, span, err, "failed to adjust stock", slog.String("product.id", productID))
	}
	s.recordStock(ctx, span, "manual", stock)
	s.logger.InfoContext(ctx, "stock adjusted", slog.String("product.id", productID), slog.Int("delta", delta), slog.Int("stock", stock))
	return stock, nil
}

func (s *Service) recordStock(ctx context.Context, span trace.Span, reason string, stock int) {
	span.SetAttributes(attribute.Int("product.stock", stock))
	if s.stockMoves != nil {
		s.stockMoves.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	if stock == 0 && s.stockDepleted != nil {
		s.stockDepleted.Add(ctx, 1)
	}
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.ErrorContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
	return err
}

var _ ports.Service = (*Service)(nil)
