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

	storetypes "github.com/Apurer/retail-ops/internal/domains/stores/application/types"
	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/domains/stores/ports"
)

const tracerName = "github.com/Apurer/retail-ops/internal/domains/stores/adapters/observability/service"

// Service decorates the stores port with tracing, logging and provisioning counters.
type Service struct {
	inner       ports.Service
	tracer      trace.Tracer
	logger      *slog.Logger
	provisioned metric.Int64Counter
	warnings    metric.Int64Counter
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
		s.provisioned, _ = m.Int64Counter("stores.service.provisioned", metric.WithDescription("Stores created"))
		s.warnings, _ = m.Int64Counter("stores.service.warnings", metric.WithDescription("Degraded side effects during store provisioning"))
	}
}

// New wires a decorator around the core stores service.
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

func (s *Service) CreateStore(ctx context.Context, input storetypes.CreateStoreInput) (*storetypes.ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.CreateStore", trace.WithAttributes(
		attribute.String("store.category", input.Category),
		attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""),
	))
	defer span.End()

	s.logger.InfoContext(ctx, "provisioning store", slog.String("store.name", input.Name))
	result, err := s.inner.CreateStore(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to provision store", slog.String("store.name", input.Name))
	}
	span.SetAttributes(attribute.String("store.id", result.Store.ID), attribute.Bool("idempotency.replayed", result.Replayed))
	if !result.Replayed {
		s.count(ctx, s.provisioned)
	}
	s.warn(ctx, result, "store.id", result.Store.ID)
	s.logger.InfoContext(ctx, "store provisioned", slog.String("store.id", result.Store.ID), slog.Bool("replayed", result.Replayed))
	return result, nil
}

func (s *Service) UpdateStore(ctx context.Context, input storetypes.UpdateStoreInput) (*storetypes.ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.UpdateStore", trace.WithAttributes(attribute.String("store.id", input.StoreID)))
	defer span.End()
	result, err := s.inner.UpdateStore(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to update store", slog.String("store.id", input.StoreID))
	}
	s.warn(ctx, result, "store.id", input.StoreID)
	return result, nil
}

func (s *Service) SetStoreStatus(ctx context.Context, storeID string, status domain.Status) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.SetStoreStatus", trace.WithAttributes(
		attribute.String("store.id", storeID), attribute.String("store.status", string(status))))
	defer span.End()
	store, err := s.inner.SetStoreStatus(ctx, storeID, status)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to change store status", slog.String("store.id", storeID))
	}
	s.logger.InfoContext(ctx, "store status changed", slog.String("store.id", storeID), slog.String("status", string(store.Status)))
	return store, nil
}

func (s *Service) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.GetStore", trace.WithAttributes(attribute.String("store.id", storeID)))
	defer span.End()
	store, err := s.inner.GetStore(ctx, storeID)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to load store", slog.String("store.id", storeID))
	}
	return store, nil
}

func (s *Service) ListStores(ctx context.Context, filter ports.Filter) ([]*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.ListStores")
	defer span.End()
	stores, err := s.inner.ListStores(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to list stores")
	}
	span.SetAttributes(attribute.Int("store.result.count", len(stores)))
	return stores, nil
}

func (s *Service) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	ctx, span := s.tracer.Start(ctx, "Stores.ResolveAddress")
	defer span.End()
	address, err := s.inner.ResolveAddress(ctx, lat, lng)
	if err != nil {
		return "", s.fail(ctx, span, err, "failed to resolve address")
	}
	return address, nil
}

func (s *Service) warn(ctx context.Context, result *storetypes.ProvisionResult, key, id string) {
	for _, warning := range result.Warnings {
		s.logger.WarnContext(ctx, "store provisioning degraded", slog.String(key, id), slog.String("warning", warning))
		s.count(ctx, s.warnings, attribute.String("warning", warning))
	}
}

func (s *Service) count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.ErrorContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
	return err
}

var _ ports.Service = (*Service)(nil)
