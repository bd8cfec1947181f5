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

	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/retail-ops/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
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
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder",
		attribute.String("user.id", input.UserID),
		attribute.Int("order.store_count", len(input.StoreOrders)),
	)
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("user.id", input.UserID), slog.Int("stores", len(input.StoreOrders)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("user.id", input.UserID))
	}
	s.metrics.recordPlaced(ctx)
	span.SetAttributes(attribute.String("order.id", result.Order.ID))
	s.logInfo(ctx, "order placed", slog.String("order.id", result.Order.ID))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.String("order.id", orderID))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Order.Status)), attribute.Bool("order.ready", result.Ready))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders", attribute.String("store.id", filter.StoreID))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) ListStoreOrders(ctx context.Context, filter ports.StoreOrderFilter) ([]*domain.StoreOrder, error) {
	ctx, span := s.startSpan(ctx, "Service.ListStoreOrders", attribute.String("store.id", filter.StoreID))
	defer span.End()

	result, err := s.inner.ListStoreOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list store orders", slog.String("store.id", filter.StoreID))
	}
	span.SetAttributes(attribute.Int("store_order.result.count", len(result)))
	return result, nil
}

func (s *Service) AcceptLineItem(ctx context.Context, input ordertypes.AcceptLineItemInput) (*ordertypes.DecisionResult, error) {
	attrs := []slog.Attr{slog.String("order.id", input.OrderID), slog.String("store.id", input.StoreID), slog.String("item.id", input.ItemID)}
	ctx, span := s.startSpan(ctx, "Service.AcceptLineItem",
		attribute.String("order.id", input.OrderID),
		attribute.String("store.id", input.StoreID),
		attribute.String("item.id", input.ItemID),
	)
	defer span.End()

	s.logInfo(ctx, "accepting line item", attrs...)
	result, err := s.inner.AcceptLineItem(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to accept line item", attrs...)
	}
	s.metrics.recordDecision(ctx, domain.StatusAccepted)
	if result.ProductStock != nil {
		attrs = append(attrs, slog.Int("product.stock", *result.ProductStock))
	}
	s.logInfo(ctx, "line item accepted", attrs...)
	return result, nil
}

func (s *Service) RejectLineItem(ctx context.Context, input ordertypes.RejectLineItemInput) (*ordertypes.DecisionResult, error) {
	attrs := []slog.Attr{slog.String("order.id", input.OrderID), slog.String("store.id", input.StoreID), slog.String("item.id", input.ItemID)}
	ctx, span := s.startSpan(ctx, "Service.RejectLineItem",
		attribute.String("order.id", input.OrderID),
		attribute.String("store.id", input.StoreID),
		attribute.String("item.id", input.ItemID),
	)
	defer span.End()

	s.logInfo(ctx, "rejecting line item", attrs...)
	result, err := s.inner.RejectLineItem(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reject line item", attrs...)
	}
	s.metrics.recordDecision(ctx, domain.StatusRejected)
	for _, warning := range result.Warnings {
		s.logger.LogAttrs(ctx, slog.LevelWarn, warning, attrs...)
	}
	s.logInfo(ctx, "line item rejected", append(attrs, slog.String("store_order.status", string(result.StoreOrder.Status)))...)
	return result, nil
}

func (s *Service) RecomputeStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error) {
	ctx, span := s.startSpan(ctx, "Service.RecomputeStoreOrder", attribute.String("order.id", orderID), attribute.String("store.id", storeID))
	defer span.End()

	result, err := s.inner.RecomputeStoreOrder(ctx, orderID, storeID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to recompute store order", slog.String("order.id", orderID), slog.String("store.id", storeID))
	}
	span.SetAttributes(attribute.String("store_order.status", string(result.Status)))
	return result, nil
}

func (s *Service) ReconcilePending(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "Service.ReconcilePending")
	defer span.End()

	s.logInfo(ctx, "reconciling pending orders")
	changed, err := s.inner.ReconcilePending(ctx)
	span.SetAttributes(attribute.Int("reconcile.changed", changed))
	if err != nil {
		return changed, s.handleError(ctx, span, err, "reconciliation incomplete", slog.Int("changed", changed))
	}
	s.logInfo(ctx, "reconciled pending orders", slog.Int("changed", changed))
	return changed, nil
}

func (s *Service) TransitionStoreOrder(ctx context.Context, input ordertypes.TransitionInput) (*domain.StoreOrder, error) {
	attrs := []slog.Attr{slog.String("order.id", input.OrderID), slog.String("store.id", input.StoreID), slog.String("to", string(input.To))}
	ctx, span := s.startSpan(ctx, "Service.TransitionStoreOrder",
		attribute.String("order.id", input.OrderID),
		attribute.String("store.id", input.StoreID),
		attribute.String("store_order.to", string(input.To)),
	)
	defer span.End()

	s.logInfo(ctx, "transitioning store order", attrs...)
	result, err := s.inner.TransitionStoreOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to transition store order", attrs...)
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "store order transitioned", attrs...)
	return result, nil
}

func (s *Service) ReadyForAssignment(ctx context.Context) ([]*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "Service.ReadyForAssignment")
	defer span.End()

	result, err := s.inner.ReadyForAssignment(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders ready for assignment")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) Assign(ctx context.Context, input ordertypes.AssignInput) (*ordertypes.OrderResult, error) {
	attrs := []slog.Attr{slog.String("order.id", input.OrderID), slog.String("agent.id", input.AgentID)}
	ctx, span := s.startSpan(ctx, "Service.Assign", attribute.String("order.id", input.OrderID), attribute.String("agent.id", input.AgentID))
	defer span.End()

	s.logInfo(ctx, "assigning order", attrs...)
	result, err := s.inner.Assign(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to assign order", attrs...)
	}
	s.metrics.recordAssigned(ctx)
	for _, warning := range result.Warnings {
		s.logger.LogAttrs(ctx, slog.LevelWarn, warning, attrs...)
	}
	s.logInfo(ctx, "order assigned", attrs...)
	return result, nil
}

func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*ordertypes.OrderResult, error) {
	ctx, span := s.startSpan(ctx, "Service.MarkDelivered", attribute.String("order.id", orderID))
	defer span.End()

	result, err := s.inner.MarkDelivered(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark order delivered", slog.String("order.id", orderID))
	}
	s.metrics.recordDelivered(ctx)
	for _, warning := range result.Warnings {
		s.logger.LogAttrs(ctx, slog.LevelWarn, warning, slog.String("order.id", orderID))
	}
	s.logInfo(ctx, "order delivered", slog.String("order.id", orderID))
	return result, nil
}

func (s *Service) OrderQR(ctx context.Context, orderID string) (string, error) {
	ctx, span := s.startSpan(ctx, "Service.OrderQR", attribute.String("order.id", orderID))
	defer span.End()

	result, err := s.inner.OrderQR(ctx, orderID)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to build order qr payload", slog.String("order.id", orderID))
	}
	return result, nil
}

func (s *Service) LineItemQR(ctx context.Context, input ordertypes.LineItemQRInput) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "Service.LineItemQR",
		attribute.String("order.id", input.OrderID),
		attribute.String("product.id", input.ProductID),
		attribute.String("qr.action", string(input.Action)),
	)
	defer span.End()

	result, err := s.inner.LineItemQR(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to build line item qr payload", slog.String("order.id", input.OrderID))
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced     metric.Int64Counter
	itemDecisions    metric.Int64Counter
	storeTransitions metric.Int64Counter
	ordersAssigned   metric.Int64Counter
	ordersDelivered  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	decisions, _ := m.Int64Counter("orders.service.item_decisions", metric.WithDescription("Line item accept/reject decisions"))
	transitions, _ := m.Int64Counter("orders.service.store_transitions", metric.WithDescription("Staff-driven store order transitions"))
	assigned, _ := m.Int64Counter("orders.service.assigned", metric.WithDescription("Orders bound to a delivery agent"))
	delivered, _ := m.Int64Counter("orders.service.delivered", metric.WithDescription("Orders delivered"))
	return serviceMetrics{
		ordersPlaced:     placed,
		itemDecisions:    decisions,
		storeTransitions: transitions,
		ordersAssigned:   assigned,
		ordersDelivered:  delivered,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	addCounter(ctx, m.ordersPlaced, 1)
}

func (m serviceMetrics) recordDecision(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.itemDecisions, 1, attribute.String("line_item.status", string(status)))
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.storeTransitions, 1, attribute.String("store_order.status", string(status)))
}

func (m serviceMetrics) recordAssigned(ctx context.Context) {
	addCounter(ctx, m.ordersAssigned, 1)
}

func (m serviceMetrics) recordDelivered(ctx context.Context) {
	addCounter(ctx, m.ordersDelivered, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
