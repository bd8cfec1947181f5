package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// guardedAttempts bounds the read-modify-write loops that follow a stale write.
const guardedAttempts = 3

// reconcileParallelism bounds concurrent recomputations during ReconcilePending.
const reconcileParallelism = 8

// Service orchestrates the orders bounded context use cases.
type Service struct {
	repo      ports.Repository
	agents    ports.AgentDirectory
	inventory ports.InventoryAdjuster
	publisher changefeed.Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithAgentDirectory wires the lookup used by Assign.
func WithAgentDirectory(agents ports.AgentDirectory) Option {
	return func(s *Service) { s.agents = agents }
}

// WithInventory wires the stock adjuster invoked on acceptance.
func WithInventory(inventory ports.InventoryAdjuster) Option {
	return func(s *Service) { s.inventory = inventory }
}

// WithPublisher wires the change feed.
func WithPublisher(publisher changefeed.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithLogger injects a slog logger for non-fatal follow-up failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the document id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires the orders service with its dependencies.
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

// PlaceOrder creates an order together with its store orders and line items.
func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	now := s.now().UTC()
	storeIDs := make([]string, 0, len(input.StoreOrders))
	for _, so := range input.StoreOrders {
		storeIDs = append(storeIDs, so.StoreID)
	}
	order, err := domain.NewOrder(s.newID(), input.UserID, input.Location, storeIDs, now)
	if err != nil {
		return nil, mapError(err)
	}

	storeOrders := make([]*domain.StoreOrder, 0, len(input.StoreOrders))
	for _, in := range input.StoreOrders {
		so := &domain.StoreOrder{
			ID:        s.newID(),
			OrderID:   order.ID,
			StoreID:   in.StoreID,
			Status:    domain.StatusPending,
			CreatedAt: now,
		}
		for _, item := range in.Items {
			so.Items = append(so.Items, domain.LineItem{
				ID:        s.newID(),
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				ImageURL:  item.ImageURL,
				Status:    domain.StatusPending,
			})
		}
		if err := so.Validate(); err != nil {
			return nil, mapError(fmt.Errorf("store %s: %w", in.StoreID, err))
		}
		storeOrders = append(storeOrders, so)
	}

	if err := s.repo.Create(ctx, order, storeOrders); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.OrderPlaced{
		BaseEvent: domain.BaseEvent{Timestamp: now},
		OrderID:   order.ID,
		UserID:    order.UserID,
		StoreIDs:  storeIDs,
	})
	return &ordertypes.OrderView{Order: order, StoreOrders: storeOrders}, nil
}

// GetOrder loads an order and its store orders concurrently and joins them.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*ordertypes.OrderView, error) {
	var (
		order   *domain.Order
		grouped map[string][]*domain.StoreOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.repo.GetOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		grouped, err = s.repo.ListStoreOrdersByOrder(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapError(err)
	}
	storeOrders := sortStoreOrders(grouped[orderID])
	return &ordertypes.OrderView{
		Order:       order,
		StoreOrders: storeOrders,
		Ready:       domain.ReadyForAssignment(order, storeOrders),
	}, nil
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListStoreOrders returns the store orders a store's staff works on.
func (s *Service) ListStoreOrders(ctx context.Context, filter ports.StoreOrderFilter) ([]*domain.StoreOrder, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	storeOrders, err := s.repo.ListStoreOrders(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return storeOrders, nil
}

// AcceptLineItem marks an item accepted and adjusts catalogue stock. Deciding the
// last pending item accepts the store order. A stock adjustment failure is
// returned, but the acceptance stays recorded.
func (s *Service) AcceptLineItem(ctx context.Context, input ordertypes.AcceptLineItemInput) (*ordertypes.DecisionResult, error) {
	so, err := s.repo.GetStoreOrder(ctx, input.OrderID, input.StoreID)
	if err != nil {
		return nil, mapError(err)
	}
	item, err := so.Item(input.ItemID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := item.Accept(input.UpdatedPrice); err != nil {
		return nil, mapError(err)
	}
	decided := *item
	if err := s.repo.SaveStoreOrder(ctx, so); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, s.decisionEvent(so, decided))

	result := &ordertypes.DecisionResult{StoreOrder: so}
	s.settleInto(ctx, result)
	if s.inventory == nil {
		return result, nil
	}
	stock, err := s.inventory.OnAccept(ctx, so.StoreID, decided.ProductID, decided.Quantity)
	if err != nil {
		if failure.Kind(err) == nil {
			err = failure.External("inventory", err)
		}
		return nil, fmt.Errorf("line item %s accepted but stock was not adjusted: %w", decided.ID, err)
	}
	result.ProductStock = &stock
	return result, nil
}

// RejectLineItem marks an item rejected and re-runs the store order aggregator.
// When the aggregation step fails the rejection is kept and a warning is returned.
func (s *Service) RejectLineItem(ctx context.Context, input ordertypes.RejectLineItemInput) (*ordertypes.DecisionResult, error) {
	so, err := s.repo.GetStoreOrder(ctx, input.OrderID, input.StoreID)
	if err != nil {
		return nil, mapError(err)
	}
	item, err := so.Item(input.ItemID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := item.Reject(input.Reason); err != nil {
		return nil, mapError(err)
	}
	decided := *item
	if err := s.repo.SaveStoreOrder(ctx, so); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, s.decisionEvent(so, decided))

	result := &ordertypes.DecisionResult{StoreOrder: so}
	updated, err := s.recompute(ctx, so)
	if err != nil {
		s.logger.WarnContext(ctx, "store order aggregation deferred",
			slog.String("order.id", so.OrderID),
			slog.String("store.id", so.StoreID),
			slog.String("error", err.Error()))
		result.Warnings = append(result.Warnings, "store order status will be recomputed later: "+err.Error())
		return result, nil
	}
	result.StoreOrder = updated
	s.settleInto(ctx, result)
	return result, nil
}

// RecomputeStoreOrder re-runs the aggregator for one store order and propagates
// the result to the order's status map. Repeated calls are harmless.
func (s *Service) RecomputeStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error) {
	so, err := s.repo.GetStoreOrder(ctx, orderID, storeID)
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := s.recompute(ctx, so)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// ReconcilePending recomputes every pending store order, accepts the ones whose
// items are all decided, and repairs the status map of every pending order.
// It returns how many documents changed.
func (s *Service) ReconcilePending(ctx context.Context) (int, error) {
	pending := domain.StatusPending
	storeOrders, err := s.repo.ListStoreOrders(ctx, ports.StoreOrderFilter{Status: &pending})
	if err != nil {
		return 0, mapError(err)
	}

	var (
		mu      sync.Mutex
		changed int
		errs    []error
	)
	record := func(didChange bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		if didChange {
			changed++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileParallelism)
	for _, so := range storeOrders {
		g.Go(func() error {
			before := so.Status
			updated, err := s.recompute(gctx, so)
			if err == nil {
				updated, err = s.settle(gctx, updated)
			}
			record(err == nil && updated.Status != before, err)
			return nil
		})
	}
	_ = g.Wait()

	orders, err := s.repo.ListOrders(ctx, ports.OrderFilter{Status: &pending})
	if err != nil {
		errs = append(errs, err)
		return changed, mapError(errors.Join(errs...))
	}
	for _, order := range orders {
		for storeID := range order.StoreStatuses {
			didChange, err := s.syncOrder(ctx, order.ID, storeID)
			record(didChange, err)
		}
	}
	if len(errs) > 0 {
		return changed, mapError(errors.Join(errs...))
	}
	return changed, nil
}

// TransitionStoreOrder applies a staff-driven status change. A concurrent change
// to the same store order is reported as a conflict.
func (s *Service) TransitionStoreOrder(ctx context.Context, input ordertypes.TransitionInput) (*domain.StoreOrder, error) {
	if !input.To.Valid() {
		return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidStatus, input.To))
	}
	so, err := s.repo.GetStoreOrder(ctx, input.OrderID, input.StoreID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.advance(ctx, so, input.To); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.syncOrder(ctx, so.OrderID, so.StoreID); err != nil {
		s.logger.WarnContext(ctx, "order status map not updated",
			slog.String("order.id", so.OrderID),
			slog.String("store.id", so.StoreID),
			slog.String("error", err.Error()))
	}
	return so, nil
}

// ReadyForAssignment lists unassigned orders whose stores have all decided.
func (s *Service) ReadyForAssignment(ctx context.Context) ([]*ordertypes.OrderView, error) {
	orders, err := s.repo.ListOrders(ctx, ports.OrderFilter{Unassigned: true})
	if err != nil {
		return nil, mapError(err)
	}
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		if order.Status != domain.StatusRejected {
			ids = append(ids, order.ID)
		}
	}
	if len(ids) == 0 {
		return []*ordertypes.OrderView{}, nil
	}
	grouped, err := s.repo.ListStoreOrdersByOrder(ctx, ids...)
	if err != nil {
		return nil, mapError(err)
	}
	views := make([]*ordertypes.OrderView, 0, len(ids))
	for _, order := range orders {
		storeOrders := sortStoreOrders(grouped[order.ID])
		if domain.ReadyForAssignment(order, storeOrders) {
			views = append(views, &ordertypes.OrderView{Order: order, StoreOrders: storeOrders, Ready: true})
		}
	}
	return views, nil
}

// Assign binds an available agent to a ready order. Only one of several
// concurrent calls for the same order succeeds; the others get a conflict.
func (s *Service) Assign(ctx context.Context, input ordertypes.AssignInput) (*ordertypes.OrderResult, error) {
	if input.AgentID == "" {
		return nil, mapError(domain.ErrEmptyAgentID)
	}
	if s.agents == nil {
		return nil, failure.External("agents", errors.New("agent directory is not configured"))
	}
	agent, err := s.agents.Get(ctx, input.AgentID)
	if err != nil {
		return nil, mapError(err)
	}
	if !agent.Available {
		return nil, mapError(fmt.Errorf("%w: %s", ErrAgentUnavailable, agent.ID))
	}

	view, err := s.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if view.Order.DeliveryAgentID != nil {
		return nil, ports.ErrAlreadyAssigned
	}
	if !view.Ready {
		return nil, mapError(domain.ErrNotReady)
	}

	now := s.now().UTC()
	order, err := s.repo.BindAgent(ctx, input.OrderID, ports.AgentBinding{AgentID: agent.ID, AgentName: agent.Name, At: now})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.OrderAssigned{
		BaseEvent: domain.BaseEvent{Timestamp: now},
		OrderID:   order.ID,
		AgentID:   agent.ID,
		AgentName: agent.Name,
	})

	result := &ordertypes.OrderResult{Order: order}
	for _, so := range view.StoreOrders {
		if so.Status != domain.StatusPackaged {
			continue
		}
		if err := s.advance(ctx, so, domain.StatusOnway); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("store order %s not moved on its way: %v", so.ID, err))
		}
	}
	return result, nil
}

// MarkDelivered completes an order that is on its way.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*ordertypes.OrderResult, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now().UTC()
	if err := order.MarkDelivered(now); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, mapError(err)
	}
	agentID := ""
	if order.DeliveryAgentID != nil {
		agentID = *order.DeliveryAgentID
	}
	s.publish(ctx, domain.OrderDelivered{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: order.ID, AgentID: agentID})

	result := &ordertypes.OrderResult{Order: order}
	grouped, err := s.repo.ListStoreOrdersByOrder(ctx, orderID)
	if err != nil {
		result.Warnings = append(result.Warnings, "store orders not updated: "+err.Error())
		return result, nil
	}
	for _, so := range grouped[orderID] {
		if so.Status != domain.StatusOnway {
			continue
		}
		if err := s.advance(ctx, so, domain.StatusDelivered); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("store order %s not marked delivered: %v", so.ID, err))
		}
	}
	return result, nil
}

// OrderQR returns the payload encoded in an order's QR code.
func (s *Service) OrderQR(ctx context.Context, orderID string) (string, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return "", mapError(err)
	}
	payload, err := domain.OrderQRPayload(order.ID)
	if err != nil {
		return "", mapError(err)
	}
	return payload, nil
}

// LineItemQR returns the JSON payload encoded in a line item's QR code.
func (s *Service) LineItemQR(ctx context.Context, input ordertypes.LineItemQRInput) ([]byte, error) {
	qr := domain.LineItemQR{OrderID: input.OrderID, ProductID: input.ProductID, Action: input.Action}
	if err := qr.Validate(); err != nil {
		return nil, mapError(err)
	}
	grouped, err := s.repo.ListStoreOrdersByOrder(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	if len(grouped[input.OrderID]) == 0 {
		return nil, ports.ErrNotFound
	}
	for _, so := range grouped[input.OrderID] {
		for _, item := range so.Items {
			if item.ProductID == input.ProductID {
				payload, err := qr.Encode()
				if err != nil {
					return nil, mapError(err)
				}
				return payload, nil
			}
		}
	}
	return nil, failure.NotFound(fmt.Errorf("%w: product %s", domain.ErrItemNotFound, input.ProductID))
}

// recompute applies the aggregator and retries after stale writes with a fresh read.
func (s *Service) recompute(ctx context.Context, so *domain.StoreOrder) (*domain.StoreOrder, error) {
	for attempt := 0; attempt < guardedAttempts; attempt++ {
		previous := so.Status
		now := s.now().UTC()
		if so.Recompute(now) {
			if err := s.repo.SaveStoreOrder(ctx, so); err != nil {
				if !errors.Is(err, ports.ErrStaleWrite) {
					return nil, err
				}
				fresh, err := s.repo.GetStoreOrder(ctx, so.OrderID, so.StoreID)
				if err != nil {
					return nil, err
				}
				so = fresh
				continue
			}
			s.publish(ctx, domain.StoreOrderStatusChanged{
				BaseEvent:      domain.BaseEvent{Timestamp: now},
				OrderID:        so.OrderID,
				StoreOrderID:   so.ID,
				StoreID:        so.StoreID,
				Status:         so.Status,
				PreviousStatus: previous,
			})
		}
		if _, err := s.syncOrder(ctx, so.OrderID, so.StoreID); err != nil {
			return nil, err
		}
		return so, nil
	}
	return nil, ports.ErrStaleWrite
}

// syncOrder copies the store order's current status into the order's status map.
func (s *Service) syncOrder(ctx context.Context, orderID, storeID string) (bool, error) {
	for attempt := 0; attempt < guardedAttempts; attempt++ {
		so, err := s.repo.GetStoreOrder(ctx, orderID, storeID)
		if err != nil {
			return false, err
		}
		order, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return false, err
		}
		now := s.now().UTC()
		changed, err := order.ApplyStoreStatus(storeID, so.Status, now)
		if err != nil {
			return false, err
		}
		if !changed {
			return false, nil
		}
		if err := s.repo.SaveOrder(ctx, order); err != nil {
			if errors.Is(err, ports.ErrStaleWrite) {
				continue
			}
			return false, err
		}
		s.publish(ctx, domain.OrderStatusChanged{
			BaseEvent:     domain.BaseEvent{Timestamp: now},
			OrderID:       order.ID,
			Status:        order.Status,
			StoreStatuses: order.StoreStatuses,
		})
		return true, nil
	}
	return false, ports.ErrStaleWrite
}

// settleInto accepts the result's store order once every item is decided and one
// was accepted. Failures leave the store order pending and are reported as warnings.
func (s *Service) settleInto(ctx context.Context, result *ordertypes.DecisionResult) {
	settled, err := s.settle(ctx, result.StoreOrder)
	if settled != nil {
		result.StoreOrder = settled
	}
	if err != nil {
		s.logger.WarnContext(ctx, "store order acceptance deferred",
			slog.String("order.id", result.StoreOrder.OrderID),
			slog.String("store.id", result.StoreOrder.StoreID),
			slog.String("error", err.Error()))
		result.Warnings = append(result.Warnings, "store order acceptance will be retried: "+err.Error())
	}
}

// settle moves a settled store order to accepted and propagates the status to
// the order. Stale writes are retried on a fresh read.
func (s *Service) settle(ctx context.Context, so *domain.StoreOrder) (*domain.StoreOrder, error) {
	for attempt := 0; attempt < guardedAttempts; attempt++ {
		if !so.Settled() {
			return so, nil
		}
		next := so.Clone()
		err := s.advance(ctx, next, domain.StatusAccepted)
		if err == nil {
			if _, err := s.syncOrder(ctx, next.OrderID, next.StoreID); err != nil {
				return next, err
			}
			return next, nil
		}
		if !errors.Is(err, ports.ErrStaleWrite) {
			return nil, err
		}
		fresh, err := s.repo.GetStoreOrder(ctx, so.OrderID, so.StoreID)
		if err != nil {
			return nil, err
		}
		so = fresh
	}
	return nil, ports.ErrStaleWrite
}

// advance applies a table transition to a store order with a single guarded write.
func (s *Service) advance(ctx context.Context, so *domain.StoreOrder, to domain.Status) error {
	previous := so.Status
	now := s.now().UTC()
	if err := so.Transition(to, now); err != nil {
		return err
	}
	if err := s.repo.SaveStoreOrder(ctx, so); err != nil {
		return err
	}
	s.publish(ctx, domain.StoreOrderStatusChanged{
		BaseEvent:      domain.BaseEvent{Timestamp: now},
		OrderID:        so.OrderID,
		StoreOrderID:   so.ID,
		StoreID:        so.StoreID,
		Status:         so.Status,
		PreviousStatus: previous,
	})
	return nil
}

func (s *Service) decisionEvent(so *domain.StoreOrder, item domain.LineItem) domain.LineItemDecided {
	return domain.LineItemDecided{
		BaseEvent:    domain.BaseEvent{Timestamp: s.now().UTC()},
		OrderID:      so.OrderID,
		StoreOrderID: so.ID,
		StoreID:      so.StoreID,
		ItemID:       item.ID,
		ProductID:    item.ProductID,
		Status:       item.Status,
		Reason:       item.RejectionReason,
	}
}

func sortStoreOrders(storeOrders []*domain.StoreOrder) []*domain.StoreOrder {
	out := append([]*domain.StoreOrder(nil), storeOrders...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out
}

var _ ports.Service = (*Service)(nil)
