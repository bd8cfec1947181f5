package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/retail-ops/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	feedmemory "github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

type stubAgents map[string]*ports.Agent

func (s stubAgents) Get(_ context.Context, id string) (*ports.Agent, error) {
	agent, ok := s[id]
	if !ok {
		return nil, failure.NotFound(errors.New("agent " + id))
	}
	copy := *agent
	return &copy, nil
}

type stubInventory struct {
	mu    sync.Mutex
	calls []string
	stock int
	err   error
}

func (s *stubInventory) OnAccept(_ context.Context, storeID, productID string, quantity int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeID+"/"+productID)
	if s.err != nil {
		return 0, s.err
	}
	s.stock -= quantity
	if s.stock < 0 {
		s.stock = 0
	}
	return s.stock, nil
}

type fixture struct {
	svc       *Service
	repo      *ordermemory.Repository
	inventory *stubInventory
	broker    *feedmemory.Broker
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := ordermemory.NewRepository()
	inventory := &stubInventory{stock: 5}
	broker := feedmemory.NewBroker()
	t.Cleanup(func() { _ = broker.Close() })
	agents := stubAgents{
		"agent-1": {ID: "agent-1", Name: "Ann", Available: true},
		"agent-2": {ID: "agent-2", Name: "Bob", Available: true},
		"agent-3": {ID: "agent-3", Name: "Cid", Available: false},
	}
	svc := NewService(repo,
		WithAgentDirectory(agents),
		WithInventory(inventory),
		WithPublisher(broker),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return fixture{svc: svc, repo: repo, inventory: inventory, broker: broker}
}

func placeTwoStoreOrder(t *testing.T, svc *Service) *ordertypes.OrderView {
	t.Helper()
	view, err := svc.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{
		UserID:   "user-1",
		Location: domain.Location{Address: "Main St 1", Lat: 52.23, Lng: 21.01},
		StoreOrders: []ordertypes.StoreOrderInput{
			{StoreID: "store-a", Items: []ordertypes.LineItemInput{
				{ProductID: "apple", Name: "Apple", UnitPrice: decimal.RequireFromString("1.20"), Quantity: 3},
				{ProductID: "pear", Name: "Pear", UnitPrice: decimal.RequireFromString("2.00"), Quantity: 1},
			}},
			{StoreID: "store-b", Items: []ordertypes.LineItemInput{
				{ProductID: "bread", Name: "Bread", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1},
			}},
		},
	})
	require.NoError(t, err)
	return view
}

func storeOrderFor(view *ordertypes.OrderView, storeID string) *domain.StoreOrder {
	for _, so := range view.StoreOrders {
		if so.StoreID == storeID {
			return so
		}
	}
	return nil
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	view := placeTwoStoreOrder(t, f.svc)

	require.Equal(t, domain.StatusPending, view.Order.Status)
	require.Len(t, view.StoreOrders, 2)
	require.Equal(t, map[string]domain.Status{"store-a": domain.StatusPending, "store-b": domain.StatusPending}, view.Order.StoreStatuses)

	loaded, err := f.svc.GetOrder(context.Background(), view.Order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StoreOrders, 2)
	require.False(t, loaded.Ready)
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{UserID: "u"})
	require.ErrorIs(t, err, failure.ErrValidation)

	_, err = f.svc.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{
		UserID: "u",
		StoreOrders: []ordertypes.StoreOrderInput{{StoreID: "s", Items: []ordertypes.LineItemInput{
			{ProductID: "p", Quantity: 0},
		}}},
	})
	require.ErrorIs(t, err, failure.ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestAcceptLineItem_AdjustsStock(t *testing.T) {
	f := newFixture(t)
	view := placeTwoStoreOrder(t, f.svc)
	so := storeOrderFor(view, "store-a")
	price := decimal.RequireFromString("1.00")

	result, err := f.svc.AcceptLineItem(context.Background(), ordertypes.AcceptLineItemInput{
		StoreID: "store-a", OrderID: view.Order.ID, ItemID: so.Items[0].ID, UpdatedPrice: &price,
	})
	require.NoError(t, err)
	require.NotNil(t, result.ProductStock)
	require.Equal(t, 2, *result.ProductStock)
	require.Equal(t, []string{"store-a/apple"}, f.inventory.calls)
	require.Equal(t, domain.StatusAccepted, result.StoreOrder.Items[0].Status)
	require.True(t, result.StoreOrder.Items[0].UpdatedPrice.Equal(price))
	require.Equal(t, domain.StatusPending, result.StoreOrder.Status)

	_, err = f.svc.AcceptLineItem(context.Background(), ordertypes.AcceptLineItemInput{
		StoreID: "store-a", OrderID: view.Order.ID, ItemID: so.Items[0].ID,
	})
	require.ErrorIs(t, err, failure.ErrConflict)
}

func TestAcceptLineItem_StockFailureKeepsAcceptance(t *testing.T) {
	f := newFixture(t)
	f.inventory.err = errors.New("catalogue offline")
	view := placeTwoStoreOrder(t, f.svc)
	so := storeOrderFor(view, "store-b")

	_, err := f.svc.AcceptLineItem(context.Background(), ordertypes.AcceptLineItemInput{
		StoreID: "store-b", OrderID: view.Order.ID, ItemID: so.Items[0].ID,
	})
	require.ErrorIs(t, err, failure.ErrExternalService)

	stored, err := f.repo.GetStoreOrder(context.Background(), view.Order.ID, "store-b")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, stored.Items[0].Status)
}

func TestAcceptLineItem_WrongStore(t *testing.T) {
	f := newFixture(t)
	view := placeTwoStoreOrder(t, f.svc)
	so := storeOrderFor(view, "store-a")

	_, err := f.svc.AcceptLineItem(context.Background(), ordertypes.AcceptLineItemInput{
		StoreID: "store-b", OrderID: view.Order.ID, ItemID: so.Items[0].ID,
	})
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestRejectLineItem_AllRejectedRejectsStoreOrderAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	soA := storeOrderFor(view, "store-a")
	soB := storeOrderFor(view, "store-b")

	result, err := f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[0].ID, Reason: "out of stock"})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)
	require.Equal(t, domain.StatusPending, result.StoreOrder.Status)

	result, err = f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[1].ID})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, result.StoreOrder.Status)
	require.NotNil(t, result.StoreOrder.Timestamps.Rejected)

	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, order.StoreStatuses["store-a"])
	require.Equal(t, domain.StatusPending, order.Status)

	_, err = f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-b", OrderID: view.Order.ID, ItemID: soB.Items[0].ID})
	require.NoError(t, err)

	loaded, err := f.svc.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, loaded.Order.Status)
	require.False(t, loaded.Ready)
}

func TestRecomputeStoreOrder_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	soB := storeOrderFor(view, "store-b")
	_, err := f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-b", OrderID: view.Order.ID, ItemID: soB.Items[0].ID})
	require.NoError(t, err)

	first, err := f.svc.RecomputeStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	second, err := f.svc.RecomputeStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, first.Status)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Timestamps.Rejected, second.Timestamps.Rejected)
	require.Equal(t, first.Version, second.Version)
}

func TestReconcilePending_RepairsPartialUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)

	// Item rejected without the aggregator running.
	so, err := f.repo.GetStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	require.NoError(t, so.Items[0].Reject("gone"))
	require.NoError(t, f.repo.SaveStoreOrder(ctx, so))

	changed, err := f.svc.ReconcilePending(ctx)
	require.NoError(t, err)
	require.Positive(t, changed)

	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, order.StoreStatuses["store-b"])

	changed, err = f.svc.ReconcilePending(ctx)
	require.NoError(t, err)
	require.Zero(t, changed)
}

func TestTransitionStoreOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	soA := storeOrderFor(view, "store-a")

	_, err := f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: domain.StatusAccepted})
	require.ErrorIs(t, err, failure.ErrConflict)
	require.ErrorIs(t, err, domain.ErrUndecidedItems)

	_, err = f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[0].ID})
	require.NoError(t, err)
	decided, err := f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[1].ID})
	require.NoError(t, err)
	require.Empty(t, decided.Warnings)
	require.Equal(t, domain.StatusAccepted, decided.StoreOrder.Status)
	require.NotNil(t, decided.StoreOrder.Timestamps.Accepted)

	_, err = f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: domain.StatusAccepted})
	require.ErrorIs(t, err, failure.ErrConflict)

	_, err = f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: domain.StatusDelivered})
	require.ErrorIs(t, err, failure.ErrConflict)

	packaged, err := f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: domain.StatusPackaged})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPackaged, packaged.Status)

	_, err = f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: "lost"})
	require.ErrorIs(t, err, failure.ErrValidation)

	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPackaged, order.StoreStatuses["store-a"])
}

// decideAll accepts store-a's first item, rejects the rest of store-a and accepts store-b.
func decideAll(t *testing.T, f fixture, view *ordertypes.OrderView) {
	t.Helper()
	ctx := context.Background()
	soA := storeOrderFor(view, "store-a")
	soB := storeOrderFor(view, "store-b")
	_, err := f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[0].ID})
	require.NoError(t, err)
	_, err = f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[1].ID})
	require.NoError(t, err)
	_, err = f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-b", OrderID: view.Order.ID, ItemID: soB.Items[0].ID})
	require.NoError(t, err)
}

func TestAcceptedAndRejectedStoresMakeOrderAssignable(t *testing.T) {
	f := newFixture(t)
	f.inventory.stock = 10
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	soA := storeOrderFor(view, "store-a")
	soB := storeOrderFor(view, "store-b")

	for _, item := range soA.Items {
		_, err := f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: item.ID})
		require.NoError(t, err)
	}
	_, err := f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-b", OrderID: view.Order.ID, ItemID: soB.Items[0].ID, Reason: "sold out"})
	require.NoError(t, err)

	loaded, err := f.svc.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, storeOrderFor(loaded, "store-a").Status)
	require.Equal(t, domain.StatusRejected, storeOrderFor(loaded, "store-b").Status)
	require.True(t, loaded.Ready)

	assigned, err := f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: "agent-1"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOnway, assigned.Order.Status)
	require.Equal(t, "agent-1", *assigned.Order.DeliveryAgentID)
}

func TestAcceptLineItem_LastDecisionAcceptsStoreOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	soA := storeOrderFor(view, "store-a")

	first, err := f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[0].ID})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, first.StoreOrder.Status)

	last, err := f.svc.AcceptLineItem(ctx, ordertypes.AcceptLineItemInput{StoreID: "store-a", OrderID: view.Order.ID, ItemID: soA.Items[1].ID})
	require.NoError(t, err)
	require.Empty(t, last.Warnings)
	require.Equal(t, domain.StatusAccepted, last.StoreOrder.Status)

	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, order.StoreStatuses["store-a"])
	require.Equal(t, domain.StatusPending, order.Status)
}

func TestReconcilePending_AcceptsSettledStoreOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)

	// Item accepted without the store order following.
	so, err := f.repo.GetStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	require.NoError(t, so.Items[0].Accept(nil))
	require.NoError(t, f.repo.SaveStoreOrder(ctx, so))

	changed, err := f.svc.ReconcilePending(ctx)
	require.NoError(t, err)
	require.Positive(t, changed)

	stored, err := f.repo.GetStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, stored.Status)
	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, order.StoreStatuses["store-b"])
}

func TestReadyForAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)

	ready, err := f.svc.ReadyForAssignment(ctx)
	require.NoError(t, err)
	require.Empty(t, ready)

	decideAll(t, f, view)

	ready, err = f.svc.ReadyForAssignment(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, view.Order.ID, ready[0].Order.ID)
	require.Equal(t, domain.StatusAccepted, ready[0].Order.Status)
}

func TestAssign_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)

	_, err := f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: "agent-1"})
	require.ErrorIs(t, err, failure.ErrConflict)
	require.ErrorIs(t, err, domain.ErrNotReady)

	decideAll(t, f, view)

	_, err = f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: "ghost"})
	require.ErrorIs(t, err, failure.ErrNotFound)

	_, err = f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: "agent-3"})
	require.ErrorIs(t, err, ErrAgentUnavailable)

	_, err = f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: "missing", AgentID: "agent-1"})
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestAssign_ConcurrentCallsBindOneAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	decideAll(t, f, view)

	agents := []string{"agent-1", "agent-2", "agent-1", "agent-2", "agent-1", "agent-2"}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []string
		failures  []error
	)
	for _, agentID := range agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: agentID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes = append(successes, *result.Order.DeliveryAgentID)
		}()
	}
	wg.Wait()

	require.Len(t, successes, 1)
	require.Len(t, failures, len(agents)-1)
	for _, err := range failures {
		require.ErrorIs(t, err, failure.ErrConflict)
	}

	order, err := f.repo.GetOrder(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, successes[0], *order.DeliveryAgentID)
	require.Equal(t, domain.StatusOnway, order.Status)
	require.NoError(t, order.Validate())
}

func TestAssignAndDeliver_MoveStoreOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)
	decideAll(t, f, view)
	_, err := f.svc.TransitionStoreOrder(ctx, ordertypes.TransitionInput{StoreID: "store-a", OrderID: view.Order.ID, To: domain.StatusPackaged})
	require.NoError(t, err)

	_, err = f.svc.MarkDelivered(ctx, view.Order.ID)
	require.ErrorIs(t, err, failure.ErrConflict)

	assigned, err := f.svc.Assign(ctx, ordertypes.AssignInput{OrderID: view.Order.ID, AgentID: "agent-2"})
	require.NoError(t, err)
	require.Empty(t, assigned.Warnings)
	require.Equal(t, "Bob", assigned.Order.DeliveryAgentName)

	soA, err := f.repo.GetStoreOrder(ctx, view.Order.ID, "store-a")
	require.NoError(t, err)
	require.Equal(t, domain.StatusOnway, soA.Status)
	require.Equal(t, domain.StatusOnway, soA.Items[0].Status)
	require.Equal(t, domain.StatusRejected, soA.Items[1].Status)

	delivered, err := f.svc.MarkDelivered(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, delivered.Order.Status)
	require.NotNil(t, delivered.Order.Timestamps.Delivered)

	soA, err = f.repo.GetStoreOrder(ctx, view.Order.ID, "store-a")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDelivered, soA.Status)
	soB, err := f.repo.GetStoreOrder(ctx, view.Order.ID, "store-b")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, soB.Status)
}

func TestQRPayloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := placeTwoStoreOrder(t, f.svc)

	payload, err := f.svc.OrderQR(ctx, view.Order.ID)
	require.NoError(t, err)
	require.Equal(t, view.Order.ID, payload)

	raw, err := f.svc.LineItemQR(ctx, ordertypes.LineItemQRInput{OrderID: view.Order.ID, ProductID: "bread", Action: domain.QRActionReject})
	require.NoError(t, err)
	require.JSONEq(t, `{"orderId":"`+view.Order.ID+`","productId":"bread","action":"reject"}`, string(raw))

	_, err = f.svc.LineItemQR(ctx, ordertypes.LineItemQRInput{OrderID: view.Order.ID, ProductID: "cheese", Action: domain.QRActionAccept})
	require.ErrorIs(t, err, failure.ErrNotFound)

	_, err = f.svc.LineItemQR(ctx, ordertypes.LineItemQRInput{OrderID: view.Order.ID, ProductID: "bread", Action: "ship"})
	require.ErrorIs(t, err, failure.ErrValidation)

	_, err = f.svc.OrderQR(ctx, "missing")
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestChangesArePublished(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, unsubscribe, err := f.broker.Subscribe(ctx, changefeed.Filter{Collection: changefeed.CollectionLineItems})
	require.NoError(t, err)
	defer unsubscribe()

	view := placeTwoStoreOrder(t, f.svc)
	soB := storeOrderFor(view, "store-b")
	_, err = f.svc.RejectLineItem(ctx, ordertypes.RejectLineItemInput{StoreID: "store-b", OrderID: view.Order.ID, ItemID: soB.Items[0].ID, Reason: "sold out"})
	require.NoError(t, err)

	select {
	case change := <-changes:
		require.Equal(t, soB.Items[0].ID, change.DocumentID)
		require.Equal(t, soB.ID, change.ParentID)
		require.Equal(t, "rejected", change.Fields["status"])
		require.Equal(t, "sold out", change.Fields["rejectionReason"])
	case <-time.After(time.Second):
		t.Fatal("expected a line item change")
	}
}
