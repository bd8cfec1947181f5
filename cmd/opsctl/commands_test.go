package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	agentmemory "github.com/Apurer/retail-ops/internal/domains/agents/adapters/memory"
	agentapp "github.com/Apurer/retail-ops/internal/domains/agents/application"
	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	cataloguememory "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/memory"
	catalogueapp "github.com/Apurer/retail-ops/internal/domains/catalogue/application"
	cataloguetypes "github.com/Apurer/retail-ops/internal/domains/catalogue/application/types"
	orderagents "github.com/Apurer/retail-ops/internal/domains/orders/adapters/agents"
	ordermapper "github.com/Apurer/retail-ops/internal/domains/orders/adapters/http/mapper"
	ordermemory "github.com/Apurer/retail-ops/internal/domains/orders/adapters/memory"
	orderapp "github.com/Apurer/retail-ops/internal/domains/orders/application"
	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
)

type world struct {
	orders  *orderapp.Service
	agentID string
	orderID string
	itemID  string
}

func newWorld(t *testing.T) world {
	t.Helper()
	ctx := context.Background()
	agents := agentapp.NewService(agentmemory.NewRepository())
	catalogue := catalogueapp.NewService(cataloguememory.NewRepository())
	orders := orderapp.NewService(ordermemory.NewRepository(),
		orderapp.WithAgentDirectory(orderagents.NewDirectory(agents)),
		orderapp.WithInventory(catalogue),
	)

	provisioned, err := agents.CreateAgent(ctx, agenttypes.CreateAgentInput{Name: "Ann Rider", Email: "ann@example.com", Mobile: "+48100200300", Available: true})
	require.NoError(t, err)
	category, err := catalogue.CreateCategory(ctx, cataloguetypes.CategoryInput{StoreID: "store-a", Name: "Fruit"})
	require.NoError(t, err)
	product, err := catalogue.CreateProduct(ctx, cataloguetypes.ProductInput{
		StoreID: "store-a", CategoryID: category.ID, Name: "Apple", Price: decimal.RequireFromString("1.20"), Stock: 10,
	})
	require.NoError(t, err)

	view, err := orders.PlaceOrder(ctx, ordertypes.PlaceOrderInput{
		UserID:   "user-1",
		Location: domain.Location{Address: "Main St 1", Lat: 52.23, Lng: 21.01},
		StoreOrders: []ordertypes.StoreOrderInput{{StoreID: "store-a", Items: []ordertypes.LineItemInput{
			{ProductID: product.ID, Name: "Apple", UnitPrice: product.Price, Quantity: 2},
		}}},
	})
	require.NoError(t, err)
	return world{orders: orders, agentID: provisioned.Agent.ID, orderID: view.Order.ID, itemID: view.StoreOrders[0].Items[0].ID}
}

func run(t *testing.T, orders orderports.Service, args ...string) (string, error) {
	t.Helper()
	released := false
	root := newRootCmd(func(context.Context) (orderports.Service, func(), error) {
		return orders, func() { released = true }, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		require.True(t, released, "connection not released")
	}
	return out.String(), err
}

func TestReadyThenAssign(t *testing.T) {
	w := newWorld(t)

	out, err := run(t, w.orders, "ready")
	require.NoError(t, err)
	var ready []ordermapper.OrderView
	require.NoError(t, json.Unmarshal([]byte(out), &ready))
	require.Empty(t, ready)

	_, err = w.orders.AcceptLineItem(context.Background(), ordertypes.AcceptLineItemInput{
		StoreID: "store-a", OrderID: w.orderID, ItemID: w.itemID,
	})
	require.NoError(t, err)

	out, err = run(t, w.orders, "ready")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &ready))
	require.Len(t, ready, 1)
	require.Equal(t, w.orderID, ready[0].ID)

	out, err = run(t, w.orders, "assign", w.orderID, "--agent", w.agentID)
	require.NoError(t, err)
	var result ordermapper.OrderResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, string(domain.StatusOnway), result.Order.Status)

	_, err = run(t, w.orders, "assign", w.orderID, "--agent", w.agentID)
	require.Error(t, err)
}

func TestAssignRequiresAgentFlag(t *testing.T) {
	w := newWorld(t)
	_, err := run(t, w.orders, "assign", w.orderID)
	require.ErrorContains(t, err, "--agent")
}

func TestReconcile(t *testing.T) {
	w := newWorld(t)
	out, err := run(t, w.orders, "reconcile")
	require.NoError(t, err)
	require.Contains(t, out, "reconciled:")
}

func TestConnectFailureIsReported(t *testing.T) {
	root := newRootCmd(func(context.Context) (orderports.Service, func(), error) {
		return nil, nil, errors.New("no database")
	})
	root.SetArgs([]string{"reconcile"})
	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "no database")
}
