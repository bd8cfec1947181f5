//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pacttest "github.com/Apurer/retail-ops/test/pact"

	retailopsserver "github.com/Apurer/retail-ops/go"
	agentmemory "github.com/Apurer/retail-ops/internal/domains/agents/adapters/memory"
	agentobs "github.com/Apurer/retail-ops/internal/domains/agents/adapters/observability"
	agentapp "github.com/Apurer/retail-ops/internal/domains/agents/application"
	agentdomain "github.com/Apurer/retail-ops/internal/domains/agents/domain"
	cataloguememory "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/memory"
	catalogueobs "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/observability"
	catalogueapp "github.com/Apurer/retail-ops/internal/domains/catalogue/application"
	cataloguedomain "github.com/Apurer/retail-ops/internal/domains/catalogue/domain"
	orderagents "github.com/Apurer/retail-ops/internal/domains/orders/adapters/agents"
	ordermemory "github.com/Apurer/retail-ops/internal/domains/orders/adapters/memory"
	orderobs "github.com/Apurer/retail-ops/internal/domains/orders/adapters/observability"
	orderapp "github.com/Apurer/retail-ops/internal/domains/orders/application"
	storememory "github.com/Apurer/retail-ops/internal/domains/stores/adapters/memory"
	storeobs "github.com/Apurer/retail-ops/internal/domains/stores/adapters/observability"
	storeapp "github.com/Apurer/retail-ops/internal/domains/stores/application"
	feedmemory "github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
	idemmemory "github.com/Apurer/retail-ops/internal/platform/idempotency/memory"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRetailOpsProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateAgentExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedAgent(t)
			}
			return nil, nil
		},
		pacttest.StateAgentMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateProductExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedProduct(t)
			}
			return nil, nil
		},
		pacttest.StateNoOrders: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds the in-memory graph on every reset so provider
// states never leak into each other.
type contractProviderApp struct {
	mu        sync.RWMutex
	handler   http.Handler
	agents    *agentmemory.Repository
	catalogue *cataloguememory.Repository
	server    *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		handler := app.handler
		app.mu.RUnlock()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	feed := feedmemory.NewBroker()
	idempotency := idemmemory.NewStore()
	agentRepo := agentmemory.NewRepository()
	catalogueRepo := cataloguememory.NewRepository()

	agents := agentobs.New(agentapp.NewService(agentRepo, agentapp.WithPublisher(feed), agentapp.WithIdempotencyStore(idempotency)))
	catalogue := catalogueobs.New(catalogueapp.NewService(catalogueRepo, catalogueapp.WithPublisher(feed)))
	stores := storeobs.New(storeapp.NewService(storememory.NewRepository(), storeapp.WithPublisher(feed), storeapp.WithIdempotencyStore(idempotency)))
	orders := orderobs.New(orderapp.NewService(ordermemory.NewRepository(),
		orderapp.WithAgentDirectory(orderagents.NewDirectory(agents)),
		orderapp.WithInventory(catalogue),
		orderapp.WithPublisher(feed),
	))

	router := gin.New()
	router.Use(gin.Recovery())
	router = retailopsserver.NewRouterWithGinEngine(router, retailopsserver.ApiHandleFunctions{
		OrdersAPI:      retailopsserver.NewOrdersAPI(orders),
		StoreOrdersAPI: retailopsserver.NewStoreOrdersAPI(orders),
		StoresAPI:      retailopsserver.NewStoresAPI(stores),
		CatalogueAPI:   retailopsserver.NewCatalogueAPI(catalogue),
		AgentsAPI:      retailopsserver.NewAgentsAPI(agents),
		ChangesAPI:     retailopsserver.NewChangesAPI(feed),
		HealthAPI:      retailopsserver.NewHealthAPI(nil, nil),
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = router
	a.agents = agentRepo
	a.catalogue = catalogueRepo
}

func (a *contractProviderApp) seedAgent(t testing.TB) {
	t.Helper()
	example := pacttest.ExampleAgentPayload()
	now := time.Now().UTC()
	a.mu.RLock()
	defer a.mu.RUnlock()
	require.NoError(t, a.agents.Create(context.Background(), &agentdomain.Agent{
		ID:         pacttest.ExistingAgentID,
		Name:       example["name"].(string),
		Email:      example["email"].(string),
		Mobile:     example["mobile"].(string),
		Available:  true,
		LoginEmail: example["loginEmail"].(string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func (a *contractProviderApp) seedProduct(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	a.mu.RLock()
	defer a.mu.RUnlock()
	category, err := cataloguedomain.NewCategory("pact-fruit", pacttest.StoreID, "Fruit", "", now)
	require.NoError(t, err)
	require.NoError(t, a.catalogue.CreateCategory(ctx, category))
	require.NoError(t, a.catalogue.CreateProduct(ctx, &cataloguedomain.Product{
		ID:         pacttest.ProductID,
		StoreID:    pacttest.StoreID,
		CategoryID: category.ID,
		Name:       "Pact Apple",
		Price:      decimal.RequireFromString("1.25"),
		Stock:      pacttest.InitialStock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}
