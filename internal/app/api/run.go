package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	retailopsserver "github.com/Apurer/retail-ops/go"
	"github.com/Apurer/retail-ops/internal/domains/orders/adapters/feedwatch"
	"github.com/Apurer/retail-ops/internal/platform/metrics"
	platformobservability "github.com/Apurer/retail-ops/internal/platform/observability"
)

const serviceName = "retail-ops-api"

// Run boots the retail operations HTTP API with observability, repositories, the
// change feed and the line item watcher wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	services, err := BuildServices(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer services.Close()

	watchCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()
	go func() {
		err := feedwatch.New(services.Feed, services.Orders, logger).Run(watchCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("line item watcher stopped", slog.String("error", err.Error()))
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("retail ops API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("retail ops API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down retail ops API")
		return server.Shutdown(shutdownCtx)
	}
}

func newRouter(services *Services) *gin.Engine {
	serverMetrics := metrics.NewServerMetrics("api")
	checks := map[string]retailopsserver.Pinger{}
	if services.DB != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := services.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(serverMetrics.Middleware())
	return retailopsserver.NewRouterWithGinEngine(router, retailopsserver.ApiHandleFunctions{
		OrdersAPI:      retailopsserver.NewOrdersAPI(services.Orders),
		StoreOrdersAPI: retailopsserver.NewStoreOrdersAPI(services.Orders),
		StoresAPI:      retailopsserver.NewStoresAPI(services.Stores),
		CatalogueAPI:   retailopsserver.NewCatalogueAPI(services.Catalogue),
		AgentsAPI:      retailopsserver.NewAgentsAPI(services.Agents),
		ChangesAPI:     retailopsserver.NewChangesAPI(services.Feed),
		HealthAPI:      retailopsserver.NewHealthAPI(serverMetrics.Handler(), checks),
	})
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
