// Command opsctl runs operational tasks against the retail ops data store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apurer/retail-ops/internal/app/api"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/retail-ops/internal/platform/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect wires the same services the API uses, minus the HTTP surface.
func connect(ctx context.Context) (orderports.Service, func(), error) {
	cfg, err := api.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, "retail-ops-opsctl")
	if err != nil {
		return nil, nil, err
	}
	services, err := api.BuildServices(ctx, cfg, instruments)
	if err != nil {
		return nil, nil, err
	}
	return services.Orders, func() {
		services.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}, nil
}
