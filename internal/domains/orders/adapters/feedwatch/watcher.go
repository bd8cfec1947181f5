// Package feedwatch re-runs the store-order aggregator whenever a line item decision
// shows up on the change feed.
package feedwatch

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
)

// Recomputer is the slice of the orders service the watcher drives.
type Recomputer interface {
	RecomputeStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error)
}

// Watcher consumes line_items changes.
type Watcher struct {
	feed   changefeed.Subscriber
	orders Recomputer
	logger *slog.Logger
}

// New builds a watcher. A nil logger discards output.
func New(feed changefeed.Subscriber, orders Recomputer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{feed: feed, orders: orders, logger: logger}
}

// Run blocks until ctx is cancelled or the feed closes the subscription.
func (w *Watcher) Run(ctx context.Context) error {
	changes, unsubscribe, err := w.feed.Subscribe(ctx, changefeed.Filter{Collection: changefeed.CollectionLineItems})
	if err != nil {
		return err
	}
	defer unsubscribe()
	w.logger.InfoContext(ctx, "line item watcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			w.handle(ctx, change)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, change changefeed.Change) {
	orderID, _ := change.Fields["orderId"].(string)
	storeID, _ := change.Fields["storeId"].(string)
	if orderID == "" || storeID == "" {
		w.logger.WarnContext(ctx, "line item change without order or store",
			slog.String("document.id", change.DocumentID))
		return
	}
	so, err := w.orders.RecomputeStoreOrder(ctx, orderID, storeID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.WarnContext(ctx, "recompute after line item change failed",
			slog.String("order.id", orderID),
			slog.String("store.id", storeID),
			slog.String("error", err.Error()))
		return
	}
	w.logger.DebugContext(ctx, "store order recomputed",
		slog.String("order.id", orderID),
		slog.String("store.id", storeID),
		slog.String("status", string(so.Status)))
}
