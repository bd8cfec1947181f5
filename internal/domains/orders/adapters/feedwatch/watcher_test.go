package feedwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	feedmemory "github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
)

type recorder struct {
	mu    sync.Mutex
	calls [][2]string
	fail  bool
	seen  chan struct{}
}

func (r *recorder) RecomputeStoreOrder(_ context.Context, orderID, storeID string) (*domain.StoreOrder, error) {
	r.mu.Lock()
	r.calls = append(r.calls, [2]string{orderID, storeID})
	r.mu.Unlock()
	select {
	case r.seen <- struct{}{}:
	default:
	}
	if r.fail {
		return nil, errors.New("boom")
	}
	return &domain.StoreOrder{OrderID: orderID, StoreID: storeID, Status: domain.StatusAccepted}, nil
}

func TestWatcher_RecomputesOnLineItemChanges(t *testing.T) {
	broker := feedmemory.NewBroker()
	t.Cleanup(func() { _ = broker.Close() })
	rec := &recorder{seen: make(chan struct{}, 4), fail: true}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- New(broker, rec, nil).Run(ctx) }()

	// Run subscribes asynchronously; keep publishing until the first call lands.
	deadline := time.After(2 * time.Second)
	publish := func(c changefeed.Change) {
		require.NoError(t, broker.Publish(context.Background(), c))
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for first := false; !first; {
		publish(changefeed.Change{Collection: changefeed.CollectionStores, DocumentID: "s1"})
		publish(changefeed.Change{
			Collection: changefeed.CollectionLineItems, DocumentID: "li-1", ParentID: "so-1",
			Fields: map[string]any{"orderId": "o-1", "storeId": "store-a"},
		})
		select {
		case <-rec.seen:
			first = true
		case <-ticker.C:
		case <-deadline:
			t.Fatal("watcher never recomputed")
		}
	}

	rec.mu.Lock()
	require.Equal(t, [2]string{"o-1", "store-a"}, rec.calls[0])
	rec.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_SkipsChangesWithoutIdentifiers(t *testing.T) {
	rec := &recorder{seen: make(chan struct{}, 1)}
	w := New(feedmemory.NewBroker(), rec, nil)
	w.handle(context.Background(), changefeed.Change{Collection: changefeed.CollectionLineItems, DocumentID: "li-1"})
	require.Empty(t, rec.calls)
}
