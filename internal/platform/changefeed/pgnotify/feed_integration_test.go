//go:build integration
// +build integration

package pgnotify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/platform/changefeed/pgnotify"
	"github.com/Apurer/retail-ops/internal/platform/postgres/postgrestest"
)

func TestFeed_PublishReachesFilteredSubscriber(t *testing.T) {
	db, dsn := postgrestest.Start(t)
	feed, err := pgnotify.Open(db, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = feed.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	changes, unsubscribe, err := feed.Subscribe(ctx, changefeed.Filter{Collection: changefeed.CollectionStoreOrders, ParentID: "order-1"})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, feed.Publish(ctx, changefeed.Change{Collection: changefeed.CollectionStoreOrders, DocumentID: "so-x", ParentID: "order-2"}))
	require.NoError(t, feed.Publish(ctx, changefeed.Change{
		Collection: changefeed.CollectionStoreOrders,
		DocumentID: "so-1",
		ParentID:   "order-1",
		Kind:       changefeed.KindUpdated,
		Fields:     map[string]any{"status": "accepted"},
		At:         time.Now().UTC(),
	}))

	select {
	case change := <-changes:
		require.Equal(t, "so-1", change.DocumentID)
		require.Equal(t, "accepted", change.Fields["status"])
	case <-ctx.Done():
		t.Fatal("no change received over LISTEN/NOTIFY")
	}
}
