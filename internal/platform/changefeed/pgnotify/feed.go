// Package pgnotify implements the change feed on PostgreSQL LISTEN/NOTIFY so every
// API replica observes writes made by the others.
package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
)

// Channel is the NOTIFY channel used for every collection.
const Channel = "retail_changes"

// maxPayload keeps notifications under the server's 8000 byte limit.
const maxPayload = 7900

var _ changefeed.Feed = (*Feed)(nil)

// Feed publishes with pg_notify and fans received notifications out locally.
type Feed struct {
	db       *gorm.DB
	listener *pq.Listener
	local    *memory.Broker
	logger   *slog.Logger
	stop     chan struct{}
}

// Open starts listening on Channel using a dedicated connection for dsn.
func Open(db *gorm.DB, dsn string, logger *slog.Logger) (*Feed, error) {
	if db == nil {
		return nil, errors.New("pgnotify feed requires a database")
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("pgnotify feed requires a DSN")
	}
	if logger == nil {
		logger = slog.Default()
	}
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("postgres change listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
		}
	})
	if err := listener.Listen(Channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", Channel, err)
	}
	f := &Feed{db: db, listener: listener, local: memory.NewBroker(), logger: logger, stop: make(chan struct{})}
	go f.pump()
	return f, nil
}

// Publish sends the change through pg_notify. Field payloads that would exceed the
// NOTIFY limit are dropped; subscribers re-read the document anyway.
func (f *Feed) Publish(ctx context.Context, change changefeed.Change) error {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	payload, err := changefeed.Encode(change)
	if err != nil {
		return err
	}
	if len(payload) > maxPayload {
		change.Fields = nil
		if payload, err = changefeed.Encode(change); err != nil {
			return err
		}
	}
	ctx, cancel := pgplatform.Bound(ctx, 0)
	defer cancel()
	return f.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", Channel, string(payload)).Error
}

// Subscribe registers a local subscriber fed by the listener.
func (f *Feed) Subscribe(ctx context.Context, filter changefeed.Filter) (<-chan changefeed.Change, func(), error) {
	return f.local.Subscribe(ctx, filter)
}

// Close stops the listener and detaches subscribers.
func (f *Feed) Close() error {
	select {
	case <-f.stop:
		return nil
	default:
		close(f.stop)
	}
	err := f.listener.Close()
	return errors.Join(err, f.local.Close())
}

func (f *Feed) pump() {
	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-f.stop:
			return
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			// nil marks a reconnect; anything missed is recovered by the next change.
			if n == nil {
				continue
			}
			change, err := changefeed.Decode([]byte(n.Extra))
			if err != nil {
				f.logger.Warn("discarding malformed change notification", slog.String("error", err.Error()))
				continue
			}
			_ = f.local.Publish(context.Background(), change)
		case <-ticker.C:
			go func() { _ = f.listener.Ping() }()
		}
	}
}
