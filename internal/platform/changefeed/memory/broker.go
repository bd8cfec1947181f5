package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/retail-ops/internal/platform/changefeed"
)

var _ changefeed.Feed = (*Broker)(nil)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Broker fans changes out to in-process subscribers. A subscriber whose buffer is
// full misses the change; since changes are level-triggered the next one for the
// same document carries the latest state.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	buffer int
	closed bool
	now    func() time.Time
}

type subscription struct {
	filter changefeed.Filter
	ch     chan changefeed.Change
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.ch)
		close(s.done)
	})
}

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: map[int]*subscription{}, buffer: DefaultBuffer, now: time.Now}
}

// WithBuffer overrides the per-subscriber buffer.
func (b *Broker) WithBuffer(n int) *Broker {
	if n > 0 {
		b.buffer = n
	}
	return b
}

// Publish delivers the change to every matching subscriber without blocking.
func (b *Broker) Publish(_ context.Context, change changefeed.Change) error {
	if change.At.IsZero() {
		change.At = b.now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.filter.Matches(change) {
			continue
		}
		select {
		case sub.ch <- change:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber. The channel closes on unsubscribe, context
// cancellation, or broker shutdown.
func (b *Broker) Subscribe(ctx context.Context, filter changefeed.Filter) (<-chan changefeed.Change, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ch := make(chan changefeed.Change)
		close(ch)
		return ch, func() {}, nil
	}
	id := b.nextID
	b.nextID++
	sub := &subscription{filter: filter, ch: make(chan changefeed.Change, b.buffer), done: make(chan struct{})}
	b.subs[id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.close()
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
		}
	}()
	return sub.ch, unsubscribe, nil
}

// Close detaches every subscriber.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.close()
	}
	return nil
}
