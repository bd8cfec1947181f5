package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/retail-ops/internal/platform/idempotency"
)

var _ idempotency.Store = (*Store)(nil)

type key struct {
	scope string
	key   string
}

// Store provides an in-memory implementation for development and tests.
type Store struct {
	mu      sync.RWMutex
	records map[key]idempotency.Record
	now     func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{records: map[key]idempotency.Record{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) Get(_ context.Context, scope, k string) (*idempotency.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key{scope, k}]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

func (s *Store) Save(_ context.Context, record idempotency.Record) (*idempotency.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := key{record.Scope, record.Key}
	if existing, ok := s.records[id]; ok {
		copy := existing
		if existing.RequestHash != record.RequestHash || existing.ResourceID != record.ResourceID {
			return &copy, idempotency.ErrConflict
		}
		return &copy, nil
	}
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[id] = record
	saved := record
	return &saved, nil
}
