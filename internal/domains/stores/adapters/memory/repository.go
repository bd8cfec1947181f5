package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/domains/stores/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps stores in memory.
type Repository struct {
	mu     sync.RWMutex
	stores map[string]*domain.Store
}

func NewRepository() *Repository {
	return &Repository{stores: map[string]*domain.Store{}}
}

func (r *Repository) Create(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[store.ID]; ok {
		return failure.Conflict(fmt.Errorf("store %s already exists", store.ID))
	}
	for _, existing := range r.stores {
		if strings.EqualFold(existing.LoginEmail, store.LoginEmail) {
			return failure.Conflict(fmt.Errorf("login e-mail %s already in use", store.LoginEmail))
		}
	}
	r.stores[store.ID] = clone(store)
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clone(store), nil
}

func (r *Repository) List(_ context.Context, filter ports.Filter) ([]*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Store, 0, len(r.stores))
	for _, store := range r.stores {
		if filter.Status != nil && store.Status != *filter.Status {
			continue
		}
		out = append(out, clone(store))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) Update(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[store.ID]; !ok {
		return ports.ErrNotFound
	}
	r.stores[store.ID] = clone(store)
	return nil
}

func (r *Repository) LoginEmailTaken(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, store := range r.stores {
		if strings.EqualFold(store.LoginEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func clone(store *domain.Store) *domain.Store {
	copy := *store
	if store.Location != nil {
		loc := *store.Location
		copy.Location = &loc
	}
	return &copy
}
