package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
)

var _ idempotency.Store = (*Store)(nil)

// Store persists idempotency keys in PostgreSQL.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewStore wires a PostgreSQL-backed idempotency store.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Store.
type Option func(*Store)

// WithQueryTimeout bounds every call the store makes.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.timeout = timeout }
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return pgplatform.Bound(ctx, s.timeout)
}

func (s *Store) Get(ctx context.Context, scope, key string) (*idempotency.Record, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var rec record
	if err := s.db.WithContext(ctx).First(&rec, "scope = ? AND key = ?", scope, key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toRecord(), nil
}

// Save inserts the record; on a duplicate key the stored record decides between replay and conflict.
func (s *Store) Save(ctx context.Context, in idempotency.Record) (*idempotency.Record, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rec := record{Scope: in.Scope, Key: in.Key, RequestHash: in.RequestHash, ResourceID: in.ResourceID}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		existing, getErr := s.Get(ctx, in.Scope, in.Key)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, err
		}
		if existing.RequestHash != in.RequestHash || existing.ResourceID != in.ResourceID {
			return existing, idempotency.ErrConflict
		}
		return existing, nil
	}
	return rec.toRecord(), nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

type record struct {
	Scope       string    `gorm:"primaryKey;column:scope;size:32"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	ResourceID  string    `gorm:"column:resource_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (record) TableName() string { return "idempotency_keys" }

func (r *record) toRecord() *idempotency.Record {
	return &idempotency.Record{
		Scope:       r.Scope,
		Key:         r.Key,
		RequestHash: r.RequestHash,
		ResourceID:  r.ResourceID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
