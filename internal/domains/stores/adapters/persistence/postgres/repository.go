package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/domains/stores/ports"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

type storeRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Name         string    `gorm:"column:name"`
	AddressLine1 string    `gorm:"column:address_line1"`
	AddressLine2 string    `gorm:"column:address_line2"`
	Lat          *float64  `gorm:"column:lat"`
	Lng          *float64  `gorm:"column:lng"`
	Category     string    `gorm:"column:category"`
	StoreNumber  string    `gorm:"column:store_number"`
	ContactEmail string    `gorm:"column:contact_email"`
	LoginEmail   string    `gorm:"column:login_email"`
	PasswordHash string    `gorm:"column:password_hash"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (storeRecord) TableName() string { return "stores" }

// Repository persists stores in PostgreSQL using GORM.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Repository.
type Option func(*Repository)

// WithQueryTimeout bounds every call the repository makes.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(r *Repository) { r.timeout = timeout }
}

func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return pgplatform.Bound(ctx, r.timeout)
}

func (r *Repository) Create(ctx context.Context, store *domain.Store) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := toRecord(store)
	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return failure.Conflict(fmt.Errorf("store %s or login e-mail %s already exists", store.ID, store.LoginEmail))
	}
	return external(err)
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Store, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var rec storeRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, external(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) List(ctx context.Context, filter ports.Filter) ([]*domain.Store, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := r.db.WithContext(ctx).Model(&storeRecord{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	var records []storeRecord
	if err := query.Order("created_at DESC").Order("id").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	out := make([]*domain.Store, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

// Update rewrites the mutable columns. Login credentials are never changed here.
func (r *Repository) Update(ctx context.Context, store *domain.Store) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := toRecord(store)
	result := r.db.WithContext(ctx).Model(&storeRecord{}).Where("id = ?", store.ID).Updates(map[string]any{
		"name":          rec.Name,
		"address_line1": rec.AddressLine1,
		"address_line2": rec.AddressLine2,
		"lat":           rec.Lat,
		"lng":           rec.Lng,
		"category":      rec.Category,
		"store_number":  rec.StoreNumber,
		"contact_email": rec.ContactEmail,
		"status":        rec.Status,
		"updated_at":    rec.UpdatedAt,
	})
	if result.Error != nil {
		return external(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) LoginEmailTaken(ctx context.Context, email string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var count int64
	if err := r.db.WithContext(ctx).Model(&storeRecord{}).Where("lower(login_email) = lower(?)", email).Count(&count).Error; err != nil {
		return false, external(err)
	}
	return count > 0, nil
}

func toRecord(s *domain.Store) storeRecord {
	rec := storeRecord{
		ID:           s.ID,
		Name:         s.Name,
		AddressLine1: s.AddressLine1,
		AddressLine2: s.AddressLine2,
		Category:     s.Category,
		StoreNumber:  s.StoreNumber,
		ContactEmail: s.ContactEmail,
		LoginEmail:   s.LoginEmail,
		PasswordHash: s.PasswordHash,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Location != nil {
		lat, lng := s.Location.Lat, s.Location.Lng
		rec.Lat, rec.Lng = &lat, &lng
	}
	return rec
}

func (rec storeRecord) toDomain() *domain.Store {
	store := &domain.Store{
		ID:           rec.ID,
		Name:         rec.Name,
		AddressLine1: rec.AddressLine1,
		AddressLine2: rec.AddressLine2,
		Category:     rec.Category,
		StoreNumber:  rec.StoreNumber,
		ContactEmail: rec.ContactEmail,
		LoginEmail:   rec.LoginEmail,
		PasswordHash: rec.PasswordHash,
		Status:       domain.Status(rec.Status),
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
	if rec.Lat != nil && rec.Lng != nil {
		store.Location = &domain.Location{Lat: *rec.Lat, Lng: *rec.Lng}
	}
	return store
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return failure.External("postgres", errors.New("store repository not configured"))
	}
	return nil
}

func external(err error) error {
	if err == nil {
		return nil
	}
	return failure.External("postgres", err)
}
