package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/domains/agents/ports"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

type agentRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email"`
	Mobile       string    `gorm:"column:mobile"`
	Available    bool      `gorm:"column:available"`
	LoginEmail   string    `gorm:"column:login_email"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (agentRecord) TableName() string { return "agents" }

// Repository persists agents in PostgreSQL using GORM.
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

func (r *Repository) Create(ctx context.Context, agent *domain.Agent) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := toRecord(agent)
	err := r.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return failure.Conflict(fmt.Errorf("agent %s or login e-mail %s already exists", agent.ID, agent.LoginEmail))
	}
	return external(err)
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Agent, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var rec agentRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, external(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) List(ctx context.Context, filter ports.Filter) ([]*domain.Agent, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := r.db.WithContext(ctx).Model(&agentRecord{})
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}
	var records []agentRecord
	if err := query.Order("name").Order("id").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	out := make([]*domain.Agent, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, agent *domain.Agent) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	result := r.db.WithContext(ctx).Model(&agentRecord{}).Where("id = ?", agent.ID).Updates(map[string]any{
		"name":       agent.Name,
		"email":      agent.Email,
		"mobile":     agent.Mobile,
		"available":  agent.Available,
		"updated_at": agent.UpdatedAt,
	})
	if result.Error != nil {
		return external(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&agentRecord{})
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
	if err := r.db.WithContext(ctx).Model(&agentRecord{}).Where("lower(login_email) = lower(?)", email).Count(&count).Error; err != nil {
		return false, external(err)
	}
	return count > 0, nil
}

func toRecord(a *domain.Agent) agentRecord {
	return agentRecord{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Mobile:       a.Mobile,
		Available:    a.Available,
		LoginEmail:   a.LoginEmail,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (rec agentRecord) toDomain() *domain.Agent {
	return &domain.Agent{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		Mobile:       rec.Mobile,
		Available:    rec.Available,
		LoginEmail:   rec.LoginEmail,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return failure.External("postgres", errors.New("agent repository not configured"))
	}
	return nil
}

func external(err error) error {
	if err == nil {
		return nil
	}
	return failure.External("postgres", err)
}
