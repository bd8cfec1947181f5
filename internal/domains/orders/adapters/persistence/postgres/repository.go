package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/domains/orders/ports"
	pgplatform "github.com/Apurer/retail-ops/internal/platform/postgres"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders, store orders and line items in PostgreSQL using GORM.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.Run beforehand.
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

// Create inserts the order with its store orders and line items in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order, storeOrders []*domain.StoreOrder) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	order.Version = 1
	orderRec := toOrderRecord(order)
	soRecs := make([]storeOrderRecord, 0, len(storeOrders))
	var itemRecs []lineItemRecord
	for _, so := range storeOrders {
		so.Version = 1
		rec, items := toStoreOrderRecords(so)
		soRecs = append(soRecs, rec)
		itemRecs = append(itemRecs, items...)
	}
	err := pgplatform.WithRetry(ctx, r.db, pgplatform.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := tx.Create(&orderRec).Error; err != nil {
			return err
		}
		if len(soRecs) > 0 {
			if err := tx.Create(&soRecs).Error; err != nil {
				return err
			}
		}
		if len(itemRecs) > 0 {
			if err := tx.Create(&itemRecs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return failure.Conflict(fmt.Errorf("order %s already exists", order.ID))
	}
	return external(err)
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, external(err)
	}
	return record.toDomain(), nil
}

func (r *Repository) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.StoreID != "" {
		query = query.Where("? = ANY(store_ids)", filter.StoreID)
	}
	if filter.AgentID != "" {
		query = query.Where("delivery_agent_id = ?", filter.AgentID)
	}
	if filter.Unassigned {
		query = query.Where("delivery_agent_id IS NULL")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []orderRecord
	if err := query.Order("created_at DESC").Order("id").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// SaveOrder writes the order when its stored version still matches.
func (r *Repository) SaveOrder(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec := toOrderRecord(order)
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"status":              rec.Status,
			"store_statuses":      rec.StoreStatuses,
			"delivery_agent_id":   rec.DeliveryAgentID,
			"delivery_agent_name": rec.DeliveryAgentName,
			"accepted_at":         rec.AcceptedAt,
			"rejected_at":         rec.RejectedAt,
			"packaged_at":         rec.PackagedAt,
			"onway_at":            rec.OnwayAt,
			"delivered_at":        rec.DeliveredAt,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return external(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetOrder(ctx, order.ID); err != nil {
			return err
		}
		return ports.ErrStaleWrite
	}
	order.Version++
	return nil
}

func (r *Repository) GetStoreOrder(ctx context.Context, orderID, storeID string) (*domain.StoreOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var record storeOrderRecord
	err := r.db.WithContext(ctx).First(&record, "order_id = ? AND store_id = ?", orderID, storeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrStoreOrderNotFound
		}
		return nil, external(err)
	}
	hydrated, err := r.hydrate(ctx, []storeOrderRecord{record})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

// ListStoreOrdersByOrder loads the store orders of several orders with two queries.
func (r *Repository) ListStoreOrdersByOrder(ctx context.Context, orderIDs ...string) (map[string][]*domain.StoreOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	result := make(map[string][]*domain.StoreOrder, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	var records []storeOrderRecord
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("created_at").Order("store_id").
		Find(&records).Error
	if err != nil {
		return nil, external(err)
	}
	storeOrders, err := r.hydrate(ctx, records)
	if err != nil {
		return nil, err
	}
	for _, so := range storeOrders {
		result[so.OrderID] = append(result[so.OrderID], so)
	}
	return result, nil
}

func (r *Repository) ListStoreOrders(ctx context.Context, filter ports.StoreOrderFilter) ([]*domain.StoreOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	query := r.db.WithContext(ctx).Model(&storeOrderRecord{})
	if filter.StoreID != "" {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []storeOrderRecord
	if err := query.Order("created_at DESC").Order("id").Find(&records).Error; err != nil {
		return nil, external(err)
	}
	return r.hydrate(ctx, records)
}

// SaveStoreOrder writes the store order and its line items when the stored
// version still matches.
func (r *Repository) SaveStoreOrder(ctx context.Context, so *domain.StoreOrder) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	rec, items := toStoreOrderRecords(so)
	err := pgplatform.WithRetry(ctx, r.db, pgplatform.DefaultTxOptions(), func(tx *gorm.DB) error {
		result := tx.Model(&storeOrderRecord{}).
			Where("id = ? AND version = ?", rec.ID, rec.Version).
			Updates(map[string]any{
				"status":       rec.Status,
				"accepted_at":  rec.AcceptedAt,
				"rejected_at":  rec.RejectedAt,
				"packaged_at":  rec.PackagedAt,
				"onway_at":     rec.OnwayAt,
				"delivered_at": rec.DeliveredAt,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&storeOrderRecord{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ports.ErrStoreOrderNotFound
			}
			return ports.ErrStaleWrite
		}
		for _, item := range items {
			err := tx.Model(&lineItemRecord{}).
				Where("id = ? AND store_order_id = ?", item.ID, rec.ID).
				Updates(map[string]any{
					"status":           item.Status,
					"rejection_reason": item.RejectionReason,
					"updated_price":    item.UpdatedPrice,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if failure.Kind(err) != nil {
			return err
		}
		return external(err)
	}
	so.Version++
	return nil
}

// BindAgent sets the agent only while none is bound. The condition and the write
// are a single statement, so concurrent callers cannot both succeed.
func (r *Repository) BindAgent(ctx context.Context, orderID string, binding ports.AgentBinding) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND delivery_agent_id IS NULL AND status IN ?", orderID,
			[]string{string(domain.StatusPending), string(domain.StatusAccepted)}).
		Updates(map[string]any{
			"delivery_agent_id":   binding.AgentID,
			"delivery_agent_name": binding.AgentName,
			"status":              string(domain.StatusOnway),
			"onway_at":            gorm.Expr("COALESCE(onway_at, ?)", binding.At.UTC()),
			"version":             gorm.Expr("version + 1"),
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, external(result.Error)
	}
	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		if order.DeliveryAgentID != nil {
			return nil, ports.ErrAlreadyAssigned
		}
		return nil, failure.Conflict(fmt.Errorf("%w: order is %s", domain.ErrNotReady, order.Status))
	}
	return order, nil
}

func (r *Repository) hydrate(ctx context.Context, records []storeOrderRecord) ([]*domain.StoreOrder, error) {
	if len(records) == 0 {
		return []*domain.StoreOrder{}, nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var items []lineItemRecord
	err := r.db.WithContext(ctx).
		Where("store_order_id IN ?", ids).
		Order("store_order_id").Order("position").
		Find(&items).Error
	if err != nil {
		return nil, external(err)
	}
	byStoreOrder := make(map[string][]lineItemRecord, len(records))
	for _, item := range items {
		byStoreOrder[item.StoreOrderID] = append(byStoreOrder[item.StoreOrderID], item)
	}
	out := make([]*domain.StoreOrder, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain(byStoreOrder[rec.ID]))
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return failure.External("postgres", errors.New("order repository not configured"))
	}
	return nil
}

func external(err error) error {
	if err == nil {
		return nil
	}
	return failure.External("postgres", err)
}
