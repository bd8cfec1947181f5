package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
)

// statusMap stores the per-store status map as jsonb.
type statusMap map[string]string

func (m statusMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *statusMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = statusMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("store_statuses: unsupported type %T", src)
	}
	out := statusMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

type orderRecord struct {
	ID                string         `gorm:"primaryKey;column:id;size:64"`
	UserID            string         `gorm:"column:user_id;size:64;index"`
	Status            string         `gorm:"column:status;type:varchar(16);index"`
	StoreIDs          pq.StringArray `gorm:"column:store_ids;type:text[]"`
	StoreStatuses     statusMap      `gorm:"column:store_statuses;type:jsonb"`
	DeliveryAgentID   *string        `gorm:"column:delivery_agent_id;size:64;index"`
	DeliveryAgentName string         `gorm:"column:delivery_agent_name"`
	Address           string         `gorm:"column:address"`
	Lat               float64        `gorm:"column:lat"`
	Lng               float64        `gorm:"column:lng"`
	AcceptedAt        *time.Time     `gorm:"column:accepted_at"`
	RejectedAt        *time.Time     `gorm:"column:rejected_at"`
	PackagedAt        *time.Time     `gorm:"column:packaged_at"`
	OnwayAt           *time.Time     `gorm:"column:onway_at"`
	DeliveredAt       *time.Time     `gorm:"column:delivered_at"`
	Version           int64          `gorm:"column:version;not null;default:1"`
	CreatedAt         time.Time      `gorm:"column:created_at;index"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type storeOrderRecord struct {
	ID          string     `gorm:"primaryKey;column:id;size:64"`
	OrderID     string     `gorm:"column:order_id;size:64;uniqueIndex:idx_store_orders_order_store"`
	StoreID     string     `gorm:"column:store_id;size:64;uniqueIndex:idx_store_orders_order_store;index:idx_store_orders_store_status"`
	Status      string     `gorm:"column:status;type:varchar(16);index:idx_store_orders_store_status"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
	RejectedAt  *time.Time `gorm:"column:rejected_at"`
	PackagedAt  *time.Time `gorm:"column:packaged_at"`
	OnwayAt     *time.Time `gorm:"column:onway_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	Version     int64      `gorm:"column:version;not null;default:1"`
	CreatedAt   time.Time  `gorm:"column:created_at;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (storeOrderRecord) TableName() string { return "store_orders" }

type lineItemRecord struct {
	ID              string              `gorm:"primaryKey;column:id;size:64"`
	StoreOrderID    string              `gorm:"column:store_order_id;size:64;index"`
	Position        int                 `gorm:"column:position"`
	ProductID       string              `gorm:"column:product_id;size:64"`
	Name            string              `gorm:"column:name"`
	UnitPrice       decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2)"`
	Quantity        int                 `gorm:"column:quantity"`
	ImageURL        string              `gorm:"column:image_url"`
	Status          string              `gorm:"column:status;type:varchar(16)"`
	RejectionReason string              `gorm:"column:rejection_reason"`
	UpdatedPrice    decimal.NullDecimal `gorm:"column:updated_price;type:numeric(12,2)"`
}

func (lineItemRecord) TableName() string { return "line_items" }

func toOrderRecord(order *domain.Order) orderRecord {
	storeIDs := make([]string, 0, len(order.StoreStatuses))
	statuses := make(statusMap, len(order.StoreStatuses))
	for storeID, status := range order.StoreStatuses {
		storeIDs = append(storeIDs, storeID)
		statuses[storeID] = string(status)
	}
	return orderRecord{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            string(order.Status),
		StoreIDs:          storeIDs,
		StoreStatuses:     statuses,
		DeliveryAgentID:   order.DeliveryAgentID,
		DeliveryAgentName: order.DeliveryAgentName,
		Address:           order.Location.Address,
		Lat:               order.Location.Lat,
		Lng:               order.Location.Lng,
		AcceptedAt:        order.Timestamps.Accepted,
		RejectedAt:        order.Timestamps.Rejected,
		PackagedAt:        order.Timestamps.Packaged,
		OnwayAt:           order.Timestamps.Onway,
		DeliveredAt:       order.Timestamps.Delivered,
		Version:           order.Version,
		CreatedAt:         order.CreatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	statuses := make(map[string]domain.Status, len(r.StoreStatuses))
	for storeID, status := range r.StoreStatuses {
		statuses[storeID] = domain.Status(status)
	}
	return &domain.Order{
		ID:                r.ID,
		UserID:            r.UserID,
		CreatedAt:         r.CreatedAt.UTC(),
		Status:            domain.Status(r.Status),
		StoreStatuses:     statuses,
		DeliveryAgentID:   r.DeliveryAgentID,
		DeliveryAgentName: r.DeliveryAgentName,
		Location:          domain.Location{Address: r.Address, Lat: r.Lat, Lng: r.Lng},
		Timestamps: domain.Timestamps{
			Accepted:  r.AcceptedAt,
			Rejected:  r.RejectedAt,
			Packaged:  r.PackagedAt,
			Onway:     r.OnwayAt,
			Delivered: r.DeliveredAt,
		},
		Version: r.Version,
	}
}

func toStoreOrderRecords(so *domain.StoreOrder) (storeOrderRecord, []lineItemRecord) {
	record := storeOrderRecord{
		ID:          so.ID,
		OrderID:     so.OrderID,
		StoreID:     so.StoreID,
		Status:      string(so.Status),
		AcceptedAt:  so.Timestamps.Accepted,
		RejectedAt:  so.Timestamps.Rejected,
		PackagedAt:  so.Timestamps.Packaged,
		OnwayAt:     so.Timestamps.Onway,
		DeliveredAt: so.Timestamps.Delivered,
		Version:     so.Version,
		CreatedAt:   so.CreatedAt,
	}
	items := make([]lineItemRecord, 0, len(so.Items))
	for i, item := range so.Items {
		items = append(items, toLineItemRecord(so.ID, i, item))
	}
	return record, items
}

func toLineItemRecord(storeOrderID string, position int, item domain.LineItem) lineItemRecord {
	rec := lineItemRecord{
		ID:              item.ID,
		StoreOrderID:    storeOrderID,
		Position:        position,
		ProductID:       item.ProductID,
		Name:            item.Name,
		UnitPrice:       item.UnitPrice,
		Quantity:        item.Quantity,
		ImageURL:        item.ImageURL,
		Status:          string(item.Status),
		RejectionReason: item.RejectionReason,
	}
	if item.UpdatedPrice != nil {
		rec.UpdatedPrice = decimal.NewNullDecimal(*item.UpdatedPrice)
	}
	return rec
}

func (r storeOrderRecord) toDomain(items []lineItemRecord) *domain.StoreOrder {
	so := &domain.StoreOrder{
		ID:        r.ID,
		OrderID:   r.OrderID,
		StoreID:   r.StoreID,
		Status:    domain.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		Timestamps: domain.Timestamps{
			Accepted:  r.AcceptedAt,
			Rejected:  r.RejectedAt,
			Packaged:  r.PackagedAt,
			Onway:     r.OnwayAt,
			Delivered: r.DeliveredAt,
		},
		Version: r.Version,
		Items:   make([]domain.LineItem, 0, len(items)),
	}
	for _, item := range items {
		li := domain.LineItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			ImageURL:        item.ImageURL,
			Status:          domain.Status(item.Status),
			RejectionReason: item.RejectionReason,
		}
		if item.UpdatedPrice.Valid {
			price := item.UpdatedPrice.Decimal
			li.UpdatedPrice = &price
		}
		so.Items = append(so.Items, li)
	}
	return so
}
