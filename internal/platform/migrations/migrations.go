package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for every bounded context. Adapters do not automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&storeOrderRecord{},
		&lineItemRecord{},
		&categoryRecord{},
		&productRecord{},
		&storeRecord{},
		&agentRecord{},
		&idempotencyRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID                string         `gorm:"primaryKey;column:id;size:64"`
	UserID            string         `gorm:"column:user_id;size:64;index"`
	Status            string         `gorm:"column:status;type:varchar(16);index"`
	StoreIDs          pq.StringArray `gorm:"column:store_ids;type:text[]"`
	StoreStatuses     string         `gorm:"column:store_statuses;type:jsonb"`
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

// Catalogue schema mirrors the catalogue Postgres adapter.
type categoryRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	StoreID   string    `gorm:"column:store_id;size:64;uniqueIndex:idx_categories_store_name"`
	Name      string    `gorm:"column:name;uniqueIndex:idx_categories_store_name"`
	ImageURL  string    `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (categoryRecord) TableName() string { return "catalogue_categories" }

type productRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:64"`
	StoreID     string          `gorm:"column:store_id;size:64;index:idx_products_store_category"`
	CategoryID  string          `gorm:"column:category_id;size:64;index:idx_products_store_category"`
	Name        string          `gorm:"column:name"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	ImageURL    string          `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "catalogue_products" }

// Store schema mirrors the stores Postgres adapter.
type storeRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Name         string    `gorm:"column:name"`
	AddressLine1 string    `gorm:"column:address_line1"`
	AddressLine2 string    `gorm:"column:address_line2"`
	Lat          *float64  `gorm:"column:lat"`
	Lng          *float64  `gorm:"column:lng"`
	Category     string    `gorm:"column:category;index"`
	StoreNumber  string    `gorm:"column:store_number"`
	ContactEmail string    `gorm:"column:contact_email"`
	LoginEmail   string    `gorm:"column:login_email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Status       string    `gorm:"column:status;type:varchar(16);index"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (storeRecord) TableName() string { return "stores" }

// Agent schema mirrors the agents Postgres adapter.
type agentRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email"`
	Mobile       string    `gorm:"column:mobile"`
	Available    bool      `gorm:"column:available;index"`
	LoginEmail   string    `gorm:"column:login_email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (agentRecord) TableName() string { return "agents" }

// Idempotency schema mirrors the shared provisioning idempotency store.
type idempotencyRecord struct {
	Scope       string    `gorm:"primaryKey;column:scope;size:32"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	ResourceID  string    `gorm:"column:resource_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "idempotency_keys" }
