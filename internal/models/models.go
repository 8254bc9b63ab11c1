package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleCustomer   = "CUSTOMER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductInactive ProductStatus = "INACTIVE"
	ProductDraft    ProductStatus = "DRAFT"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductDraft:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderFlow = map[OrderStatus]int{
	OrderPending:    0,
	OrderConfirmed:  1,
	OrderProcessing: 2,
	OrderShipped:    3,
	OrderDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderFlow[s]
	return ok || s == OrderCancelled
}

// Regresses reports whether moving from s to next goes backwards along
// PENDING→DELIVERED, or leaves CANCELLED.
func (s OrderStatus) Regresses(next OrderStatus) bool {
	if s == OrderCancelled {
		return next != OrderCancelled
	}
	from, ok1 := orderFlow[s]
	to, ok2 := orderFlow[next]
	return ok1 && ok2 && to < from
}

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"                  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	Name         string    `gorm:"not null"                    json:"name"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	Role         string    `gorm:"not null;default:CUSTOMER"   json:"role"`
	CreatedAt    time.Time `gorm:"index"                       json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID        uuid.UUID `gorm:"primaryKey"            json:"id"`
	Name      string    `gorm:"not null"              json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null"  json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID           uuid.UUID           `gorm:"primaryKey"                              json:"id"`
	Name         string              `gorm:"not null"                                json:"name"`
	Slug         string              `gorm:"uniqueIndex;not null"                    json:"slug"`
	Description  string              `gorm:"not null;default:''"                     json:"description"`
	Price        decimal.Decimal     `gorm:"type:numeric(12,2);not null"             json:"price"`
	ComparePrice decimal.NullDecimal `gorm:"type:numeric(12,2)"                      json:"compare_price"`
	Stock        int                 `gorm:"not null;default:0;check:stock >= 0"     json:"stock"`
	Status       ProductStatus       `gorm:"type:varchar(16);not null;default:DRAFT;index" json:"status"`
	CategoryID   *uuid.UUID          `gorm:"index"                                   json:"category_id"`
	Category     *Category           `gorm:"constraint:OnDelete:SET NULL"            json:"category,omitempty"`
	Images       ImageList           `json:"images"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type Review struct {
	ID        uuid.UUID `gorm:"primaryKey"                                   json:"id"`
	ProductID uuid.UUID `gorm:"index;not null"                               json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"                  json:"-"`
	UserID    uuid.UUID `gorm:"index;not null"                               json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"                  json:"-"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"  json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Verified  bool      `gorm:"not null;default:false"                       json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_product;not null"   json:"user_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_user_product;not null"   json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"             json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"   json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address is copied into the order at creation time and never follows
// later profile changes.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"primaryKey"                          json:"id"`
	OrderNumber     string          `gorm:"index;not null"                      json:"order_number"`
	UserID          uuid.UUID       `gorm:"index;not null"                      json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:RESTRICT"        json:"user,omitempty"`
	Status          OrderStatus     `gorm:"type:varchar(16);not null;index"     json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"tax"`
	Shipping        decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"shipping"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"total"`
	ShippingAddress Address         `gorm:"serializer:json;type:text;not null"  json:"shipping_address"`
	BillingAddress  *Address        `gorm:"serializer:json;type:text"           json:"billing_address"`
	PaymentMethod   string          `gorm:"not null"                            json:"payment_method"`
	Notes           string          `json:"notes"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"         json:"items"`
	CreatedAt       time.Time       `gorm:"index"                               json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"primaryKey"                        json:"id"`
	OrderID   uuid.UUID       `gorm:"index;not null"                    json:"order_id"`
	ProductID uuid.UUID       `gorm:"index;not null"                    json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT"      json:"product,omitempty"`
	Quantity  int             `gorm:"not null;check:quantity > 0"       json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"price"`
}

type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobSent       JobStatus = "SENT"
	JobFailed     JobStatus = "FAILED"
)

// NotificationJob is an outbox row: one post-commit side effect with its
// own retry bookkeeping.
type NotificationJob struct {
	ID            uuid.UUID `gorm:"primaryKey"                                  json:"id"`
	OrderID       uuid.UUID `gorm:"index;not null"                              json:"order_id"`
	Kind          string    `gorm:"type:varchar(48);not null"                   json:"kind"`
	Payload       []byte    `gorm:"not null"                                    json:"-"`
	Status        JobStatus `gorm:"type:varchar(16);not null;index:idx_job_due" json:"status"`
	Attempts      int       `gorm:"not null;default:0"                          json:"attempts"`
	NextAttemptAt time.Time `gorm:"not null;index:idx_job_due"                  json:"next_attempt_at"`
	LastError     string    `json:"last_error"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error            { newID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error        { newID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error         { newID(&p.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error          { newID(&r.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error        { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error           { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error       { newID(&i.ID); return nil }
func (j *NotificationJob) BeforeCreate(*gorm.DB) error { newID(&j.ID); return nil }

func (CartItem) TableName() string { return "cart_items" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Product{},
		&Review{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&NotificationJob{},
	)
}
