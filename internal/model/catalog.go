package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry counted during stock controls.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"product_name"`
	Code        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"product_code"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Category groups products for filtering within a control.
type Category struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"column:category_name;type:varchar(100);not null" json:"category_name"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Condition describes the physical state a product is counted in.
type Condition struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:condition_name;type:varchar(100);not null" json:"condition_name"`
}

func (c *Condition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ProductStatusCode is the tri-state commercial status of a product line.
type ProductStatusCode string

const (
	ProductStatusActive   ProductStatusCode = "active"
	ProductStatusInactive ProductStatusCode = "inactive"
	ProductStatusTrial    ProductStatusCode = "trial"
)

// ProductStatus is seeded reference data for the tri-state product status.
type ProductStatus struct {
	ID   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Code ProductStatusCode `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name string            `gorm:"column:product_status_name;type:varchar(100);not null" json:"product_status_name"`
}

func (p *ProductStatus) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StockStatusCode is the compliance bucket derived for a stock item. It is
// never set directly by a caller.
type StockStatusCode string

const (
	StockStatusNeedsOrder StockStatusCode = "needs_order"
	StockStatusOptimal    StockStatusCode = "optimal"
	StockStatusExcess     StockStatusCode = "excess"
	StockStatusHighExcess StockStatusCode = "high_excess"
)

// StockStatus is seeded reference data for the four fixed compliance
// buckets, carrying the display name and color used by the dashboard.
type StockStatus struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code           StockStatusCode `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name           string          `gorm:"column:stock_status_name;type:varchar(100);not null" json:"stock_status_name"`
	ColorIndicator string          `gorm:"type:varchar(20)" json:"color_indicator"`
}

func (s *StockStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
