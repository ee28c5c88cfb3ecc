package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ControlStatus constants — the two lifecycle states of a monthly control.
const (
	ControlStatusDraft     = "draft"
	ControlStatusCompleted = "completed"
)

// MonthlyControl is one audit cycle for one branch and one (year, month)
// pair. At most one control exists per (branch, year, month).
type MonthlyControl struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_controls_branch_period" json:"branch_id"`
	Branch       *Branch     `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	ControlYear  int         `gorm:"not null;uniqueIndex:idx_controls_branch_period" json:"control_year"`
	ControlMonth int         `gorm:"not null;uniqueIndex:idx_controls_branch_period" json:"control_month"`
	Status       string      `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedBy    uuid.UUID   `gorm:"type:uuid;not null" json:"created_by"`
	Creator      *User       `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Notes        string      `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Items        []StockItem `gorm:"foreignKey:MonthlyControlID" json:"-"`
}

func (m *MonthlyControl) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// IsDraft reports whether the control still accepts mutation.
func (m *MonthlyControl) IsDraft() bool {
	return m.Status == ControlStatusDraft
}

// StockItem is one product's required-vs-current count within a monthly
// control. BranchID is a denormalized copy of the owning control's branch,
// fixed at creation. A product appears at most once per control.
type StockItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MonthlyControlID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_items_control_product" json:"monthly_control_id"`
	Control          *MonthlyControl `gorm:"foreignKey:MonthlyControlID" json:"-"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_items_control_product" json:"product_id"`
	Product          *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	BranchID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ConditionID      *uuid.UUID      `gorm:"type:uuid;index" json:"condition_id"`
	Condition        *Condition      `gorm:"foreignKey:ConditionID" json:"condition,omitempty"`
	ProductStatusID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_status_id"`
	ProductStatus    *ProductStatus  `gorm:"foreignKey:ProductStatusID" json:"product_status,omitempty"`
	StockRequire     int             `gorm:"not null" json:"stock_require"`
	StockCurrent     int             `gorm:"not null" json:"stock_current"`
	Compliance       int             `gorm:"not null" json:"stock_compliance"`
	StockStatusCode  StockStatusCode `gorm:"column:stock_status;type:varchar(20);not null;index" json:"stock_status"`
	Notes            string          `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StockDifference is the signed gap between counted and required stock.
func (s *StockItem) StockDifference() int {
	return s.StockCurrent - s.StockRequire
}

// ControlStats are the aggregates returned alongside a control.
type ControlStats struct {
	TotalItems    int64   `json:"total_items"`
	NeedOrder     int64   `json:"need_order"`
	Optimal       int64   `json:"optimal"`
	Excess        int64   `json:"excess"`
	HighExcess    int64   `json:"high_excess"`
	AvgCompliance float64 `json:"avg_compliance"`
}

// BranchStats summarise the control history of one branch.
type BranchStats struct {
	TotalControls     int64 `json:"total_controls"`
	CompletedControls int64 `json:"completed_controls"`
	DraftControls     int64 `json:"draft_controls"`
}
