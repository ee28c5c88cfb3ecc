package repository

import (
	"context"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemFilters narrows a line-item listing. Nil/empty fields are ignored.
type ItemFilters struct {
	CategoryID      *uuid.UUID
	ConditionID     *uuid.UUID
	ProductStatusID *uuid.UUID
	StockStatus     model.StockStatusCode
	Search          string
}

// ItemRepository defines data access for stock line items.
type ItemRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	Exists(ctx context.Context, controlID, productID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindWithControl(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByControl(ctx context.Context, controlID uuid.UUID, filters ItemFilters, page, limit int) ([]model.StockItem, int64, error)
	Update(ctx context.Context, item *model.StockItem) error
	UpdateProductStatus(ctx context.Context, id, productStatusID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByControl(ctx context.Context, controlID uuid.UUID) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.StockItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) Exists(ctx context.Context, controlID, productID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StockItem{}).
		Where("monthly_control_id = ? AND product_id = ?", controlID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Category").
		Preload("Condition").
		Preload("ProductStatus").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindWithControl loads an item together with its owning control so the
// caller can gate edits on the control's status and branch in one trip.
func (r *itemRepository) FindWithControl(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := GetDB(ctx, r.db).
		Preload("Control").
		Preload("Product").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) applyFilters(db *gorm.DB, controlID uuid.UUID, filters ItemFilters) *gorm.DB {
	db = db.Model(&model.StockItem{}).
		Joins("JOIN products ON products.id = stock_items.product_id").
		Where("stock_items.monthly_control_id = ?", controlID)

	if filters.CategoryID != nil {
		db = db.Where("stock_items.category_id = ?", *filters.CategoryID)
	}
	if filters.ConditionID != nil {
		db = db.Where("stock_items.condition_id = ?", *filters.ConditionID)
	}
	if filters.ProductStatusID != nil {
		db = db.Where("stock_items.product_status_id = ?", *filters.ProductStatusID)
	}
	if filters.StockStatus != "" {
		db = db.Where("stock_items.stock_status = ?", filters.StockStatus)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		db = db.Where("LOWER(products.name) LIKE LOWER(?) OR LOWER(products.code) LIKE LOWER(?)", pattern, pattern)
	}
	return db
}

func (r *itemRepository) FindByControl(ctx context.Context, controlID uuid.UUID, filters ItemFilters, page, limit int) ([]model.StockItem, int64, error) {
	var total int64
	if err := r.applyFilters(GetDB(ctx, r.db), controlID, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.StockItem
	offset := (page - 1) * limit
	err := r.applyFilters(GetDB(ctx, r.db), controlID, filters).
		Preload("Product").
		Preload("Category").
		Preload("Condition").
		Preload("ProductStatus").
		Order("products.name").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) Update(ctx context.Context, item *model.StockItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *itemRepository) UpdateProductStatus(ctx context.Context, id, productStatusID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.StockItem{}).
		Where("id = ?", id).
		Update("product_status_id", productStatusID).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StockItem{}).Error
}

// DeleteByControl removes every item owned by a control. Callers run it
// inside the same transaction as the control deletion.
func (r *itemRepository) DeleteByControl(ctx context.Context, controlID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("monthly_control_id = ?", controlID).Delete(&model.StockItem{}).Error
}
