package repository

import (
	"context"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository defines access to the read-only reference data consumed
// by the stock core: products, categories, conditions and the two fixed
// status enumerations.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindProductByCode(ctx context.Context, code string) (*model.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListConditions(ctx context.Context) ([]model.Condition, error)
	ListProductStatuses(ctx context.Context) ([]model.ProductStatus, error)
	ListStockStatuses(ctx context.Context) ([]model.StockStatus, error)
	ProductStatusExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

// FindProductByID only returns active products: an inactive product cannot
// be added to a control.
func (r *catalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := GetDB(ctx, r.db).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) FindProductByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error) {
	db := GetDB(ctx, r.db).Where("is_active = ?", true)
	if term != "" {
		pattern := "%" + term + "%"
		db = db.Where("LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?)", pattern, pattern)
	}

	var products []model.Product
	if err := db.Order("name").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("category_name").
		Find(&categories).Error
	return categories, err
}

func (r *catalogRepository) ListConditions(ctx context.Context) ([]model.Condition, error) {
	var conditions []model.Condition
	err := GetDB(ctx, r.db).Order("condition_name").Find(&conditions).Error
	return conditions, err
}

func (r *catalogRepository) ListProductStatuses(ctx context.Context) ([]model.ProductStatus, error) {
	var statuses []model.ProductStatus
	err := GetDB(ctx, r.db).Order("product_status_name").Find(&statuses).Error
	return statuses, err
}

func (r *catalogRepository) ListStockStatuses(ctx context.Context) ([]model.StockStatus, error) {
	var statuses []model.StockStatus
	err := GetDB(ctx, r.db).Order("stock_status_name").Find(&statuses).Error
	return statuses, err
}

func (r *catalogRepository) ProductStatusExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ProductStatus{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
