package repository

import (
	"context"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchRepository defines read access to the branch reference data.
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	FindByCode(ctx context.Context, code string) (*model.Branch, error)
	List(ctx context.Context, onlyBranchID *uuid.UUID) ([]model.Branch, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, branch *model.Branch) error
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// List returns active branches, optionally narrowed to a single branch id
// (the employee-scoped view).
func (r *branchRepository) List(ctx context.Context, onlyBranchID *uuid.UUID) ([]model.Branch, error) {
	db := GetDB(ctx, r.db).Where("is_active = ?", true)
	if onlyBranchID != nil {
		db = db.Where("id = ?", *onlyBranchID)
	}

	var branches []model.Branch
	if err := db.Order("name").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *branchRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Branch{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}

func (r *branchRepository) Create(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}
