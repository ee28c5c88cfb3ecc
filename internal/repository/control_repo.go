package repository

import (
	"context"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ControlSummary is a monthly control joined with its item count, used for
// branch history listings.
type ControlSummary struct {
	model.MonthlyControl
	TotalItems int64 `json:"total_items"`
}

// ControlRepository defines data access for monthly controls.
type ControlRepository interface {
	Create(ctx context.Context, control *model.MonthlyControl) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MonthlyControl, error)
	FindByBranchAndPeriod(ctx context.Context, branchID uuid.UUID, year, month int) (*model.MonthlyControl, error)
	Exists(ctx context.Context, branchID uuid.UUID, year, month int) (bool, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	Complete(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ItemCount(ctx context.Context, id uuid.UUID) (int64, error)
	Stats(ctx context.Context, id uuid.UUID) (*model.ControlStats, error)
	History(ctx context.Context, branchID uuid.UUID, limit int) ([]ControlSummary, error)
	BranchStats(ctx context.Context, branchID uuid.UUID) (*model.BranchStats, error)
}

type controlRepository struct {
	db *gorm.DB
}

func NewControlRepository(db *gorm.DB) ControlRepository {
	return &controlRepository{db: db}
}

func (r *controlRepository) Create(ctx context.Context, control *model.MonthlyControl) error {
	return GetDB(ctx, r.db).Create(control).Error
}

func (r *controlRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MonthlyControl, error) {
	var control model.MonthlyControl
	err := GetDB(ctx, r.db).
		Preload("Branch").
		Preload("Creator").
		First(&control, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &control, nil
}

func (r *controlRepository) FindByBranchAndPeriod(ctx context.Context, branchID uuid.UUID, year, month int) (*model.MonthlyControl, error) {
	var control model.MonthlyControl
	err := GetDB(ctx, r.db).
		Preload("Branch").
		Preload("Creator").
		Where("branch_id = ? AND control_year = ? AND control_month = ?", branchID, year, month).
		First(&control).Error
	if err != nil {
		return nil, err
	}
	return &control, nil
}

func (r *controlRepository) Exists(ctx context.Context, branchID uuid.UUID, year, month int) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.MonthlyControl{}).
		Where("branch_id = ? AND control_year = ? AND control_month = ?", branchID, year, month).
		Count(&count).Error
	return count > 0, err
}

func (r *controlRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return GetDB(ctx, r.db).Model(&model.MonthlyControl{}).
		Where("id = ?", id).
		Update("notes", notes).Error
}

func (r *controlRepository) Complete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.MonthlyControl{}).
		Where("id = ?", id).
		Update("status", model.ControlStatusCompleted).Error
}

func (r *controlRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.MonthlyControl{}).Error
}

func (r *controlRepository) ItemCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StockItem{}).
		Where("monthly_control_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *controlRepository) Stats(ctx context.Context, id uuid.UUID) (*model.ControlStats, error) {
	db := GetDB(ctx, r.db)
	stats := &model.ControlStats{}

	type bucketCount struct {
		StockStatus model.StockStatusCode
		Total       int64
	}
	var buckets []bucketCount
	err := db.Model(&model.StockItem{}).
		Select("stock_status, COUNT(*) as total").
		Where("monthly_control_id = ?", id).
		Group("stock_status").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	for _, b := range buckets {
		stats.TotalItems += b.Total
		switch b.StockStatus {
		case model.StockStatusNeedsOrder:
			stats.NeedOrder = b.Total
		case model.StockStatusOptimal:
			stats.Optimal = b.Total
		case model.StockStatusExcess:
			stats.Excess = b.Total
		case model.StockStatusHighExcess:
			stats.HighExcess = b.Total
		}
	}

	if stats.TotalItems > 0 {
		var avg struct {
			Value float64
		}
		err = db.Model(&model.StockItem{}).
			Select("AVG(compliance) as value").
			Where("monthly_control_id = ?", id).
			Scan(&avg).Error
		if err != nil {
			return nil, err
		}
		stats.AvgCompliance = avg.Value
	}

	return stats, nil
}

func (r *controlRepository) History(ctx context.Context, branchID uuid.UUID, limit int) ([]ControlSummary, error) {
	var controls []model.MonthlyControl
	err := GetDB(ctx, r.db).
		Preload("Branch").
		Preload("Creator").
		Where("branch_id = ?", branchID).
		Order("control_year DESC, control_month DESC").
		Limit(limit).
		Find(&controls).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ControlSummary, 0, len(controls))
	for _, c := range controls {
		count, err := r.ItemCount(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ControlSummary{MonthlyControl: c, TotalItems: count})
	}
	return summaries, nil
}

func (r *controlRepository) BranchStats(ctx context.Context, branchID uuid.UUID) (*model.BranchStats, error) {
	db := GetDB(ctx, r.db)

	stats := &model.BranchStats{}
	if err := db.Model(&model.MonthlyControl{}).Where("branch_id = ?", branchID).Count(&stats.TotalControls).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.MonthlyControl{}).Where("branch_id = ? AND status = ?", branchID, model.ControlStatusCompleted).Count(&stats.CompletedControls).Error; err != nil {
		return nil, err
	}
	stats.DraftControls = stats.TotalControls - stats.CompletedControls
	return stats, nil
}
