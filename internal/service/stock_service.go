package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/programacioneltictac/app-gestion-stock/internal/access"
	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/compliance"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"
	ws "github.com/programacioneltictac/app-gestion-stock/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateControlRequest struct {
	BranchID string `json:"branch_id"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
}

type CurrentControlQuery struct {
	BranchID string
	Year     int
	Month    int
}

type AddItemRequest struct {
	MonthlyControlID string `json:"monthly_control_id" binding:"required"`
	ProductID        string `json:"product_id" binding:"required"`
	CategoryID       string `json:"category_id"`
	ConditionID      string `json:"condition_id"`
	ProductStatusID  string `json:"product_status_id" binding:"required"`
	StockRequire     int    `json:"stock_require" binding:"min=0"`
	StockCurrent     int    `json:"stock_current" binding:"min=0"`
	Notes            string `json:"notes"`
}

type UpdateItemRequest struct {
	StockRequire int    `json:"stock_require" binding:"min=0"`
	StockCurrent int    `json:"stock_current" binding:"min=0"`
	Notes        string `json:"notes"`
}

type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type CurrentControlResponse struct {
	Control   *model.MonthlyControl `json:"control"`
	Stats     *model.ControlStats   `json:"stats,omitempty"`
	CanEdit   bool                  `json:"can_edit"`
	CanCreate bool                  `json:"can_create"`
	Period    Period                `json:"period"`
}

type ControlSummaryInfo struct {
	ID       uuid.UUID `json:"id"`
	BranchID uuid.UUID `json:"branch_id"`
	Status   string    `json:"status"`
	CanEdit  bool      `json:"can_edit"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ItemListResponse struct {
	Items      []model.StockItem  `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Control    ControlSummaryInfo `json:"control"`
}

type BranchSummaryResponse struct {
	Branch   *model.Branch               `json:"branch"`
	Controls []repository.ControlSummary `json:"controls"`
	Stats    *model.BranchStats          `json:"stats"`
}

// StockEvent is the payload broadcast to connected dashboards on mutations.
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// StockService governs the monthly-control lifecycle and its line items.
// Every operation receives the already-authenticated caller and enforces,
// in order: existence, branch access, lifecycle state, domain preconditions.
// No write happens before all checks pass.
type StockService interface {
	CreateMonthlyControl(ctx context.Context, user model.AuthUser, req CreateControlRequest) (*model.MonthlyControl, error)
	GetCurrentControl(ctx context.Context, user model.AuthUser, q CurrentControlQuery) (*CurrentControlResponse, error)
	SaveControlNotes(ctx context.Context, user model.AuthUser, controlID string, notes string) error
	CompleteControl(ctx context.Context, user model.AuthUser, controlID string) (*model.MonthlyControl, int64, error)
	DeleteControl(ctx context.Context, user model.AuthUser, controlID string) error
	ControlHistory(ctx context.Context, user model.AuthUser, branchID string, limit int) ([]repository.ControlSummary, error)
	BranchSummary(ctx context.Context, user model.AuthUser, branchID string, limit int) (*BranchSummaryResponse, error)
	AddItem(ctx context.Context, user model.AuthUser, req AddItemRequest) (*model.StockItem, error)
	ListItems(ctx context.Context, user model.AuthUser, controlID string, filters repository.ItemFilters, page, limit int) (*ItemListResponse, error)
	UpdateItem(ctx context.Context, user model.AuthUser, itemID string, req UpdateItemRequest) (*model.StockItem, error)
	DeleteItem(ctx context.Context, user model.AuthUser, itemID string) error
	UpdateItemProductStatus(ctx context.Context, user model.AuthUser, itemID, productStatusID string) error
}

type stockService struct {
	controlRepo repository.ControlRepository
	itemRepo    repository.ItemRepository
	branchRepo  repository.BranchRepository
	catalogRepo repository.CatalogRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewStockService(
	controlRepo repository.ControlRepository,
	itemRepo repository.ItemRepository,
	branchRepo repository.BranchRepository,
	catalogRepo repository.CatalogRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		controlRepo: controlRepo,
		itemRepo:    itemRepo,
		branchRepo:  branchRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func currentPeriod() Period {
	now := time.Now()
	return Period{Year: now.Year(), Month: int(now.Month())}
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("invalid %s", field))
	}
	return id, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// resolveBranch applies the access policy to the requested branch and
// guarantees the result is a concrete, accessible branch.
func (s *stockService) resolveBranch(user model.AuthUser, requested *uuid.UUID) (uuid.UUID, error) {
	branchID := access.ResolveBranchID(user, requested)
	if branchID == nil {
		return uuid.Nil, apperr.Validation("branch is required")
	}
	if !access.CanAccessBranch(user, *branchID) {
		return uuid.Nil, apperr.AccessDenied("you do not have access to this branch")
	}
	return *branchID, nil
}

// findControl loads a control and verifies the caller can reach its branch.
func (s *stockService) findControl(ctx context.Context, user model.AuthUser, controlID uuid.UUID) (*model.MonthlyControl, error) {
	control, err := s.controlRepo.FindByID(ctx, controlID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("control not found")
		}
		return nil, fmt.Errorf("failed to load control: %w", err)
	}
	if !access.CanAccessBranch(user, control.BranchID) {
		return nil, apperr.AccessDenied("you do not have access to this control")
	}
	return control, nil
}

// findItemForEdit loads an item with its owning control and runs the full
// gate: access is checked against the control's branch, and the control must
// still be a draft.
func (s *stockService) findItemForEdit(ctx context.Context, user model.AuthUser, itemID uuid.UUID) (*model.StockItem, error) {
	item, err := s.itemRepo.FindWithControl(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stock item not found")
		}
		return nil, fmt.Errorf("failed to load stock item: %w", err)
	}
	if item.Control == nil {
		return nil, apperr.NotFound("owning control not found")
	}
	if !access.CanAccessBranch(user, item.Control.BranchID) {
		return nil, apperr.AccessDenied("you do not have access to this control")
	}
	if !item.Control.IsDraft() {
		return nil, apperr.InvalidState("items can only be modified while the control is in draft")
	}
	return item, nil
}

func (s *stockService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(StockEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func (s *stockService) CreateMonthlyControl(ctx context.Context, user model.AuthUser, req CreateControlRequest) (*model.MonthlyControl, error) {
	requested, err := parseOptionalID(req.BranchID, "branch id")
	if err != nil {
		return nil, err
	}

	period := currentPeriod()
	if req.Year != 0 && req.Month != 0 {
		period = Period{Year: req.Year, Month: req.Month}
	}
	if period.Month < 1 || period.Month > 12 {
		return nil, apperr.Validation("control month must be between 1 and 12")
	}

	branchID, err := s.resolveBranch(user, requested)
	if err != nil {
		return nil, err
	}

	exists, err := s.controlRepo.Exists(ctx, branchID, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing control: %w", err)
	}
	if exists {
		return nil, apperr.Conflict(fmt.Sprintf("a control for %d/%d already exists for this branch", period.Month, period.Year))
	}

	control := &model.MonthlyControl{
		BranchID:     branchID,
		ControlYear:  period.Year,
		ControlMonth: period.Month,
		Status:       model.ControlStatusDraft,
		CreatedBy:    user.ID,
	}
	if err := s.controlRepo.Create(ctx, control); err != nil {
		return nil, fmt.Errorf("failed to create control: %w", err)
	}

	return s.controlRepo.FindByID(ctx, control.ID)
}

func (s *stockService) GetCurrentControl(ctx context.Context, user model.AuthUser, q CurrentControlQuery) (*CurrentControlResponse, error) {
	requested, err := parseOptionalID(q.BranchID, "branch id")
	if err != nil {
		return nil, err
	}

	period := currentPeriod()
	if q.Year != 0 && q.Month != 0 {
		period = Period{Year: q.Year, Month: q.Month}
	}

	branchID, err := s.resolveBranch(user, requested)
	if err != nil {
		return nil, err
	}

	control, err := s.controlRepo.FindByBranchAndPeriod(ctx, branchID, period.Year, period.Month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CurrentControlResponse{CanCreate: true, Period: period}, nil
		}
		return nil, fmt.Errorf("failed to load control: %w", err)
	}

	stats, err := s.controlStats(ctx, control.ID)
	if err != nil {
		return nil, err
	}

	return &CurrentControlResponse{
		Control: control,
		Stats:   stats,
		CanEdit: control.IsDraft(),
		Period:  period,
	}, nil
}

func (s *stockService) controlStats(ctx context.Context, controlID uuid.UUID) (*model.ControlStats, error) {
	stats, err := s.controlRepo.Stats(ctx, controlID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute control stats: %w", err)
	}
	// Average compliance is reported with two decimals.
	stats.AvgCompliance = decimal.NewFromFloat(stats.AvgCompliance).Round(2).InexactFloat64()
	return stats, nil
}

func (s *stockService) SaveControlNotes(ctx context.Context, user model.AuthUser, controlID string, notes string) error {
	id, err := parseID(controlID, "control id")
	if err != nil {
		return err
	}

	control, err := s.findControl(ctx, user, id)
	if err != nil {
		return err
	}
	if !control.IsDraft() {
		return apperr.InvalidState("only draft controls can be edited")
	}

	if err := s.controlRepo.UpdateNotes(ctx, id, notes); err != nil {
		return fmt.Errorf("failed to save control: %w", err)
	}
	return nil
}

func (s *stockService) CompleteControl(ctx context.Context, user model.AuthUser, controlID string) (*model.MonthlyControl, int64, error) {
	id, err := parseID(controlID, "control id")
	if err != nil {
		return nil, 0, err
	}

	control, err := s.findControl(ctx, user, id)
	if err != nil {
		return nil, 0, err
	}
	if !control.IsDraft() {
		return nil, 0, apperr.InvalidState("only draft controls can be completed")
	}

	itemCount, err := s.controlRepo.ItemCount(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}
	if itemCount == 0 {
		return nil, 0, apperr.EmptyControl("a control cannot be completed without registered products")
	}

	if err := s.controlRepo.Complete(ctx, id); err != nil {
		return nil, 0, fmt.Errorf("failed to complete control: %w", err)
	}

	updated, err := s.controlRepo.FindByID(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reload control: %w", err)
	}

	s.broadcast("control_completed", map[string]interface{}{
		"control_id":  updated.ID.String(),
		"branch_id":   updated.BranchID.String(),
		"total_items": itemCount,
	})

	return updated, itemCount, nil
}

func (s *stockService) DeleteControl(ctx context.Context, user model.AuthUser, controlID string) error {
	id, err := parseID(controlID, "control id")
	if err != nil {
		return err
	}

	if _, err := s.findControl(ctx, user, id); err != nil {
		return err
	}
	// Deletion is an admin privilege layered on top of branch access.
	if user.Role != model.RoleAdmin {
		return apperr.AccessDenied("only administrators can delete controls")
	}

	// Items and the control go together or not at all.
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.DeleteByControl(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete control items: %w", err)
		}
		if err := s.controlRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete control: %w", err)
		}
		return nil
	})
}

func (s *stockService) ControlHistory(ctx context.Context, user model.AuthUser, branchID string, limit int) ([]repository.ControlSummary, error) {
	requested, err := parseOptionalID(branchID, "branch id")
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolveBranch(user, requested)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 12
	}
	return s.controlRepo.History(ctx, resolved, limit)
}

func (s *stockService) BranchSummary(ctx context.Context, user model.AuthUser, branchID string, limit int) (*BranchSummaryResponse, error) {
	id, err := parseID(branchID, "branch id")
	if err != nil {
		return nil, err
	}
	if !access.CanAccessBranch(user, id) {
		return nil, apperr.AccessDenied("you do not have access to this branch")
	}

	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("branch not found")
		}
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}

	if limit <= 0 {
		limit = 12
	}
	controls, err := s.controlRepo.History(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load control history: %w", err)
	}

	stats, err := s.controlRepo.BranchStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch stats: %w", err)
	}

	return &BranchSummaryResponse{Branch: branch, Controls: controls, Stats: stats}, nil
}

func (s *stockService) AddItem(ctx context.Context, user model.AuthUser, req AddItemRequest) (*model.StockItem, error) {
	controlID, err := parseID(req.MonthlyControlID, "control id")
	if err != nil {
		return nil, err
	}
	productID, err := parseID(req.ProductID, "product id")
	if err != nil {
		return nil, err
	}
	categoryID, err := parseOptionalID(req.CategoryID, "category id")
	if err != nil {
		return nil, err
	}
	conditionID, err := parseOptionalID(req.ConditionID, "condition id")
	if err != nil {
		return nil, err
	}
	productStatusID, err := parseID(req.ProductStatusID, "product status id")
	if err != nil {
		return nil, err
	}

	control, err := s.findControl(ctx, user, controlID)
	if err != nil {
		return nil, err
	}
	if !control.IsDraft() {
		return nil, apperr.InvalidState("products can only be added to draft controls")
	}

	product, err := s.catalogRepo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	statusExists, err := s.catalogRepo.ProductStatusExists(ctx, productStatusID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product status: %w", err)
	}
	if !statusExists {
		return nil, apperr.Validation("unknown product status")
	}

	exists, err := s.itemRepo.Exists(ctx, controlID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate item: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("this product is already part of the control")
	}

	percent, statusCode, err := compliance.Classify(req.StockCurrent, req.StockRequire)
	if err != nil {
		return nil, err
	}

	item := &model.StockItem{
		MonthlyControlID: controlID,
		ProductID:        product.ID,
		// The item keeps a copy of the control's branch, fixed at creation.
		BranchID:        control.BranchID,
		CategoryID:      categoryID,
		ConditionID:     conditionID,
		ProductStatusID: productStatusID,
		StockRequire:    req.StockRequire,
		StockCurrent:    req.StockCurrent,
		Compliance:      percent,
		StockStatusCode: statusCode,
		Notes:           req.Notes,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create stock item: %w", err)
	}

	detail, err := s.itemRepo.FindByID(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload stock item: %w", err)
	}

	s.broadcast("item_added", map[string]interface{}{
		"control_id":   controlID.String(),
		"item_id":      detail.ID.String(),
		"product_id":   product.ID.String(),
		"stock_status": string(detail.StockStatusCode),
	})

	return detail, nil
}

func (s *stockService) ListItems(ctx context.Context, user model.AuthUser, controlID string, filters repository.ItemFilters, page, limit int) (*ItemListResponse, error) {
	id, err := parseID(controlID, "control id")
	if err != nil {
		return nil, err
	}

	control, err := s.findControl(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	items, total, err := s.itemRepo.FindByControl(ctx, id, filters, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &ItemListResponse{
		Items: items,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
		Control: ControlSummaryInfo{
			ID:       control.ID,
			BranchID: control.BranchID,
			Status:   control.Status,
			CanEdit:  control.IsDraft(),
		},
	}, nil
}

func (s *stockService) UpdateItem(ctx context.Context, user model.AuthUser, itemID string, req UpdateItemRequest) (*model.StockItem, error) {
	id, err := parseID(itemID, "item id")
	if err != nil {
		return nil, err
	}

	item, err := s.findItemForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}

	// Same classification as creation: status is never path-dependent.
	percent, statusCode, err := compliance.Classify(req.StockCurrent, req.StockRequire)
	if err != nil {
		return nil, err
	}

	item.StockRequire = req.StockRequire
	item.StockCurrent = req.StockCurrent
	item.Compliance = percent
	item.StockStatusCode = statusCode
	item.Notes = req.Notes
	item.Control = nil

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update stock item: %w", err)
	}

	detail, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload stock item: %w", err)
	}

	s.broadcast("item_updated", map[string]interface{}{
		"item_id":      detail.ID.String(),
		"control_id":   detail.MonthlyControlID.String(),
		"stock_status": string(detail.StockStatusCode),
	})

	return detail, nil
}

func (s *stockService) DeleteItem(ctx context.Context, user model.AuthUser, itemID string) error {
	id, err := parseID(itemID, "item id")
	if err != nil {
		return err
	}

	item, err := s.findItemForEdit(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete stock item: %w", err)
	}

	s.broadcast("item_deleted", map[string]interface{}{
		"item_id":    id.String(),
		"control_id": item.MonthlyControlID.String(),
	})

	return nil
}

func (s *stockService) UpdateItemProductStatus(ctx context.Context, user model.AuthUser, itemID, productStatusID string) error {
	id, err := parseID(itemID, "item id")
	if err != nil {
		return err
	}
	statusID, err := parseID(productStatusID, "product status id")
	if err != nil {
		return err
	}

	if _, err := s.findItemForEdit(ctx, user, id); err != nil {
		return err
	}

	statusExists, err := s.catalogRepo.ProductStatusExists(ctx, statusID)
	if err != nil {
		return fmt.Errorf("failed to check product status: %w", err)
	}
	if !statusExists {
		return apperr.Validation("unknown product status")
	}

	if err := s.itemRepo.UpdateProductStatus(ctx, id, statusID); err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return nil
}
