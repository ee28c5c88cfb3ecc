package service

import (
	"context"
	"fmt"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"
)

type RegisterProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// CatalogService exposes the read-only reference data (and the one
// administrative write: registering a new product).
type CatalogService interface {
	RegisterProduct(ctx context.Context, req RegisterProductRequest) (*model.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Conditions(ctx context.Context) ([]model.Condition, error)
	ProductStatuses(ctx context.Context) ([]model.ProductStatus, error)
	StockStatuses(ctx context.Context) ([]model.StockStatus, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*model.Product, error) {
	if _, err := s.catalogRepo.FindProductByCode(ctx, req.Code); err == nil {
		return nil, apperr.Conflict("a product with this code already exists")
	}

	product := &model.Product{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.catalogRepo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.catalogRepo.SearchProducts(ctx, term, limit)
}

func (s *catalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *catalogService) Conditions(ctx context.Context) ([]model.Condition, error) {
	return s.catalogRepo.ListConditions(ctx)
}

func (s *catalogService) ProductStatuses(ctx context.Context) ([]model.ProductStatus, error) {
	return s.catalogRepo.ListProductStatuses(ctx)
}

func (s *catalogService) StockStatuses(ctx context.Context) ([]model.StockStatus, error) {
	return s.catalogRepo.ListStockStatuses(ctx)
}
