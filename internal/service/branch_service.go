package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"

	"gorm.io/gorm"
)

// BranchService serves the branch reference data, scoped by role: employees
// only ever see their own branch in listings.
type BranchService interface {
	List(ctx context.Context, user model.AuthUser) ([]model.Branch, error)
	MyBranch(ctx context.Context, user model.AuthUser) (*model.Branch, error)
}

type branchService struct {
	branchRepo repository.BranchRepository
}

func NewBranchService(branchRepo repository.BranchRepository) BranchService {
	return &branchService{branchRepo: branchRepo}
}

func (s *branchService) List(ctx context.Context, user model.AuthUser) ([]model.Branch, error) {
	if user.Role == model.RoleEmployee {
		return s.branchRepo.List(ctx, user.BranchID)
	}
	return s.branchRepo.List(ctx, nil)
}

// MyBranch returns nil without error for users with all-branch visibility.
func (s *branchService) MyBranch(ctx context.Context, user model.AuthUser) (*model.Branch, error) {
	if user.BranchID == nil {
		return nil, nil
	}
	branch, err := s.branchRepo.FindByID(ctx, *user.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("branch not found")
		}
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}
	return branch, nil
}
