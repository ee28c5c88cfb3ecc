package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
	BranchID string `json:"branch_id"`
}

type LoginResponse struct {
	Token string         `json:"token"`
	User  model.AuthUser `json:"user"`
}

// UserService handles authentication and account management. The stock core
// never authenticates: it receives the verified AuthUser this service (via
// the middleware) produces.
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterUserRequest) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	branchRepo repository.BranchRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(userRepo repository.UserRepository, branchRepo repository.BranchRepository, jwtSecret []byte, tokenTTL time.Duration) UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &userService{
		userRepo:   userRepo,
		branchRepo: branchRepo,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.AccessDenied("invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}
	if user.BranchID != nil {
		claims["branch_id"] = user.BranchID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{
		Token: signed,
		User: model.AuthUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
			BranchID: user.BranchID,
		},
	}, nil
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*model.User, error) {
	rawRole := req.Role
	if rawRole == "" {
		rawRole = string(model.RoleEmployee)
	}
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return nil, apperr.Validation("role must be admin, manager or employee")
	}

	branchID, err := parseOptionalID(req.BranchID, "branch id")
	if err != nil {
		return nil, err
	}
	// Employees operate on exactly one branch.
	if role == model.RoleEmployee && branchID == nil {
		return nil, apperr.Validation("employees require a branch assignment")
	}
	if branchID != nil {
		exists, err := s.branchRepo.Exists(ctx, *branchID)
		if err != nil {
			return nil, fmt.Errorf("failed to check branch: %w", err)
		}
		if !exists {
			return nil, apperr.Validation("the specified branch does not exist")
		}
	}

	exists, err := s.userRepo.Exists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
		BranchID:     branchID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}
