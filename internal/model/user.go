package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles. Anything outside these three values
// is rejected at the boundary and never reaches the access policy.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole validates a raw role value against the closed enumeration.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleEmployee:
		return Role(raw), true
	}
	return "", false
}

// User represents an account that operates on monthly stock controls.
// Employees are pinned to a single branch; admins and managers see all
// branches (BranchID stays nil for them).
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null" json:"role"`
	BranchID     *uuid.UUID `gorm:"type:uuid;index" json:"branch_id"`
	Branch       *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AuthUser is the already-authenticated caller extracted from a verified
// token. Services receive it as an explicit parameter; they never read
// authentication state from ambient context.
type AuthUser struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Role     Role       `json:"role"`
	BranchID *uuid.UUID `json:"branch_id"`
}
