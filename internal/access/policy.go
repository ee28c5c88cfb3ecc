// Package access implements the branch-level access policy. Both functions
// are pure: they look only at the authenticated user and the branch in
// question, never at ambient request state.
package access

import (
	"github.com/google/uuid"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"
)

// CanAccessBranch reports whether the user may operate on the given branch.
// Admins and managers reach every branch, employees only their own, and any
// unknown role is denied.
func CanAccessBranch(user model.AuthUser, branchID uuid.UUID) bool {
	switch user.Role {
	case model.RoleAdmin, model.RoleManager:
		return true
	case model.RoleEmployee:
		return user.BranchID != nil && *user.BranchID == branchID
	}
	return false
}

// ResolveBranchID picks the branch an operation actually targets. Employees
// are always pinned to their assigned branch, even if they request another
// one. Admins and managers get the requested branch, falling back to their
// own assignment; nil means "all branches" in read contexts.
func ResolveBranchID(user model.AuthUser, requested *uuid.UUID) *uuid.UUID {
	if user.Role == model.RoleEmployee {
		return user.BranchID
	}
	if requested != nil {
		return requested
	}
	return user.BranchID
}
