package access

import (
	"testing"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanAccessBranchAdminAndManager(t *testing.T) {
	anyBranch := uuid.New()
	otherBranch := uuid.New()

	admin := model.AuthUser{ID: uuid.New(), Role: model.RoleAdmin}
	manager := model.AuthUser{ID: uuid.New(), Role: model.RoleManager, BranchID: &otherBranch}

	assert.True(t, CanAccessBranch(admin, anyBranch))
	assert.True(t, CanAccessBranch(manager, anyBranch))
	assert.True(t, CanAccessBranch(manager, otherBranch))
}

func TestCanAccessBranchEmployee(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	employee := model.AuthUser{ID: uuid.New(), Role: model.RoleEmployee, BranchID: &own}
	assert.True(t, CanAccessBranch(employee, own))
	assert.False(t, CanAccessBranch(employee, other))

	// An employee with no branch assignment reaches nothing.
	unassigned := model.AuthUser{ID: uuid.New(), Role: model.RoleEmployee}
	assert.False(t, CanAccessBranch(unassigned, own))
}

func TestCanAccessBranchUnknownRoleDenied(t *testing.T) {
	branch := uuid.New()
	stranger := model.AuthUser{ID: uuid.New(), Role: model.Role("superuser"), BranchID: &branch}
	assert.False(t, CanAccessBranch(stranger, branch))
}

func TestResolveBranchIDEmployeeIgnoresRequest(t *testing.T) {
	own := uuid.New()
	requested := uuid.New()

	employee := model.AuthUser{ID: uuid.New(), Role: model.RoleEmployee, BranchID: &own}
	resolved := ResolveBranchID(employee, &requested)
	assert.NotNil(t, resolved)
	assert.Equal(t, own, *resolved)
}

func TestResolveBranchIDAdminAndManager(t *testing.T) {
	own := uuid.New()
	requested := uuid.New()

	admin := model.AuthUser{ID: uuid.New(), Role: model.RoleAdmin}
	manager := model.AuthUser{ID: uuid.New(), Role: model.RoleManager, BranchID: &own}

	resolved := ResolveBranchID(admin, &requested)
	assert.Equal(t, requested, *resolved)

	// Falls back to the user's own assignment.
	resolved = ResolveBranchID(manager, nil)
	assert.Equal(t, own, *resolved)

	// Nil means all branches for unassigned admins in read contexts.
	assert.Nil(t, ResolveBranchID(admin, nil))
}
