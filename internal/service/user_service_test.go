package service

import (
	"context"
	"testing"
	"time"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/database"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type userFixture struct {
	db     *gorm.DB
	svc    UserService
	branch model.Branch
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	f := &userFixture{db: db}
	f.branch = model.Branch{Name: "Centro", Code: "CEN", IsActive: true}
	require.NoError(t, db.Create(&f.branch).Error)

	f.svc = NewUserService(
		repository.NewUserRepository(db),
		repository.NewBranchRepository(db),
		[]byte("test-secret"),
		time.Hour,
	)
	return f
}

func (f *userFixture) register(t *testing.T, username, password, role string, branchID string) *model.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterUserRequest{
		Username: username,
		Password: password,
		Role:     role,
		BranchID: branchID,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	created := f.register(t, "maria", "secret123", "employee", f.branch.ID.String())
	assert.Equal(t, model.RoleEmployee, created.Role)
	require.NotNil(t, created.BranchID)
	assert.Equal(t, f.branch.ID, *created.BranchID)
	// Stored hash is never the plaintext.
	assert.NotEqual(t, "secret123", created.PasswordHash)

	resp, err := f.svc.Login(ctx, LoginRequest{Username: "maria", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, created.ID, resp.User.ID)
	assert.Equal(t, model.RoleEmployee, resp.User.Role)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, "maria", claims["username"])
	assert.Equal(t, "employee", claims["role"])
	assert.Equal(t, f.branch.ID.String(), claims["branch_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	f.register(t, "maria", "secret123", "admin", "")

	_, err := f.svc.Login(ctx, LoginRequest{Username: "maria", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, err = f.svc.Login(ctx, LoginRequest{Username: "nobody", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestLoginIgnoresInactiveUsers(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	created := f.register(t, "maria", "secret123", "admin", "")
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", created.ID).Update("is_active", false).Error)

	_, err := f.svc.Login(ctx, LoginRequest{Username: "maria", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestRegisterRoleIsClosedEnum(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterUserRequest{
		Username: "maria",
		Password: "secret123",
		Role:     "superadmin",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Empty role defaults to employee, which then demands a branch.
	_, err = f.svc.Register(context.Background(), RegisterUserRequest{
		Username: "maria",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterEmployeeRequiresExistingBranch(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterUserRequest{
		Username: "maria",
		Password: "secret123",
		Role:     "employee",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Register(ctx, RegisterUserRequest{
		Username: "maria",
		Password: "secret123",
		Role:     "employee",
		BranchID: uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	f := newUserFixture(t)

	f.register(t, "maria", "secret123", "manager", "")
	_, err := f.svc.Register(context.Background(), RegisterUserRequest{
		Username: "maria",
		Password: "otherpass",
		Role:     "manager",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListUsers(t *testing.T) {
	f := newUserFixture(t)

	f.register(t, "maria", "secret123", "admin", "")
	f.register(t, "juan", "secret123", "employee", f.branch.ID.String())

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
