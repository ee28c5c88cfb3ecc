package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/database"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stockFixture struct {
	db       *gorm.DB
	svc      StockService
	catalog  repository.CatalogRepository
	items    repository.ItemRepository
	controls repository.ControlRepository

	branch1 model.Branch
	branch2 model.Branch

	admin    model.AuthUser
	manager  model.AuthUser
	employee model.AuthUser

	products []model.Product

	activeStatusID uuid.UUID
	trialStatusID  uuid.UUID
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	f := &stockFixture{db: db}

	f.branch1 = model.Branch{Name: "Centro", Code: "CEN", IsActive: true}
	f.branch2 = model.Branch{Name: "Norte", Code: "NOR", IsActive: true}
	require.NoError(t, db.Create(&f.branch1).Error)
	require.NoError(t, db.Create(&f.branch2).Error)

	adminUser := model.User{Username: "admin", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true}
	managerUser := model.User{Username: "manager", PasswordHash: "x", Role: model.RoleManager, IsActive: true}
	employeeUser := model.User{Username: "employee", PasswordHash: "x", Role: model.RoleEmployee, BranchID: &f.branch1.ID, IsActive: true}
	require.NoError(t, db.Create(&adminUser).Error)
	require.NoError(t, db.Create(&managerUser).Error)
	require.NoError(t, db.Create(&employeeUser).Error)

	f.admin = model.AuthUser{ID: adminUser.ID, Username: "admin", Role: model.RoleAdmin}
	f.manager = model.AuthUser{ID: managerUser.ID, Username: "manager", Role: model.RoleManager}
	f.employee = model.AuthUser{ID: employeeUser.ID, Username: "employee", Role: model.RoleEmployee, BranchID: &f.branch1.ID}

	for i := 1; i <= 6; i++ {
		p := model.Product{
			Name:     fmt.Sprintf("Producto %02d", i),
			Code:     fmt.Sprintf("PRD-%03d", i),
			IsActive: true,
		}
		require.NoError(t, db.Create(&p).Error)
		f.products = append(f.products, p)
	}

	var active, trial model.ProductStatus
	require.NoError(t, db.Where("code = ?", model.ProductStatusActive).First(&active).Error)
	require.NoError(t, db.Where("code = ?", model.ProductStatusTrial).First(&trial).Error)
	f.activeStatusID = active.ID
	f.trialStatusID = trial.ID

	f.catalog = repository.NewCatalogRepository(db)
	f.items = repository.NewItemRepository(db)
	f.controls = repository.NewControlRepository(db)
	f.svc = NewStockService(
		f.controls,
		f.items,
		repository.NewBranchRepository(db),
		f.catalog,
		repository.NewTransactionManager(db),
		nil,
	)

	return f
}

func (f *stockFixture) createControl(t *testing.T, user model.AuthUser, branchID uuid.UUID, year, month int) *model.MonthlyControl {
	t.Helper()
	control, err := f.svc.CreateMonthlyControl(context.Background(), user, CreateControlRequest{
		BranchID: branchID.String(),
		Year:     year,
		Month:    month,
	})
	require.NoError(t, err)
	return control
}

func (f *stockFixture) addItem(t *testing.T, user model.AuthUser, controlID uuid.UUID, product model.Product, required, current int) *model.StockItem {
	t.Helper()
	item, err := f.svc.AddItem(context.Background(), user, AddItemRequest{
		MonthlyControlID: controlID.String(),
		ProductID:        product.ID.String(),
		ProductStatusID:  f.activeStatusID.String(),
		StockRequire:     required,
		StockCurrent:     current,
	})
	require.NoError(t, err)
	return item
}

func TestCreateControlStartsAsDraftWithNoItems(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	assert.Equal(t, model.ControlStatusDraft, control.Status)
	assert.Equal(t, 2024, control.ControlYear)
	assert.Equal(t, 3, control.ControlMonth)
	assert.Equal(t, f.branch1.ID, control.BranchID)

	current, err := f.svc.GetCurrentControl(ctx, f.admin, CurrentControlQuery{
		BranchID: f.branch1.ID.String(),
		Year:     2024,
		Month:    3,
	})
	require.NoError(t, err)
	assert.True(t, current.CanEdit)
	assert.False(t, current.CanCreate)
	assert.EqualValues(t, 0, current.Stats.TotalItems)

	// Completing an empty control is rejected and changes nothing.
	_, _, err = f.svc.CompleteControl(ctx, f.admin, control.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindEmptyControl, apperr.KindOf(err))

	reloaded, err := f.controls.FindByID(ctx, control.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ControlStatusDraft, reloaded.Status)
}

func TestCreateControlDuplicatePeriodConflicts(t *testing.T) {
	f := newStockFixture(t)

	f.createControl(t, f.admin, f.branch1.ID, 2024, 5)
	_, err := f.svc.CreateMonthlyControl(context.Background(), f.admin, CreateControlRequest{
		BranchID: f.branch1.ID.String(),
		Year:     2024,
		Month:    5,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Same period on another branch is fine.
	f.createControl(t, f.admin, f.branch2.ID, 2024, 5)
}

func TestCreateControlEmployeeForcedToOwnBranch(t *testing.T) {
	f := newStockFixture(t)

	// The employee asks for branch 2 but the control lands on their own.
	control, err := f.svc.CreateMonthlyControl(context.Background(), f.employee, CreateControlRequest{
		BranchID: f.branch2.ID.String(),
		Year:     2024,
		Month:    7,
	})
	require.NoError(t, err)
	assert.Equal(t, f.branch1.ID, control.BranchID)
}

func TestCreateControlValidatesMonth(t *testing.T) {
	f := newStockFixture(t)

	_, err := f.svc.CreateMonthlyControl(context.Background(), f.admin, CreateControlRequest{
		BranchID: f.branch1.ID.String(),
		Year:     2024,
		Month:    13,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetCurrentControlCanCreateWhenMissing(t *testing.T) {
	f := newStockFixture(t)

	result, err := f.svc.GetCurrentControl(context.Background(), f.admin, CurrentControlQuery{
		BranchID: f.branch1.ID.String(),
		Year:     2031,
		Month:    1,
	})
	require.NoError(t, err)
	assert.True(t, result.CanCreate)
	assert.Nil(t, result.Control)
	assert.Equal(t, 2031, result.Period.Year)
	assert.Equal(t, 1, result.Period.Month)
}

func TestAddItemComplianceScenario(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)

	item := f.addItem(t, f.admin, control.ID, f.products[0], 10, 3)
	assert.Equal(t, 30, item.Compliance)
	assert.Equal(t, model.StockStatusNeedsOrder, item.StockStatusCode)
	assert.Equal(t, f.branch1.ID, item.BranchID)

	updated, err := f.svc.UpdateItem(ctx, f.admin, item.ID.String(), UpdateItemRequest{
		StockRequire: 10,
		StockCurrent: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.Compliance)
	assert.Equal(t, model.StockStatusOptimal, updated.StockStatusCode)

	updated, err = f.svc.UpdateItem(ctx, f.admin, item.ID.String(), UpdateItemRequest{
		StockRequire: 10,
		StockCurrent: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 250, updated.Compliance)
	assert.Equal(t, model.StockStatusHighExcess, updated.StockStatusCode)
}

func TestUpdateItemIsIdempotent(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	item := f.addItem(t, f.admin, control.ID, f.products[0], 10, 3)

	req := UpdateItemRequest{StockRequire: 12, StockCurrent: 11, Notes: "contado dos veces"}
	first, err := f.svc.UpdateItem(ctx, f.admin, item.ID.String(), req)
	require.NoError(t, err)
	second, err := f.svc.UpdateItem(ctx, f.admin, item.ID.String(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Compliance, second.Compliance)
	assert.Equal(t, first.StockStatusCode, second.StockStatusCode)
	assert.Equal(t, first.StockRequire, second.StockRequire)
	assert.Equal(t, first.StockCurrent, second.StockCurrent)
	assert.Equal(t, first.Notes, second.Notes)
}

func TestAddItemDuplicateProductConflicts(t *testing.T) {
	f := newStockFixture(t)

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	f.addItem(t, f.admin, control.ID, f.products[0], 10, 10)

	_, err := f.svc.AddItem(context.Background(), f.admin, AddItemRequest{
		MonthlyControlID: control.ID.String(),
		ProductID:        f.products[0].ID.String(),
		ProductStatusID:  f.activeStatusID.String(),
		StockRequire:     5,
		StockCurrent:     5,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAddItemUnknownOrInactiveProduct(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)

	_, err := f.svc.AddItem(ctx, f.admin, AddItemRequest{
		MonthlyControlID: control.ID.String(),
		ProductID:        uuid.New().String(),
		ProductStatusID:  f.activeStatusID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Deactivated products behave like missing ones.
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", f.products[1].ID).Update("is_active", false).Error)
	_, err = f.svc.AddItem(ctx, f.admin, AddItemRequest{
		MonthlyControlID: control.ID.String(),
		ProductID:        f.products[1].ID.String(),
		ProductStatusID:  f.activeStatusID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCompletedControlRejectsAllMutation(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	item := f.addItem(t, f.admin, control.ID, f.products[0], 10, 10)

	completed, itemCount, err := f.svc.CompleteControl(ctx, f.admin, control.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ControlStatusCompleted, completed.Status)
	assert.EqualValues(t, 1, itemCount)

	// Completing twice is an invalid state transition.
	_, _, err = f.svc.CompleteControl(ctx, f.admin, control.ID.String())
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	err = f.svc.SaveControlNotes(ctx, f.admin, control.ID.String(), "tarde")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	_, err = f.svc.AddItem(ctx, f.admin, AddItemRequest{
		MonthlyControlID: control.ID.String(),
		ProductID:        f.products[1].ID.String(),
		ProductStatusID:  f.activeStatusID.String(),
	})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, f.admin, item.ID.String(), UpdateItemRequest{StockRequire: 1, StockCurrent: 1})
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	err = f.svc.DeleteItem(ctx, f.admin, item.ID.String())
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	err = f.svc.UpdateItemProductStatus(ctx, f.admin, item.ID.String(), f.trialStatusID.String())
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestSaveNotesOnlyInDraft(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	require.NoError(t, f.svc.SaveControlNotes(ctx, f.admin, control.ID.String(), "recuento parcial"))

	reloaded, err := f.controls.FindByID(ctx, control.ID)
	require.NoError(t, err)
	assert.Equal(t, "recuento parcial", reloaded.Notes)
}

func TestDeleteControlRequiresAdmin(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)

	err := f.svc.DeleteControl(ctx, f.manager, control.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	err = f.svc.DeleteControl(ctx, f.employee, control.ID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	require.NoError(t, f.svc.DeleteControl(ctx, f.admin, control.ID.String()))
}

func TestDeleteControlCascadesToItems(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	var itemIDs []uuid.UUID
	for i := 0; i < 5; i++ {
		item := f.addItem(t, f.admin, control.ID, f.products[i], 10, 10)
		itemIDs = append(itemIDs, item.ID)
	}

	require.NoError(t, f.svc.DeleteControl(ctx, f.admin, control.ID.String()))

	_, err := f.controls.FindByID(ctx, control.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	for _, id := range itemIDs {
		_, err := f.items.FindByID(ctx, id)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	}
}

func TestEmployeeCrossBranchAlwaysDenied(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch2.ID, 2024, 3)
	item := f.addItem(t, f.admin, control.ID, f.products[0], 10, 10)

	// Every operation scoped to the foreign branch fails the same way.
	err := f.svc.SaveControlNotes(ctx, f.employee, control.ID.String(), "x")
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, _, err = f.svc.CompleteControl(ctx, f.employee, control.ID.String())
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, err = f.svc.AddItem(ctx, f.employee, AddItemRequest{
		MonthlyControlID: control.ID.String(),
		ProductID:        f.products[1].ID.String(),
		ProductStatusID:  f.activeStatusID.String(),
	})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, err = f.svc.ListItems(ctx, f.employee, control.ID.String(), repository.ItemFilters{}, 1, 10)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, f.employee, item.ID.String(), UpdateItemRequest{StockRequire: 1, StockCurrent: 1})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	err = f.svc.DeleteItem(ctx, f.employee, item.ID.String())
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	err = f.svc.UpdateItemProductStatus(ctx, f.employee, item.ID.String(), f.trialStatusID.String())
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, err = f.svc.BranchSummary(ctx, f.employee, f.branch2.ID.String(), 12)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestListItemsFiltersAndPagination(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	// Three short items, three in need of an order.
	for i := 0; i < 3; i++ {
		f.addItem(t, f.admin, control.ID, f.products[i], 10, 10)
	}
	for i := 3; i < 6; i++ {
		f.addItem(t, f.admin, control.ID, f.products[i], 10, 2)
	}

	// Paging: 6 items, pages of 4.
	page1, err := f.svc.ListItems(ctx, f.admin, control.ID.String(), repository.ItemFilters{}, 1, 4)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 4)
	assert.EqualValues(t, 6, page1.Pagination.Total)
	assert.Equal(t, 2, page1.Pagination.Pages)

	page2, err := f.svc.ListItems(ctx, f.admin, control.ID.String(), repository.ItemFilters{}, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)

	// Stock-status filter.
	needy, err := f.svc.ListItems(ctx, f.admin, control.ID.String(), repository.ItemFilters{
		StockStatus: model.StockStatusNeedsOrder,
	}, 1, 50)
	require.NoError(t, err)
	assert.Len(t, needy.Items, 3)

	// Case-insensitive substring search on product code.
	found, err := f.svc.ListItems(ctx, f.admin, control.ID.String(), repository.ItemFilters{
		Search: "prd-004",
	}, 1, 50)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, f.products[3].ID, found.Items[0].ProductID)

	assert.True(t, found.Control.CanEdit)
	assert.Equal(t, control.ID, found.Control.ID)
}

func TestStatsAggregates(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	f.addItem(t, f.admin, control.ID, f.products[0], 10, 3)  // 30, needs_order
	f.addItem(t, f.admin, control.ID, f.products[1], 10, 10) // 100, optimal
	f.addItem(t, f.admin, control.ID, f.products[2], 10, 15) // 150, excess
	f.addItem(t, f.admin, control.ID, f.products[3], 10, 25) // 250, high_excess

	current, err := f.svc.GetCurrentControl(ctx, f.admin, CurrentControlQuery{
		BranchID: f.branch1.ID.String(),
		Year:     2024,
		Month:    3,
	})
	require.NoError(t, err)
	stats := current.Stats
	assert.EqualValues(t, 4, stats.TotalItems)
	assert.EqualValues(t, 1, stats.NeedOrder)
	assert.EqualValues(t, 1, stats.Optimal)
	assert.EqualValues(t, 1, stats.Excess)
	assert.EqualValues(t, 1, stats.HighExcess)
	// (30+100+150+250)/4 = 132.5
	assert.InDelta(t, 132.5, stats.AvgCompliance, 0.001)
}

func TestUpdateItemProductStatus(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	control := f.createControl(t, f.admin, f.branch1.ID, 2024, 3)
	item := f.addItem(t, f.admin, control.ID, f.products[0], 10, 10)

	require.NoError(t, f.svc.UpdateItemProductStatus(ctx, f.admin, item.ID.String(), f.trialStatusID.String()))

	reloaded, err := f.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, f.trialStatusID, reloaded.ProductStatusID)
	// Counts and status bucket stay untouched.
	assert.Equal(t, 100, reloaded.Compliance)
	assert.Equal(t, model.StockStatusOptimal, reloaded.StockStatusCode)

	err = f.svc.UpdateItemProductStatus(ctx, f.admin, item.ID.String(), uuid.New().String())
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestControlHistoryAndBranchSummary(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	older := f.createControl(t, f.admin, f.branch1.ID, 2023, 12)
	f.addItem(t, f.admin, older.ID, f.products[0], 10, 10)
	_, _, err := f.svc.CompleteControl(ctx, f.admin, older.ID.String())
	require.NoError(t, err)

	f.createControl(t, f.admin, f.branch1.ID, 2024, 1)

	history, err := f.svc.ControlHistory(ctx, f.admin, f.branch1.ID.String(), 12)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Most recent period first.
	assert.Equal(t, 2024, history[0].ControlYear)
	assert.EqualValues(t, 0, history[0].TotalItems)
	assert.EqualValues(t, 1, history[1].TotalItems)

	summary, err := f.svc.BranchSummary(ctx, f.admin, f.branch1.ID.String(), 12)
	require.NoError(t, err)
	assert.Equal(t, f.branch1.ID, summary.Branch.ID)
	assert.EqualValues(t, 2, summary.Stats.TotalControls)
	assert.EqualValues(t, 1, summary.Stats.CompletedControls)
	assert.EqualValues(t, 1, summary.Stats.DraftControls)

	// The employee sees their own branch history without naming it.
	history, err = f.svc.ControlHistory(ctx, f.employee, "", 12)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMutationsOnMissingEntities(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	err := f.svc.SaveControlNotes(ctx, f.admin, uuid.New().String(), "x")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.UpdateItem(ctx, f.admin, uuid.New().String(), UpdateItemRequest{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = f.svc.DeleteControl(ctx, f.admin, uuid.New().String())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Malformed ids never reach the database.
	err = f.svc.SaveControlNotes(ctx, f.admin, "not-a-uuid", "x")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
