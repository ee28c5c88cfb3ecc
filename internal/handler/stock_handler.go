package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/programacioneltictac/app-gestion-stock/internal/middleware"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/repository"
	"github.com/programacioneltictac/app-gestion-stock/internal/service"
	"github.com/programacioneltictac/app-gestion-stock/pkg/pagination"
	"github.com/programacioneltictac/app-gestion-stock/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock", middleware.RequireAuth())
	{
		stock.POST("/monthly-control/create", h.CreateControl)
		stock.GET("/monthly-control/current", h.CurrentControl)
		stock.PUT("/monthly-control/save", h.SaveControl)
		stock.PUT("/monthly-control/complete", h.CompleteControl)
		stock.GET("/monthly-control/history", h.ControlHistory)
		stock.DELETE("/monthly-control/:control_id", h.DeleteControl)
		stock.GET("/branches-summary/:branch_id", h.BranchSummary)

		stock.POST("/items/add", h.AddItem)
		stock.GET("/items/:control_id", h.ListItems)
		stock.PUT("/items/:item_id", h.UpdateItem)
		stock.DELETE("/items/:item_id", h.DeleteItem)
		stock.PUT("/items/:item_id/status", h.UpdateItemStatus)
	}
}

type saveControlRequest struct {
	ControlID string `json:"control_id" binding:"required"`
	Notes     string `json:"notes"`
}

type completeControlRequest struct {
	ControlID string `json:"control_id" binding:"required"`
}

type updateItemStatusRequest struct {
	ProductStatusID string `json:"product_status_id" binding:"required"`
}

// CreateControl opens a new monthly control in draft
// @Summary      Create monthly control
// @Description  Creates the control for the requested branch and period; defaults to the current month
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateControlRequest  true  "Branch and period"
// @Success      201      {object}  response.Response{data=model.MonthlyControl}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stock/monthly-control/create [post]
func (h *StockHandler) CreateControl(c *gin.Context) {
	var req service.CreateControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	control, err := h.stockService.CreateMonthlyControl(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("monthly control created - id: %s, branch: %s, period: %d/%d, user: %s",
		control.ID, control.BranchID, control.ControlMonth, control.ControlYear, user.Username)
	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Monthly control created successfully", gin.H{"control": control}))
}

// CurrentControl returns the control for a branch and period, with stats
// @Summary      Current monthly control
// @Description  Returns the control plus aggregates, or a can-create marker when none exists
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  query     string  false  "Branch ID (admins/managers)"
// @Param        year       query     int     false  "Control year"
// @Param        month      query     int     false  "Control month (1-12)"
// @Success      200        {object}  response.Response{data=service.CurrentControlResponse}
// @Failure      403        {object}  response.Response
// @Router       /api/stock/monthly-control/current [get]
func (h *StockHandler) CurrentControl(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))

	user, _ := middleware.CurrentUser(c)
	result, err := h.stockService.GetCurrentControl(c.Request.Context(), user, service.CurrentControlQuery{
		BranchID: c.Query("branch_id"),
		Year:     year,
		Month:    month,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.CanCreate {
		c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "No control exists for this period. You can create one.", result))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// SaveControl updates the notes of a draft control
// @Summary      Save control notes
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      saveControlRequest  true  "Control and notes"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/stock/monthly-control/save [put]
func (h *StockHandler) SaveControl(c *gin.Context) {
	var req saveControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	if err := h.stockService.SaveControlNotes(c.Request.Context(), user, req.ControlID, req.Notes); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("control saved - id: %s, user: %s", req.ControlID, user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Control saved successfully", nil))
}

// CompleteControl transitions a draft control to completed
// @Summary      Complete monthly control
// @Description  Requires at least one registered line item; irreversible
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      completeControlRequest  true  "Control ID"
// @Success      200      {object}  response.Response{data=model.MonthlyControl}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/stock/monthly-control/complete [put]
func (h *StockHandler) CompleteControl(c *gin.Context) {
	var req completeControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	control, itemCount, err := h.stockService.CompleteControl(c.Request.Context(), user, req.ControlID)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("control completed - id: %s, items: %d, user: %s", control.ID, itemCount, user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK,
		"Control completed successfully with "+strconv.FormatInt(itemCount, 10)+" products",
		gin.H{"control": control}))
}

// ControlHistory lists recent controls for a branch
// @Summary      Control history
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  query     string  false  "Branch ID (admins/managers)"
// @Param        limit      query     int     false  "Max entries (default 12)"
// @Success      200        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Router       /api/stock/monthly-control/history [get]
func (h *StockHandler) ControlHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	user, _ := middleware.CurrentUser(c)
	history, err := h.stockService.ControlHistory(c.Request.Context(), user, c.Query("branch_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"history": history}))
}

// DeleteControl removes a control and all of its items atomically
// @Summary      Delete monthly control
// @Description  Admin only; the control and its line items are removed in one transaction
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        control_id  path      string  true  "Control ID"
// @Success      200         {object}  response.Response
// @Failure      403         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Router       /api/stock/monthly-control/{control_id} [delete]
func (h *StockHandler) DeleteControl(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	controlID := c.Param("control_id")

	if err := h.stockService.DeleteControl(c.Request.Context(), user, controlID); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("control deleted - id: %s, user: %s", controlID, user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Control deleted successfully", nil))
}

// BranchSummary returns a branch with its recent controls and stats
// @Summary      Branch summary
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  path      string  true   "Branch ID"
// @Param        limit      query     int     false  "Max controls (default 12)"
// @Success      200        {object}  response.Response{data=service.BranchSummaryResponse}
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/stock/branches-summary/{branch_id} [get]
func (h *StockHandler) BranchSummary(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	user, _ := middleware.CurrentUser(c)
	summary, err := h.stockService.BranchSummary(c.Request.Context(), user, c.Param("branch_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// AddItem registers a product count in a draft control
// @Summary      Add stock item
// @Description  Computes compliance and the stock status bucket on creation
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddItemRequest  true  "New item"
// @Success      201      {object}  response.Response{data=model.StockItem}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/stock/items/add [post]
func (h *StockHandler) AddItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	item, err := h.stockService.AddItem(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("item added - control: %s, item: %s, user: %s", req.MonthlyControlID, item.ID, user.Username)
	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Product added successfully to the control", gin.H{"item": item}))
}

// ListItems pages through a control's line items
// @Summary      List stock items
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        control_id         path      string  true   "Control ID"
// @Param        category_id        query     string  false  "Filter by category"
// @Param        condition_id       query     string  false  "Filter by condition"
// @Param        product_status_id  query     string  false  "Filter by product status"
// @Param        stock_status       query     string  false  "Filter by stock status bucket"
// @Param        search             query     string  false  "Product name or code substring"
// @Param        page               query     int     false  "Page (1-indexed)"
// @Param        limit              query     int     false  "Page size (default 50)"
// @Success      200                {object}  response.Response{data=service.ItemListResponse}
// @Failure      403                {object}  response.Response
// @Failure      404                {object}  response.Response
// @Router       /api/stock/items/{control_id} [get]
func (h *StockHandler) ListItems(c *gin.Context) {
	filters, err := parseItemFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	params := pagination.Parse(c)

	user, _ := middleware.CurrentUser(c)
	result, err := h.stockService.ListItems(c.Request.Context(), user, c.Param("control_id"), filters, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateItem rewrites the counts of an item and recomputes its status
// @Summary      Update stock item
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        item_id  path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "New counts"
// @Success      200      {object}  response.Response{data=model.StockItem}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/items/{item_id} [put]
func (h *StockHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	item, err := h.stockService.UpdateItem(c.Request.Context(), user, c.Param("item_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("item updated - id: %s, user: %s", item.ID, user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Product updated successfully", gin.H{"item": item}))
}

// DeleteItem removes an item from a draft control
// @Summary      Delete stock item
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        item_id  path      string  true  "Item ID"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/items/{item_id} [delete]
func (h *StockHandler) DeleteItem(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	itemID := c.Param("item_id")

	if err := h.stockService.DeleteItem(c.Request.Context(), user, itemID); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("item deleted - id: %s, user: %s", itemID, user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Product removed successfully from the control", nil))
}

// UpdateItemStatus changes an item's product status independently of counts
// @Summary      Update item product status
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        item_id  path      string                   true  "Item ID"
// @Param        payload  body      updateItemStatusRequest  true  "New product status"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/stock/items/{item_id}/status [put]
func (h *StockHandler) UpdateItemStatus(c *gin.Context) {
	var req updateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, _ := middleware.CurrentUser(c)
	if err := h.stockService.UpdateItemProductStatus(c.Request.Context(), user, c.Param("item_id"), req.ProductStatusID); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("item status updated - id: %s, user: %s", c.Param("item_id"), user.Username)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Product status updated", nil))
}

func parseItemFilters(c *gin.Context) (repository.ItemFilters, error) {
	filters := repository.ItemFilters{
		Search: c.Query("search"),
	}

	parse := func(param string) (*uuid.UUID, error) {
		raw := c.Query(param)
		if raw == "" {
			return nil, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &filterError{param: param}
		}
		return &id, nil
	}

	var err error
	if filters.CategoryID, err = parse("category_id"); err != nil {
		return filters, err
	}
	if filters.ConditionID, err = parse("condition_id"); err != nil {
		return filters, err
	}
	if filters.ProductStatusID, err = parse("product_status_id"); err != nil {
		return filters, err
	}
	filters.StockStatus = model.StockStatusCode(c.Query("stock_status"))

	return filters, nil
}

type filterError struct {
	param string
}

func (e *filterError) Error() string {
	return "Invalid filter value for " + e.param
}
