package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/programacioneltictac/app-gestion-stock/internal/middleware"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/service"
	"github.com/programacioneltictac/app-gestion-stock/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.POST("/products", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RegisterProduct)

		catalogs := api.Group("/stock/catalogs")
		{
			catalogs.GET("/products", h.Products)
			catalogs.GET("/categories", h.Categories)
			catalogs.GET("/conditions", h.Conditions)
			catalogs.GET("/product-status", h.ProductStatuses)
			catalogs.GET("/stock-status", h.StockStatuses)
		}
	}
}

// RegisterProduct adds a product to the catalog
// @Summary      Register product
// @Tags         catalogs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterProductRequest  true  "New product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      409      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) RegisterProduct(c *gin.Context) {
	var req service.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.RegisterProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("product created - id: %s, code: %s", product.ID, product.Code)
	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Product created successfully", product))
}

// Products searches the active product catalog
// @Summary      Search products
// @Tags         catalogs
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Name or code substring"
// @Param        limit   query     int     false  "Max results (default 100)"
// @Success      200     {object}  response.Response{data=[]model.Product}
// @Router       /api/stock/catalogs/products [get]
func (h *CatalogHandler) Products(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	products, err := h.catalogService.SearchProducts(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"products": products}))
}

// Categories lists the active product categories
// @Summary      List categories
// @Tags         catalogs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /api/stock/catalogs/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.catalogService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"categories": categories}))
}

// Conditions lists the product conditions
// @Summary      List conditions
// @Tags         catalogs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Condition}
// @Router       /api/stock/catalogs/conditions [get]
func (h *CatalogHandler) Conditions(c *gin.Context) {
	conditions, err := h.catalogService.Conditions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"conditions": conditions}))
}

// ProductStatuses lists the tri-state product statuses
// @Summary      List product statuses
// @Tags         catalogs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ProductStatus}
// @Router       /api/stock/catalogs/product-status [get]
func (h *CatalogHandler) ProductStatuses(c *gin.Context) {
	statuses, err := h.catalogService.ProductStatuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"product_statuses": statuses}))
}

// StockStatuses lists the four fixed compliance buckets
// @Summary      List stock statuses
// @Tags         catalogs
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.StockStatus}
// @Router       /api/stock/catalogs/stock-status [get]
func (h *CatalogHandler) StockStatuses(c *gin.Context) {
	statuses, err := h.catalogService.StockStatuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"stock_statuses": statuses}))
}
