package handler

import (
	"net/http"

	"github.com/programacioneltictac/app-gestion-stock/internal/middleware"
	"github.com/programacioneltictac/app-gestion-stock/internal/service"
	"github.com/programacioneltictac/app-gestion-stock/pkg/response"

	"github.com/gin-gonic/gin"
)

type BranchHandler struct {
	branchService service.BranchService
}

func NewBranchHandler(branchService service.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

func (h *BranchHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.RequireAuth())
	{
		api.GET("/branches", h.ListBranches)
		api.GET("/my-branch", h.MyBranch)
		api.GET("/stock/branches-list", h.ListBranches)
	}
}

// ListBranches returns the active branches visible to the caller
// @Summary      List branches
// @Description  Admins and managers see every branch, employees only their own
// @Tags         branches
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Router       /api/branches [get]
func (h *BranchHandler) ListBranches(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	branches, err := h.branchService.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"branches": branches}))
}

// MyBranch returns the caller's assigned branch
// @Summary      My branch
// @Description  Returns null for users with all-branch visibility
// @Tags         branches
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Branch}
// @Router       /api/my-branch [get]
func (h *BranchHandler) MyBranch(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	branch, err := h.branchService.MyBranch(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	if branch == nil {
		c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "User has access to all branches", nil))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"branch": branch}))
}
