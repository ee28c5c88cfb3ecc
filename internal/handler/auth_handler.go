package handler

import (
	"log"
	"net/http"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/internal/middleware"
	"github.com/programacioneltictac/app-gestion-stock/internal/model"
	"github.com/programacioneltictac/app-gestion-stock/internal/service"
	"github.com/programacioneltictac/app-gestion-stock/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService service.UserService
}

func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/login", h.Login)
		api.POST("/logout", middleware.RequireAuth(), h.Logout)
		api.POST("/register", middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin), h.Register)
		api.GET("/profile", middleware.RequireAuth(), h.Profile)
		api.GET("/verify-auth", middleware.RequireAuth(), h.VerifyAuth)
	}
}

// Login authenticates a user and issues an access token
// @Summary      Log in
// @Description  Verifies credentials and returns a signed JWT plus the user payload
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		if apperr.IsKind(err, apperr.KindAccessDenied) {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid credentials"))
			return
		}
		respondError(c, err)
		return
	}

	middleware.SetTokenCookie(c, result.Token)
	log.Printf("login ok - user: %s, role: %s", result.User.Username, result.User.Role)

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Login successful", result))
}

// Logout clears the session cookie
// @Summary      Log out
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Logout successful", nil))
}

// Register creates a new user account (admin only)
// @Summary      Register user
// @Description  Creates a user with a role from the closed set and an optional branch assignment
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterUserRequest  true  "New user"
// @Success      201      {object}  response.Response{data=model.User}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("user created - id: %s, username: %s, role: %s", user.ID, user.Username, user.Role)
	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "User created successfully", user))
}

// Profile echoes the authenticated caller
// @Summary      Current profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.AuthUser}
// @Router       /api/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// VerifyAuth confirms the token is still valid
// @Summary      Verify authentication
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.AuthUser}
// @Router       /api/verify-auth [get]
func (h *AuthHandler) VerifyAuth(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "User authenticated", user))
}
