package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/service"
	"github.com/trackboard/backend/pkg/token"
)

// refreshPath is the only path the refresh cookie travels on.
const refreshPath = "/api/v1/auth/refresh"

type AuthHandler struct {
	authService *service.AuthService
	secure      bool
}

func NewAuthHandler(authService *service.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email,max=128"`
		Username  string `json:"username" binding:"required,min=3,max=64"`
		FirstName string `json:"first_name" binding:"max=64"`
		LastName  string `json:"last_name" binding:"max=64"`
		Password  string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	user, pair, err := h.authService.Register(service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusCreated, user.Public())
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	user, pair, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, user.Public())
}

// POST /auth/refresh: behind the refresh guard.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	email := middleware.GetCurrentUserEmail(c)

	pair, err := h.authService.Refresh(userID, email)
	if err != nil {
		Fail(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, middleware.GetCurrentUser(c))
}

// POST /auth/logout: behind the access guard.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(middleware.GetCurrentUserID(c)); err != nil {
		Fail(c, err)
		return
	}

	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetCurrentUser(c))
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, pair token.Pair) {
	accessMaxAge := int(h.authService.AccessTTL().Seconds())
	refreshMaxAge := int(h.authService.RefreshTTL().Seconds())
	c.SetCookie(middleware.AccessTokenCookie, pair.Access, accessMaxAge, "/", "", h.secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.Refresh, refreshMaxAge, refreshPath, "", h.secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, refreshPath, "", h.secure, true)
}
