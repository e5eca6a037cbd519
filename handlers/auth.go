package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/sessions"
	"github.com/karunyatrust/cms/internal/users"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/middleware"
)

// LoginRequest is the body of /auth/login and /auth/register-seed.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users *users.Service
}

func NewAuthHandler(u *users.Service) *AuthHandler {
	return &AuthHandler{users: u}
}

// Register routes under /auth. requireAuth guards logout.
func (h *AuthHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/register-seed", h.RegisterSeed)
	a.POST("/logout", requireAuth, h.Logout)
}

// Login checks the credentials and returns {id, username, token}.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RegisterSeed creates an admin account. It is meant for bootstrapping a fresh install.
func (h *AuthHandler) RegisterSeed(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// Logout revokes the caller's token until it expires. Without Redis the
// token stays valid until expiry and revoked is false.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	exp, ok := middleware.Claims(c)["exp"].(float64)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token has no expiry"})
		return
	}
	if err := sessions.RevokeUntil(c.Request.Context(), token, time.Unix(int64(exp), 0)); err != nil {
		logger.Errorf("failed to revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out", "revoked": sessions.Enabled()})
}
