package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/shopfront/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler serves the mock login flow.
type AuthHandler struct {
	auth *auth.Authenticator
}

func NewAuthHandler(a *auth.Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.auth.Login(c, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if err := h.auth.Logout(c, token); err != nil {
			writeError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	u, _ := currentUser(c)
	c.JSON(http.StatusOK, u)
}
