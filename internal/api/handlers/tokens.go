package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/fieldsight/internal/auth"
	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/pkg/dto"
)

type TokenHandler struct {
	cfg config.AuthConfig
}

func NewTokenHandler(cfg config.AuthConfig) *TokenHandler {
	return &TokenHandler{cfg: cfg}
}

// Issue mints an account token. The endpoint sits behind the service key and
// is meant for the companion auth service, not end users.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.IssueToken(h.cfg.JWTSecret, h.cfg.TokenTTL, req.AccountID, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
