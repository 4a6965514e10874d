package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/model"
	"github.com/agroledger/cropchain/internal/exchange/service"
)

// TokenHandler handles HTTP requests for crop tokens.
type TokenHandler struct {
	svc    *service.TokenizationService
	logger *zap.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(svc *service.TokenizationService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{svc: svc, logger: logger}
}

// Register mounts the token routes on the given router group.
func (h *TokenHandler) Register(rg *gin.RouterGroup) {
	tokens := rg.Group("/tokens")
	{
		tokens.POST("/list", h.ListForSale)
		tokens.GET("", h.ListTokens)
		tokens.GET("/:token_id", h.GetToken)
		tokens.GET("/status/:status", h.ListByStatus)
	}
}

// ListForSale handles POST /tokens/list — puts a token up for sale.
func (h *TokenHandler) ListForSale(c *gin.Context) {
	var req model.ListTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	token, err := h.svc.ListToken(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RecordAuditAppend(1)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Token listed successfully",
		"token_id": token.TokenID,
	})
}

// ListTokens handles GET /tokens.
func (h *TokenHandler) ListTokens(c *gin.Context) {
	h.respondTokens(c, "")
}

// ListByStatus handles GET /tokens/status/:status. The filter is
// case-insensitive: "listed" and "LISTED" are the same query.
func (h *TokenHandler) ListByStatus(c *gin.Context) {
	h.respondTokens(c, c.Param("status"))
}

func (h *TokenHandler) respondTokens(c *gin.Context, status string) {
	tokens, err := h.svc.Tokens(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": tokens, "total": len(tokens)})
}

// GetToken handles GET /tokens/:token_id — returns the token with its
// linked crop.
func (h *TokenHandler) GetToken(c *gin.Context) {
	detail, err := h.svc.Token(c.Request.Context(), c.Param("token_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": detail.Token, "crop": detail.Crop})
}
