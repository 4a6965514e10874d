package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/model"
	"github.com/agroledger/cropchain/internal/exchange/service"
)

// SettlementHandler handles HTTP requests for trade settlement.
type SettlementHandler struct {
	svc    *service.TokenizationService
	logger *zap.Logger
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(svc *service.TokenizationService, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{svc: svc, logger: logger}
}

// Register mounts the settlement routes on the given router group.
func (h *SettlementHandler) Register(rg *gin.RouterGroup) {
	settlements := rg.Group("/settlements")
	{
		settlements.POST("/execute", h.ExecuteTrade)
		settlements.GET("", h.ListSettlements)
	}
}

// ExecuteTrade handles POST /settlements/execute — accepts a listed token
// and settles the trade.
func (h *SettlementHandler) ExecuteTrade(c *gin.Context) {
	var req model.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	settlement, err := h.svc.ExecuteTrade(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RecordAuditAppend(1)
	RecordSettlement(settlement.TotalAmount)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Trade executed and settled successfully",
		"settlement": settlement,
	})
}

// ListSettlements handles GET /settlements.
func (h *SettlementHandler) ListSettlements(c *gin.Context) {
	settlements, err := h.svc.Settlements(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settlements": settlements, "total": len(settlements)})
}
