package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/service"
)

// StatsHandler exposes dashboard statistics and the compliance report.
type StatsHandler struct {
	svc    *service.TokenizationService
	logger *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc *service.TokenizationService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Register mounts the stats routes on the given router group.
func (h *StatsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
	rg.GET("/compliance/report", h.ComplianceReport)
}

// Stats handles GET /stats.
func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.svc.ComputeStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	for status, count := range stats.TokenStatusBreakdown {
		SetTokensGauge(string(status), float64(count))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ComplianceReport handles GET /compliance/report.
func (h *StatsHandler) ComplianceReport(c *gin.Context) {
	report, err := h.svc.ComputeComplianceReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "compliance_report": report})
}
