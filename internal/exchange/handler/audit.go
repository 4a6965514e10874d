package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/service"
)

// AuditHandler exposes read-only HTTP endpoints for the audit chain.
type AuditHandler struct {
	svc    *service.TokenizationService
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(svc *service.TokenizationService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, logger: logger}
}

// Register mounts the audit routes on the given router group.
func (h *AuditHandler) Register(rg *gin.RouterGroup) {
	audit := rg.Group("/audit")
	{
		audit.GET("/trail", h.Trail)
		audit.GET("/verify", h.Verify)
	}
}

// Trail handles GET /audit/trail — returns the complete audit trail.
func (h *AuditHandler) Trail(c *gin.Context) {
	trail, err := h.svc.AuditTrail(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"audit_trail":  trail,
		"total_events": len(trail),
	})
}

// Verify handles GET /audit/verify — walks the full chain and reports
// integrity. A broken chain is a 200 with valid=false: tampering is a
// query result, not a server error.
func (h *AuditHandler) Verify(c *gin.Context) {
	res, err := h.svc.VerifyAuditIntegrity(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !res.Valid {
		h.logger.Warn("audit chain integrity check failed",
			zap.String("entry_id", res.EntryID),
			zap.Int("index", res.Index),
		)
	}
	RecordIntegrityCheck(res.Valid)
	c.JSON(http.StatusOK, res)
}
