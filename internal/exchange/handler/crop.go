package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/model"
	"github.com/agroledger/cropchain/internal/exchange/service"
)

// CropHandler handles HTTP requests for crop registration and lookup.
type CropHandler struct {
	svc    *service.TokenizationService
	logger *zap.Logger
}

// NewCropHandler creates a new CropHandler.
func NewCropHandler(svc *service.TokenizationService, logger *zap.Logger) *CropHandler {
	return &CropHandler{svc: svc, logger: logger}
}

// Register mounts the crop routes on the given router group.
func (h *CropHandler) Register(rg *gin.RouterGroup) {
	crops := rg.Group("/crops")
	{
		crops.POST("/register", h.RegisterCrop)
		crops.GET("", h.ListCrops)
		crops.GET("/:crop_id", h.GetCrop)
	}
}

// RegisterCrop handles POST /crops/register — registers a harvest lot and
// mints its token.
func (h *CropHandler) RegisterCrop(c *gin.Context) {
	var req model.RegisterCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	res, err := h.svc.RegisterCrop(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RecordAuditAppend(2) // CROP_REGISTERED + TOKEN_CREATED
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"crop":    res.Crop,
		"token":   res.Token,
		"message": "Crop registered and tokenized successfully",
	})
}

// ListCrops handles GET /crops.
func (h *CropHandler) ListCrops(c *gin.Context) {
	crops, err := h.svc.Crops(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "crops": crops, "total": len(crops)})
}

// GetCrop handles GET /crops/:crop_id.
func (h *CropHandler) GetCrop(c *gin.Context) {
	crop, err := h.svc.Crop(c.Request.Context(), c.Param("crop_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "crop": crop})
}
