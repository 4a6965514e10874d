// Package handler exposes the exchange's HTTP surface: request binding,
// response envelopes, and status-code mapping. All real rules live in the
// service layer; handlers only translate.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/exchange/service"
)

// respondError maps a service error to an HTTP response. Domain failures
// carry their user-facing message and a status by kind; anything else is a
// storage failure and surfaces as a 500 without leaking internals.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var f *service.Failure
	if errors.As(err, &f) {
		c.JSON(failureStatus(f.Kind), gin.H{"success": false, "message": f.Message})
		return
	}

	logger.Error("storage failure",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal storage error"})
}

func failureStatus(kind service.FailureKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
