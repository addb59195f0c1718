package controllers

import (
	"errors"
	"net/http"

	"tool_inventory/app"
	"tool_inventory/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidWorker),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotConsumable),
		errors.Is(err, models.ErrInstanceUnavailable),
		errors.Is(err, models.ErrInstanceNotLoaned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the status matching err's kind.
func (s *Srv) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(code, app.H{"error": err.Error()})
}
