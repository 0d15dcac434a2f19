package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/internal/service"
)

// respondError maps service error kinds to statuses. Anything unclassified is
// logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()

	var status int
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrExternal):
		slog.WarnContext(ctx, "upstream failure", "error", err, "path", c.FullPath())
		status = http.StatusBadGateway
	default:
		slog.ErrorContext(ctx, "request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	c.JSON(status, gin.H{"error": service.Message(err, fallback)})
}

// pathID parses the :id parameter. Malformed ids are answered as missing.
func pathID(c *gin.Context, notFound string) (int64, bool) {
	v, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return 0, false
	}
	return v, true
}
