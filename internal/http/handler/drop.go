package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/geo"
	"crosswalk.app/api/internal/http/dto"
	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/service"
)

type DropHandler struct {
	dropService service.DropService
}

func NewDropHandler(dropService service.DropService) *DropHandler {
	return &DropHandler{dropService: dropService}
}

func (h *DropHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.ListDropsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
		return
	}

	drops, err := h.dropService.List(ctx, middleware.UserID(ctx), service.DropQuery{
		Viewer: viewerPoint(q.Lat, q.Lng),
		Radius: q.Radius,
	})
	if err != nil {
		respondError(c, err, "Failed to list drops")
		return
	}
	c.JSON(http.StatusOK, drops)
}

func (h *DropHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	dropID, ok := pathID(c, "Drop not found")
	if !ok {
		return
	}

	var q dto.ViewerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
		return
	}

	drop, err := h.dropService.Get(ctx, middleware.UserID(ctx), dropID, viewerPoint(q.Lat, q.Lng))
	if err != nil {
		respondError(c, err, "Failed to get drop")
		return
	}
	c.JSON(http.StatusOK, drop)
}

func (h *DropHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
		return
	}

	drop, err := h.dropService.Create(ctx, middleware.UserID(ctx), req.Input())
	if err != nil {
		respondError(c, err, "Failed to create drop")
		return
	}
	c.JSON(http.StatusCreated, drop)
}

func (h *DropHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	dropID, ok := pathID(c, "Drop not found")
	if !ok {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{DropID: &dropID})

	if err := h.dropService.Delete(ctx, middleware.UserID(ctx), dropID); err != nil {
		respondError(c, err, "Failed to delete drop")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *DropHandler) Highfive(c *gin.Context) {
	ctx := c.Request.Context()
	dropID, ok := pathID(c, "Drop not found")
	if !ok {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{DropID: &dropID})

	status, err := h.dropService.Highfive(ctx, middleware.UserID(ctx), dropID)
	if err != nil {
		respondError(c, err, "Failed to high-five")
		return
	}
	c.JSON(http.StatusOK, dto.HighfiveResponse{Success: true, HighfiveStatus: status})
}

func (h *DropHandler) RemoveHighfive(c *gin.Context) {
	ctx := c.Request.Context()
	dropID, ok := pathID(c, "Drop not found")
	if !ok {
		return
	}

	status, err := h.dropService.RemoveHighfive(ctx, middleware.UserID(ctx), dropID)
	if err != nil {
		respondError(c, err, "Failed to remove high-five")
		return
	}
	c.JSON(http.StatusOK, dto.HighfiveResponse{Success: true, HighfiveStatus: status})
}

func (h *DropHandler) HighfiveStatus(c *gin.Context) {
	ctx := c.Request.Context()
	dropID, ok := pathID(c, "Drop not found")
	if !ok {
		return
	}

	status, err := h.dropService.HighfiveStatus(ctx, middleware.UserID(ctx), dropID)
	if err != nil {
		respondError(c, err, "Failed to load high-five")
		return
	}
	c.JSON(http.StatusOK, status)
}

func viewerPoint(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lng: *lng}
}
