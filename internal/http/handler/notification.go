package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/dto"
	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/service"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.notificationService.List(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	ctx := c.Request.Context()

	n, err := h.notificationService.UnreadCount(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	notificationID, ok := pathID(c, "Notification not found")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(ctx, middleware.UserID(ctx), notificationID); err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.notificationService.MarkAllRead(ctx, middleware.UserID(ctx)); err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
