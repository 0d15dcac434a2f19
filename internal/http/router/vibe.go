package router

import (
	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/handler"
)

func VibeRouter(rg *gin.RouterGroup, h *handler.VibeHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/messages", h.Messages)
	rg.POST("/:id/chat", h.Chat)
	rg.POST("/:id/revert", h.Revert)
	rg.GET("/:id/preview-url", h.PreviewURL)
	rg.GET("/:id/files", h.Files)
	rg.GET("/:id/file", h.File)
	rg.POST("/:id/pr", h.CreatePullRequest)
}
