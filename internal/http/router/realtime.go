package router

import (
	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/handler"
)

func RealtimeRouter(rg *gin.RouterGroup, h *handler.RealtimeHandler) {
	rg.GET("/stream", h.Stream)
}
