package router

import (
	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/handler"
)

func DropRouter(rg *gin.RouterGroup, h *handler.DropHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/highfive", h.HighfiveStatus)
	rg.POST("/:id/highfive", h.Highfive)
	rg.DELETE("/:id/highfive", h.RemoveHighfive)
}
