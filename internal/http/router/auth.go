package router

import (
	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/handler"
)

// AuthRouter keeps sign-in public; /me routes require a session.
func AuthRouter(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, h *handler.AuthHandler) {
	rg.POST("/apple", h.Apple)
	rg.POST("/workos", h.WorkOS)

	me := rg.Group("/me", requireAuth)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
		me.POST("/generate-username", h.GenerateUsername)
	}
}
