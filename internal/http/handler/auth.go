package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/auth"
	"crosswalk.app/api/internal/http/dto"
	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *AuthHandler) Apple(c *gin.Context) {
	var req dto.AppleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
		return
	}
	h.signIn(c, auth.ProviderApple, req.IdentityToken)
}

func (h *AuthHandler) WorkOS(c *gin.Context) {
	var req dto.WorkOSSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
		return
	}
	h.signIn(c, auth.ProviderWorkOS, req.AccessToken)
}

func (h *AuthHandler) signIn(c *gin.Context, provider auth.Provider, token string) {
	session, err := h.authService.SignIn(c.Request.Context(), provider, token)
	if err != nil {
		respondError(c, err, "Authentication failed")
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		User:      dto.ToUserResponse(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userService.Get(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be 2-20 characters"})
		return
	}

	user, err := h.userService.Rename(ctx, middleware.UserID(ctx), req.Name)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) GenerateUsername(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userService.RandomizeName(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(c, err, "Failed to generate username")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
