package dto

import (
	"time"

	"crosswalk.app/api/internal/model"
)

type AppleSignInRequest struct {
	IdentityToken string `json:"identity_token" binding:"required"`
}

type WorkOSSignInRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

type SessionResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

type UserResponse struct {
	ID        int64     `json:"id,string"`
	Email     *string   `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

type UpdateMeRequest struct {
	Name string `json:"name" binding:"required"`
}
